package cmd

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/storage"
	"github.com/mfenderov/smart-organizer/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportList   bool
	exportFetch  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all documents as a zip archive",
	Long: `Download every document as one zip archive, organized by category.

When storage is enabled the archive is also mirrored to the configured
S3/MinIO bucket; --list shows the mirrored archives and --fetch downloads
one of them by key.

Examples:
  smart-organizer export
  smart-organizer export --output ~/Downloads
  smart-organizer export --list
  smart-organizer export --fetch exports/alice/2025-12-04T17-30-00/documents_alice.zip`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Directory to save the archive in (default: client.export_dir)")
	exportCmd.Flags().BoolVar(&exportList, "list", false, "List archives mirrored to storage")
	exportCmd.Flags().StringVar(&exportFetch, "fetch", "", "Download a mirrored archive by key")
	exportCmd.MarkFlagsMutuallyExclusive("list", "fetch")
}

func runExport(cmd *cobra.Command, args []string) error {
	conf := GetConfig()
	if exportOutput != "" {
		conf.Client.ExportDir = exportOutput
	}

	return withApp(cmd, conf, func(ctx context.Context, a *app.App) error {
		switch {
		case exportList:
			return listExports(ctx, cmd, a)
		case exportFetch != "":
			return fetchExport(ctx, cmd, a, conf.Client.ExportDir)
		}

		result, err := a.Actions.Export(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Saved %s (%d files, %d bytes)\n", result.Path, result.Files, result.Bytes)
		if result.MirrorKey != "" {
			fmt.Fprintf(w, "Mirrored to %s/%s\n", a.Mirror.Bucket(), result.MirrorKey)
		}
		return nil
	})
}

func mirrorOwner(a *app.App) (string, error) {
	if a.Mirror == nil {
		return "", errors.New("storage is not enabled (set storage.enabled)")
	}
	s, ok := a.Session()
	if !ok {
		return "", errors.New("not signed in")
	}
	return s.Username, nil
}

func listExports(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	username, err := mirrorOwner(a)
	if err != nil {
		return err
	}

	exports, err := a.Mirror.ListExports(ctx, username)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mirrored archives")
		return nil
	}

	rows := make([][]string, len(exports))
	for i, e := range exports {
		rows[i] = []string{e.Key, strconv.FormatInt(e.Size, 10), e.LastModified.Local().Format("2006-01-02 15:04")}
	}
	styles := tui.NewStyles(a.Prefs.Theme())
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(styles, []string{"Key", "Bytes", "Exported"}, rows))
	return nil
}

// fetchExport downloads one of the signed-in user's mirrored archives into dir.
func fetchExport(ctx context.Context, cmd *cobra.Command, a *app.App, dir string) error {
	username, err := mirrorOwner(a)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(exportFetch, storage.ExportPrefix(username)) {
		return fmt.Errorf("archive %s does not belong to %s", exportFetch, username)
	}

	data, err := a.Mirror.GetExport(ctx, exportFetch)
	if err != nil {
		return err
	}
	if err := a.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	dest := filepath.Join(dir, path.Base(exportFetch))
	if err := afero.WriteFile(a.Fs, dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, len(data))
	return nil
}
