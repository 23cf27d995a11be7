package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mfenderov/smart-organizer/internal/actions"
	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/tui"
	"github.com/mfenderov/smart-organizer/internal/upload"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/cobra"
)

var (
	docsCategory string
	docsSearch   string
	deleteYes    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload and classify documents",
	Long: `Upload up to 5 PDF or DOCX files. Each file is classified by the service and
stored under its category.

Example:
  smart-organizer upload resume.pdf invoice.docx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories and document counts",
	RunE:  runCategories,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents in a category",
	Long: `List the documents in one category, optionally filtered by filename.

Examples:
  smart-organizer documents --category Resume
  smart-organizer documents --category Invoice --search 2024`,
	RunE: runDocuments,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <document-id>",
	Short: "Generate an AI summary of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document",
	Long: `Delete a document permanently. You are asked to confirm unless --yes is given.

Example:
  smart-organizer delete 3f2a9c --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(uploadCmd, categoriesCmd, documentsCmd, summarizeCmd, deleteCmd)

	documentsCmd.Flags().StringVarP(&docsCategory, "category", "c", "", "Category to list (required)")
	documentsCmd.Flags().StringVarP(&docsSearch, "search", "s", "", "Case-insensitive filename filter")
	_ = documentsCmd.MarkFlagRequired("category")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runUpload(cmd *cobra.Command, args []string) error {
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		files, err := upload.FromPaths(a.Fs, args)
		if err != nil {
			return err
		}
		if err := a.Upload.Select(files); err != nil {
			return err
		}
		results, err := a.Upload.Submit(ctx)
		if err != nil {
			return err
		}

		styles := tui.NewStyles(a.Prefs.Theme())
		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{r.Filename, r.Category, styles.Confidence(r.Confidence)}
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(styles, []string{"File", "Category", "Confidence"}, rows))
		return nil
	})
}

func runCategories(cmd *cobra.Command, args []string) error {
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		if err := a.Library.Load(ctx); err != nil {
			return err
		}
		if a.Library.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents yet. Upload some to get started.")
			return nil
		}

		index := a.Library.Categories()
		rows := make([][]string, 0, len(index))
		for _, name := range index.Names() {
			rows = append(rows, []string{name, strconv.Itoa(index[name])})
		}
		styles := tui.NewStyles(a.Prefs.Theme())
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(styles, []string{"Category", "Documents"}, rows))
		fmt.Fprintf(cmd.OutOrStdout(), "%d documents in total\n", a.Library.Total())
		return nil
	})
}

func runDocuments(cmd *cobra.Command, args []string) error {
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		if err := a.Library.Select(ctx, docsCategory); err != nil {
			return err
		}
		a.Library.SetQuery(docsSearch)
		docs := a.Library.Visible()
		if len(docs) == 0 {
			if docsSearch != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents match your search")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents in this category")
			}
			return nil
		}

		styles := tui.NewStyles(a.Prefs.Theme())
		rows := make([][]string, len(docs))
		for i, d := range docs {
			date := ""
			if !d.Timestamp.IsZero() {
				date = d.Timestamp.Local().Format("2006-01-02 15:04")
			}
			rows[i] = []string{d.ID, d.Filename, styles.Confidence(d.Confidence), date}
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(styles, []string{"ID", "File", "Confidence", "Uploaded"}, rows))
		return nil
	})
}

func runSummarize(cmd *cobra.Command, args []string) error {
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		doc := models.Document{ID: args[0], Filename: args[0]}
		if err := a.Actions.Summarize(ctx, doc); err != nil {
			return err
		}

		view := a.Actions.Summary()
		if view.Status != actions.SummaryReady {
			return errors.New(view.Error)
		}
		w := cmd.OutOrStdout()
		if t := view.Result.DocumentType; t != nil && *t != "" {
			fmt.Fprintf(w, "Type: %s\n\n", *t)
		}
		fmt.Fprintln(w, view.Result.Summary)
		if len(view.Result.KeyPoints) > 0 {
			fmt.Fprintln(w, "\nKey points:")
			for _, p := range view.Result.KeyPoints {
				fmt.Fprintf(w, "  • %s\n", p)
			}
		}
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !deleteYes {
		answer, err := prompt(cmd, fmt.Sprintf("Delete document %s? This cannot be undone. [y/N] ", id))
		if err != nil {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
	}

	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		a.Actions.RequestDelete(models.Document{ID: id})
		return a.Actions.ConfirmDelete(ctx)
	})
}
