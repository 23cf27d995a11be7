package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive client",
	Long: `Start the interactive terminal client. Logs go to smart-organizer.log in the
data directory while it runs.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	logFile, err := tui.LogToFile(cfg.Client.DataDir, logLevel())
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := app.New(cfg, app.Options{Interactive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, a)
}
