package cmd

import (
	"context"
	"fmt"

	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/prefs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the service and summarization availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
			health, llm, err := a.CheckStatus(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Service:   %s (%s)\n", health.Status, a.API.BaseURL())
			if health.Version != "" {
				fmt.Fprintf(w, "Version:   %s\n", health.Version)
			}
			if health.Database != "" {
				fmt.Fprintf(w, "Database:  %s\n", health.Database)
			}
			if llm.Available {
				fmt.Fprintln(w, "Summaries: available")
			} else {
				fmt.Fprintf(w, "Summaries: unavailable (%s)\n", llm.Message)
			}
			if s, ok := a.Session(); ok {
				fmt.Fprintf(w, "Signed in: %s\n", s.Username)
			} else {
				fmt.Fprintln(w, "Signed in: no")
			}
			return nil
		})
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or set the colour theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
			theme := a.Prefs.Theme()
			var err error
			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				theme, err = a.Prefs.ToggleTheme()
			default:
				if theme, err = prefs.ParseTheme(args[0]); err == nil {
					err = a.Prefs.SetTheme(theme)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(GetConfig().Redacted())
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(statusCmd, themeCmd, configCmd)
}
