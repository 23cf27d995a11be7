package cmd

import (
	"context"
	"fmt"

	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/spf13/cobra"
)

var (
	authUsername string
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in to the classification service. The session is stored in the data
directory and reused by later commands until you log out.

The password is read from standard input when --password is not given.

Example:
  smart-organizer login -u alice`,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account. Passwords need at least 6 characters and one digit.
Signing up does not sign you in.

Example:
  smart-organizer signup -u alice -e alice@example.com`,
	RunE: runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
			return a.Logout()
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
			s, ok := a.Session()
			if !ok {
				return fmt.Errorf("not signed in")
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Username)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Password (prompted when empty)")
	}
	signupCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Email address")
}

func readPassword(cmd *cobra.Command) (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	return prompt(cmd, "Password: ")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		return a.Auth.SignIn(ctx, authUsername, password)
	})
}

func runSignup(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, GetConfig(), func(ctx context.Context, a *app.App) error {
		return a.Auth.SignUp(ctx, authUsername, authEmail, password)
	})
}
