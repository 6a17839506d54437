package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			app.coordinator.Stop()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.creds.Session()
			if !session.Active() {
				return fmt.Errorf("not signed in")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s (%s)\n", session.DisplayName, session.UserType)
			_, _ = fmt.Fprintf(out, "user id: %s\n", session.UserID)
			if exp, ok := app.creds.TokenExpiry(); ok {
				_, _ = fmt.Fprintf(out, "token expires: %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}
