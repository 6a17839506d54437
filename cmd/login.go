package cmd

import (
	"fmt"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		email    string
		password string
		userType string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.sessions.Login(cmd.Context(), domain.LoginRequest{
				Email:    email,
				Password: password,
				UserType: domain.ParseUserType(userType),
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", session.DisplayName, session.UserType)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&userType, "user-type", "patient", "Account role: patient or doctor")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
