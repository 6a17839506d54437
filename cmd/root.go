package cmd

import (
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/logx"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portal",
		Short:         "Healthcare portal client: sessions, conversations and realtime messaging",
		Long:          "portal manages the authenticated session for the healthcare portal (login, token refresh, inactivity expiry) and gives terminal access to conversations, message sending and the realtime channel.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	// Downstream layers pick the logger back out of the request context.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		cmd.SetContext(logx.WithContext(cmd.Context(), app.log))
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newChatsCmd(app),
		newSendCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
