package cmd

import (
	"fmt"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/spf13/cobra"
)

func newSendCmd(app *app) *cobra.Command {
	var (
		chatID      string
		toUserID    string
		message     string
		searchQuery string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a conversation",
		Long:  "Send a message to an existing conversation by id, or to a user by id (resolving the conversation first). --search looks a user up by name instead of sending.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session := app.creds.Session()
			if !session.Active() {
				return fmt.Errorf("not signed in")
			}

			if searchQuery != "" {
				users, err := app.api.SearchUsers(ctx, searchQuery, "")
				if err != nil {
					return err
				}
				for _, user := range users {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s)\n", user.UserID, user.DisplayName, user.UserType)
				}
				return nil
			}

			if message == "" {
				return fmt.Errorf("--message is required")
			}

			chat := domain.Chat{ID: chatID}
			if chatID == "" {
				if toUserID == "" {
					return fmt.Errorf("either --chat or --to is required")
				}
				resolved, err := app.api.FindOrCreateChat(ctx, session.UserID, toUserID)
				if err != nil {
					return err
				}
				chat = resolved
				app.store.UpsertChat(chat)
			}

			history, err := app.api.FetchMessages(ctx, chat.ID)
			if err != nil {
				return err
			}
			app.store.OpenChat(chat.ID, history)

			sent, err := app.store.Send(ctx, domain.Message{
				ChatID:      chat.ID,
				SenderID:    session.UserID,
				RecipientID: chat.RecipientUserID,
				Content:     message,
			})
			if err != nil {
				return err
			}

			// Send is optimistic; wait for the background persist before the
			// process exits.
			app.store.Close()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sent to chat %s (key %s)\n", sent.ChatID, sent.ClientKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&chatID, "chat", "", "Conversation id")
	cmd.Flags().StringVar(&toUserID, "to", "", "Recipient user id (resolves or creates the conversation)")
	cmd.Flags().StringVar(&message, "message", "", "Message content")
	cmd.Flags().StringVar(&searchQuery, "search", "", "Search users by name instead of sending")

	return cmd
}
