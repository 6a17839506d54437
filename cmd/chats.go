package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/adapters/render/chatlist"
	"github.com/spf13/cobra"
)

func newChatsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List conversations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.creds.Session()
			if !session.Active() {
				return fmt.Errorf("not signed in")
			}

			chats, err := app.api.FetchChats(cmd.Context(), session.UserID)
			if err != nil {
				return err
			}

			// The server's ordering is not trusted; the store re-sorts.
			app.store.ReplaceChats(chats)
			ordered := app.store.Chats()

			if asJSON {
				data, err := json.MarshalIndent(ordered, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), chatlist.Render(ordered, chatlist.RenderOptions{Now: time.Now()}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")

	return cmd
}
