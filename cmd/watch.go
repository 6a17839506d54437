package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/adapters/realtime"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/adapters/render/chatlist"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/application"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch conversations live over the realtime channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			session := app.creds.Session()
			if !session.Active() {
				return fmt.Errorf("not signed in")
			}

			rt := realtime.NewClient(app.cfg.WSBaseURL, realtime.Options{
				Reconnect: app.cfg.Reconnect,
				Logger:    app.log,
			})
			defer rt.Close()

			var chats []domain.Chat
			err := runConnectSpinner(ctx, cmd.OutOrStdout(), "Connecting...", func(ctx context.Context) error {
				if err := rt.Connect(ctx, session.UserID, session.AccessToken); err != nil {
					return err
				}
				list, err := app.api.FetchChats(ctx, session.UserID)
				if err != nil {
					return err
				}
				chats = list
				return nil
			})
			if err != nil {
				return err
			}

			app.store.ReplaceChats(chats)

			app.coordinator.Start(ctx)
			defer app.coordinator.Stop()

			// The monitor hooks run on timer goroutines, so the program
			// must exist before the monitor starts.
			var program *tea.Program

			monitor := application.NewInactivityMonitor(app.coordinator, application.InactivityOptions{
				WarnAfter:        app.cfg.WarnAfter,
				GracePeriod:      app.cfg.GracePeriod,
				ActivityThrottle: app.cfg.ActivityThrottle,
				Logger:           app.log,
				OnWarning: func() {
					program.Send(idleWarningMsg{})
				},
				OnExpired: func() {
					_ = app.sessions.Logout(context.Background())
					rt.Close()
					program.Send(sessionExpiredMsg{})
				},
			})

			updates, unsubscribe := app.store.Subscribe()
			defer unsubscribe()
			go app.store.Run(ctx, rt.Events())

			program = tea.NewProgram(
				newWatchModel(updates, monitor, app.store.Chats()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			monitor.Start()
			defer monitor.Stop()
			_, err = program.Run()
			return err
		},
	}
}

type (
	storeUpdateMsg    application.Update
	streamClosedMsg   struct{}
	idleWarningMsg    struct{}
	sessionExpiredMsg struct{}
	confirmResultMsg  struct{ err error }
)

type watchModel struct {
	updates <-chan application.Update
	monitor *application.InactivityMonitor

	chats    []domain.Chat
	warned   bool
	expired  bool
	detached bool
}

func newWatchModel(updates <-chan application.Update, monitor *application.InactivityMonitor, chats []domain.Chat) watchModel {
	return watchModel{
		updates: updates,
		monitor: monitor,
		chats:   chats,
	}
}

func waitForUpdate(updates <-chan application.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return storeUpdateMsg(update)
	}
}

func (m watchModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeUpdateMsg:
		m.chats = msg.Chats
		return m, waitForUpdate(m.updates)

	case streamClosedMsg:
		m.detached = true
		if m.expired {
			return m, tea.Quit
		}
		return m, nil

	case idleWarningMsg:
		m.warned = true
		return m, nil

	case sessionExpiredMsg:
		m.expired = true
		return m, tea.Quit

	case confirmResultMsg:
		if msg.err == nil {
			m.warned = false
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			if m.warned {
				monitor := m.monitor
				return m, func() tea.Msg {
					return confirmResultMsg{err: monitor.Confirm(context.Background())}
				}
			}
		case "l":
			if m.warned {
				m.monitor.Expire()
				return m, nil
			}
		}
		// Any keypress counts as user activity.
		m.monitor.Activity()
		return m, nil
	}

	return m, nil
}

var (
	watchStatusStyle  = lipgloss.NewStyle().Faint(true)
	watchWarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

func (m watchModel) View() string {
	if m.expired {
		return watchWarningStyle.Render("Session expired. Run `portal login` to sign in again.") + "\n"
	}

	body := chatlist.Render(m.chats, chatlist.RenderOptions{Now: time.Now()})

	status := watchStatusStyle.Render("q: quit")
	if m.warned {
		status = watchWarningStyle.Render("Session idle. Press c to stay signed in, l to sign out")
	} else if m.detached {
		status = watchStatusStyle.Render("Realtime channel disconnected. q: quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, "", status) + "\n"
}
