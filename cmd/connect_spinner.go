package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type connectDoneMsg struct {
	err error
}

type connectSpinnerModel struct {
	spinner spinner.Model
	label   string
	connect tea.Cmd
	err     error
	done    bool
}

func newConnectSpinnerModel(label string, connect tea.Cmd) connectSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return connectSpinnerModel{
		spinner: s,
		label:   label,
		connect: connect,
	}
}

func (m connectSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connect)
}

func (m connectSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case connectDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m connectSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runConnectSpinner animates while connect runs, then returns its error.
func runConnectSpinner(ctx context.Context, output io.Writer, label string, connect func(context.Context) error) error {
	connectCmd := func() tea.Msg {
		return connectDoneMsg{err: connect(ctx)}
	}

	p := tea.NewProgram(
		newConnectSpinnerModel(label, connectCmd),
		tea.WithOutput(output),
		tea.WithoutSignalHandler(),
	)

	model, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := model.(connectSpinnerModel); ok && m.err != nil {
		return m.err
	}

	return nil
}
