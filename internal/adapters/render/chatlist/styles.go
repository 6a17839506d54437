package chatlist

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	recipient lipgloss.Style
	role      lipgloss.Style
	preview   lipgloss.Style
	timestamp lipgloss.Style
	unread    lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		recipient: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		role:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		preview:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		unread:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
