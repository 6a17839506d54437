// Package chatlist renders chat summaries for the terminal.
package chatlist

import (
	"fmt"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

// Render returns the styled chat list, newest conversation first (the
// input is assumed already ordered by the chat store).
func Render(chats []domain.Chat, opts RenderOptions) string {
	return renderView(chats, opts, newStyles())
}

func renderView(chats []domain.Chat, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Conversations (%d)", len(chats))),
	}

	if len(chats) == 0 {
		lines = append(lines, s.empty.Render("No conversations yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, chat := range chats {
		lines = append(lines, renderChat(chat, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderChat(chat domain.Chat, opts RenderOptions, s styles) string {
	header := s.recipient.Render(chat.RecipientDisplayName)
	if chat.RecipientUserType != "" {
		header += " " + s.role.Render(fmt.Sprintf("(%s)", chat.RecipientUserType))
	}
	if chat.UnreadMessagesCount > 0 {
		header += " " + s.unread.Render(fmt.Sprintf("[%d unread]", chat.UnreadMessagesCount))
	}
	if at := chat.SortTime(); !at.IsZero() {
		header += " " + s.timestamp.Render(formatRelative(at, opts.Now))
	}

	preview := chat.LatestMessageContent
	if preview == "" {
		return header
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, s.preview.Render("  "+truncate(preview, 80)))
}

func formatRelative(at, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}

	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return at.Format("Jan 2")
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
