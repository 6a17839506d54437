package chatlist

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
)

var renderNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRenderEmptyList(t *testing.T) {
	out := Render(nil, RenderOptions{Now: renderNow})

	assert.Contains(t, out, "Conversations (0)")
	assert.Contains(t, out, "No conversations yet.")
}

func TestRenderChatRows(t *testing.T) {
	chats := []domain.Chat{
		{
			ID:                   "chat-1",
			RecipientDisplayName: "Dr. Who",
			RecipientUserType:    domain.UserTypeDoctor,
			LatestMessageContent: "See you Tuesday",
			LatestMessageTime:    renderNow.Add(-5 * time.Minute),
			UnreadMessagesCount:  3,
		},
		{
			ID:                   "chat-2",
			RecipientDisplayName: "Pat Doe",
			RecipientUserType:    domain.UserTypePatient,
			UpdatedAt:            renderNow.Add(-2 * time.Hour),
		},
	}

	out := Render(chats, RenderOptions{Now: renderNow})

	assert.Contains(t, out, "Conversations (2)")
	assert.Contains(t, out, "Dr. Who")
	assert.Contains(t, out, "(doctor)")
	assert.Contains(t, out, "[3 unread]")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "See you Tuesday")
	assert.Contains(t, out, "Pat Doe")
	assert.Contains(t, out, "2h ago")
	assert.NotContains(t, out, "[0 unread]")
}

func TestRenderTruncatesLongPreview(t *testing.T) {
	chats := []domain.Chat{{
		ID:                   "chat-1",
		RecipientDisplayName: "Dr. Who",
		LatestMessageContent: strings.Repeat("x", 200),
		LatestMessageTime:    renderNow,
	}}

	out := Render(chats, RenderOptions{Now: renderNow})

	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", 100))
}

func TestFormatRelative(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"seconds", renderNow.Add(-30 * time.Second), "just now"},
		{"minutes", renderNow.Add(-45 * time.Minute), "45m ago"},
		{"hours", renderNow.Add(-6 * time.Hour), "6h ago"},
		{"days", renderNow.Add(-72 * time.Hour), "May 29"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatRelative(tc.at, renderNow))
		})
	}
}
