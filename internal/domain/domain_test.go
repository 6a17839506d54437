package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUserType(t *testing.T) {
	assert.Equal(t, UserTypePatient, ParseUserType("patient"))
	assert.Equal(t, UserTypeDoctor, ParseUserType(" Doctor "))
	assert.Equal(t, UserType("nurse"), ParseUserType("nurse"))
}

func TestSessionActive(t *testing.T) {
	assert.False(t, Session{}.Active())
	assert.False(t, Session{AccessToken: "a"}.Active())
	assert.False(t, Session{UserID: "u"}.Active())
	assert.True(t, Session{AccessToken: "a", UserID: "u"}.Active())
}

func TestChatSortTime(t *testing.T) {
	latest := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, latest, Chat{LatestMessageTime: latest, UpdatedAt: updated}.SortTime())
	assert.Equal(t, updated, Chat{UpdatedAt: updated}.SortTime(),
		"a chat without messages ranks by its last update")
}

func TestRealtimeEventToMessage(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ev := RealtimeEvent{
		Type:        EventTypeNewMessage,
		ChatID:      "chat-1",
		SenderID:    "user-2",
		RecipientID: "user-1",
		Content:     "hello",
		CreatedAt:   at,
	}

	assert.Equal(t, Message{
		ChatID:      "chat-1",
		SenderID:    "user-2",
		RecipientID: "user-1",
		Content:     "hello",
		CreatedAt:   at,
	}, ev.Message())
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", ConnectionDisconnected.String())
	assert.Equal(t, "connecting", ConnectionConnecting.String())
	assert.Equal(t, "connected", ConnectionConnected.String())
}
