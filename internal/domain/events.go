package domain

import "time"

const EventTypeNewMessage = "new_message"

// RealtimeEvent is the JSON shape pushed over the realtime channel. Events
// are applied to local state strictly in arrival order.
type RealtimeEvent struct {
	Type        string    `json:"type"`
	ChatID      string    `json:"chatId"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message converts a new_message event into the message it carries.
func (e RealtimeEvent) Message() Message {
	return Message{
		ChatID:      e.ChatID,
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		Content:     e.Content,
		CreatedAt:   e.CreatedAt,
	}
}

type ConnectionState int

const (
	ConnectionDisconnected ConnectionState = iota
	ConnectionConnecting
	ConnectionConnected
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionConnecting:
		return "connecting"
	case ConnectionConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
