package domain

import "time"

// Chat is the denormalized summary of one conversation, as listed in the
// chat sidebar. The latest-message fields exist so the list can be sorted
// and previewed without loading full message history.
type Chat struct {
	ID                   string    `json:"id"`
	RecipientUserID      string    `json:"recipientUserId"`
	RecipientUserType    UserType  `json:"recipientUserType"`
	RecipientDisplayName string    `json:"recipientDisplayName"`
	RecipientImageURL    string    `json:"recipientImageUrl"`
	LatestMessageContent string    `json:"latestMessageContent"`
	LatestMessageTime    time.Time `json:"latestMessageTime"`
	UnreadMessagesCount  int       `json:"unreadMessagesCount"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SortTime is the key the chat list is ordered by: latest message time when
// known, otherwise the chat's own last-updated timestamp.
func (c Chat) SortTime() time.Time {
	if !c.LatestMessageTime.IsZero() {
		return c.LatestMessageTime
	}
	return c.UpdatedAt
}

// Message is immutable once created; stores only ever append.
type Message struct {
	ChatID      string    `json:"chatId"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`

	// ClientKey is a locally generated idempotency token attached to every
	// outgoing message so a later server echo can be reconciled against the
	// optimistic local copy.
	ClientKey string `json:"clientKey,omitempty"`
}
