package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

var _ ports.ChatAPI = (*Client)(nil)

type chatListResponse struct {
	Chats []domain.Chat `json:"chats"`
}

type messageListResponse struct {
	Messages []domain.Message `json:"messages"`
}

type userSearchResponse struct {
	Users []domain.UserSummary `json:"users"`
}

type findOrCreateChatRequest struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

// FetchChats returns the chat summaries for userID. Ordering is not
// guaranteed here; the chat store re-sorts regardless.
func (c *Client) FetchChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	path := "/api/v1/chats?userId=" + url.QueryEscape(userID)
	req, err := c.newJSONRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out chatListResponse
	if err := c.doJSON(req, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("fetch chats: %w", err)
	}

	return out.Chats, nil
}

// FetchMessages returns the ordered message history for one conversation.
func (c *Client) FetchMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	path := "/api/v1/chats/" + url.PathEscape(chatID) + "/messages"
	req, err := c.newJSONRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out messageListResponse
	if err := c.doJSON(req, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return out.Messages, nil
}

// SendMessage persists a message. The optimistic UI update never blocks on
// this call; its failure is the caller's to log.
func (c *Client) SendMessage(ctx context.Context, msg domain.Message) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/v1/messages", msg)
	if err != nil {
		return err
	}

	if err := c.doJSON(req, nil, http.StatusCreated); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (c *Client) SearchUsers(ctx context.Context, query string, userType domain.UserType) ([]domain.UserSummary, error) {
	q := url.Values{}
	q.Set("query", query)
	if userType != "" {
		q.Set("userType", string(userType))
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/v1/users/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out userSearchResponse
	if err := c.doJSON(req, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	return out.Users, nil
}

// FindOrCreateChat resolves the conversation between two users, creating
// it server-side when none exists. The resulting shape feeds UpsertChat.
func (c *Client) FindOrCreateChat(ctx context.Context, userID, otherUserID string) (domain.Chat, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/v1/chats/find-or-create", findOrCreateChatRequest{
		UserID:      userID,
		OtherUserID: otherUserID,
	})
	if err != nil {
		return domain.Chat{}, err
	}

	var out domain.Chat
	if err := c.doJSON(req, &out, http.StatusOK); err != nil {
		return domain.Chat{}, fmt.Errorf("find or create chat: %w", err)
	}

	return out, nil
}
