package ports

import (
	"context"
	"net/http"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
)

// AuthAPI covers the two endpoints that deal in credentials. Refresh
// carries the refresh token as its bearer credential and must never be
// routed through the 401-retry path.
type AuthAPI interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// ChatAPI is the non-realtime REST surface the core consumes. All calls go
// through the refresh coordinator.
type ChatAPI interface {
	FetchChats(ctx context.Context, userID string) ([]domain.Chat, error)
	FetchMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, msg domain.Message) error
	SearchUsers(ctx context.Context, query string, userType domain.UserType) ([]domain.UserSummary, error)
	FindOrCreateChat(ctx context.Context, userID, otherUserID string) (domain.Chat, error)
}

// MessageSender is the slice of ChatAPI the chat store needs for the async
// half of an optimistic send.
type MessageSender interface {
	SendMessage(ctx context.Context, msg domain.Message) error
}

// RequestDoer executes an HTTP request on behalf of a caller. The refresh
// coordinator implements it: it attaches the current access token and
// transparently performs the single-flight refresh-and-replay dance on 401.
type RequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
