package ports

import (
	"context"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
)

// SessionRepository is the durable per-user store for the session record.
// Load returns domain.ErrNoSession when nothing is stored. Clear removes
// the record entirely; it is called on logout and on irrecoverable refresh
// failure.
type SessionRepository interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}
