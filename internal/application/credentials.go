package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

// CredentialStore owns the one in-memory session and mirrors it to durable
// storage. It is the only shared mutable state touched by more than one
// component; every accessor reads the current value under lock so no caller
// ever acts on a token captured before a concurrent refresh.
type CredentialStore struct {
	repo ports.SessionRepository
	log  *slog.Logger

	mu         sync.RWMutex
	session    domain.Session
	generation uint64
}

// NewCredentialStore rehydrates from the repository. A corrupt or missing
// record starts the store empty rather than failing construction.
func NewCredentialStore(ctx context.Context, repo ports.SessionRepository, log *slog.Logger) *CredentialStore {
	s := &CredentialStore{repo: repo, log: log}

	session, err := repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			log.Warn("stored session unreadable, starting logged out", "err", err)
		}
		return s
	}
	s.session = session

	return s
}

func (s *CredentialStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *CredentialStore) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Active()
}

func (s *CredentialStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *CredentialStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

func (s *CredentialStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserID
}

// Generation identifies the current login epoch. It advances on every
// Clear, which is how a refresh that settles after logout gets detected
// and discarded.
func (s *CredentialStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetSession installs a freshly logged-in session and persists it.
func (s *CredentialStore) SetSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.session = session

	return nil
}

// UpdateTokens applies a refresh result. gen must be the generation
// observed when the refresh started; a mismatch means logout happened in
// between and the result is discarded with domain.ErrStaleRefresh. Only
// the access token (and the refresh token when rotated) changes.
func (s *CredentialStore) UpdateTokens(ctx context.Context, gen uint64, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return domain.ErrStaleRefresh
	}

	updated := s.session
	updated.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		updated.RefreshToken = pair.RefreshToken
	}

	if err := s.repo.Save(ctx, updated); err != nil {
		return fmt.Errorf("persist refreshed session: %w", err)
	}
	s.session = updated

	return nil
}

// Clear wipes the session everywhere and advances the generation. Called
// on logout and on irrecoverable refresh failure.
func (s *CredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.session = domain.Session{}

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear stored session: %w", err)
	}

	return nil
}

// TokenExpiry reads the access token's exp claim without verifying the
// signature (the client never holds the signing key). The second return is
// false when there is no token or it carries no expiry.
func (s *CredentialStore) TokenExpiry() (time.Time, bool) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
