package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

// SessionService is the login/logout entry point. Login is the only path
// that populates the credential store with a full identity; refresh later
// mutates the token material and logout destroys it.
type SessionService struct {
	creds *CredentialStore
	auth  ports.AuthAPI
	log   *slog.Logger
}

func NewSessionService(creds *CredentialStore, auth ports.AuthAPI, log *slog.Logger) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{creds: creds, auth: auth, log: log}
}

func (s *SessionService) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	session, err := s.auth.Login(ctx, req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}

	if err := s.creds.SetSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info("logged in", "user_id", session.UserID, "user_type", session.UserType)

	return session, nil
}

// Logout clears all session state. Timers and the realtime connection are
// the caller's to tear down; the advanced generation counter makes sure any
// refresh still in flight is discarded when it completes.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.creds.Clear(ctx); err != nil {
		return err
	}
	s.log.Info("logged out")

	return nil
}
