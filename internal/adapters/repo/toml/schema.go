package toml

import (
	"fmt"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Session sessionSchema `toml:"session"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	UserID       string `toml:"user_id"`
	UserType     string `toml:"user_type"`
	DisplayName  string `toml:"display_name"`
	AvatarURL    string `toml:"avatar_url,omitempty"`
}

func toSchema(session domain.Session) sessionSchema {
	return sessionSchema{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.UserID,
		UserType:     string(session.UserType),
		DisplayName:  session.DisplayName,
		AvatarURL:    session.AvatarURL,
	}
}

func fromSchema(entry sessionSchema) domain.Session {
	return domain.Session{
		AccessToken:  entry.AccessToken,
		RefreshToken: entry.RefreshToken,
		UserID:       entry.UserID,
		UserType:     domain.UserType(entry.UserType),
		DisplayName:  entry.DisplayName,
		AvatarURL:    entry.AvatarURL,
	}
}
