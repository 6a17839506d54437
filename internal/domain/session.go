package domain

import "strings"

type UserType string

const (
	UserTypePatient UserType = "patient"
	UserTypeDoctor  UserType = "doctor"
)

// ParseUserType normalizes a user-type string coming from config, flags or
// the wire. Unknown values are returned as-is so the server stays the
// authority on what roles exist.
func ParseUserType(s string) UserType {
	return UserType(strings.ToLower(strings.TrimSpace(s)))
}

// Session is the identity and token material for the logged-in user.
// It is owned exclusively by the credential store; every other component
// only reads it.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserType     UserType
	DisplayName  string
	AvatarURL    string
}

// Active reports whether the session carries a usable identity. Requests
// made without an active session are anonymous and never trigger a token
// refresh.
func (s Session) Active() bool {
	return s.AccessToken != "" && s.UserID != ""
}

// TokenPair is the result of a token refresh. RefreshToken is empty when
// the server did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginRequest struct {
	Email    string
	Password string
	UserType UserType
}

// UserSummary is the identity shape produced by user search, consumed when
// starting a conversation with a new recipient.
type UserSummary struct {
	UserID      string   `json:"userId"`
	UserType    UserType `json:"userType"`
	DisplayName string   `json:"displayName"`
	AvatarURL   string   `json:"avatarUrl"`
}
