package api

import (
	"context"
	"net/http"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

var _ ports.AuthAPI = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	UserType     string `json:"userType"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (c *Client) Login(ctx context.Context, lr domain.LoginRequest) (domain.Session, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email:    lr.Email,
		Password: lr.Password,
		UserType: string(lr.UserType),
	})
	if err != nil {
		return domain.Session{}, err
	}

	var out loginResponse
	resp, err := c.raw.Do(req)
	if err != nil {
		return domain.Session{}, err
	}
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		UserID:       out.UserID,
		UserType:     domain.ParseUserType(out.UserType),
		DisplayName:  out.DisplayName,
		AvatarURL:    out.AvatarURL,
	}, nil
}

// Refresh exchanges the refresh token for a new access token. The refresh
// token rides as the bearer credential, and the call deliberately bypasses
// the coordinator: a 401 here must fail outright, never recurse into
// another refresh.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", nil)
	if err != nil {
		return domain.TokenPair{}, err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	var out refreshResponse
	resp, err := c.raw.Do(req)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}
