// Package api is the REST client for the portal backend. Credential
// endpoints (login, refresh) go out on a plain HTTP client; everything
// else is routed through the refresh coordinator so a mid-session token
// expiry is invisible to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/logx"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL string
	raw     *http.Client
	doer    ports.RequestDoer
}

// NewClient builds a client rooted at baseURL. doer handles authenticated
// calls; raw handles the credential endpoints and may be nil for a default
// client with a sane timeout.
func NewClient(baseURL string, raw *http.Client, doer ports.RequestDoer) *Client {
	if raw == nil {
		raw = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		raw:     raw,
		doer:    doer,
	}
}

// SetDoer installs the authenticated request path. Wiring needs this
// because the coordinator and the client reference each other.
func (c *Client) SetDoer(doer ports.RequestDoer) {
	c.doer = doer
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// doJSON executes req on the authenticated path and decodes the response
// into target (which may be nil for endpoints without a useful body).
func (c *Client) doJSON(req *http.Request, target any, expectedStatus int) error {
	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != expectedStatus {
		logx.FromContext(req.Context()).Debug("unexpected api status",
			"path", req.URL.Path, "status", resp.StatusCode)
	}
	return decodeJSON(resp, target, expectedStatus)
}

func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp.StatusCode, data)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
