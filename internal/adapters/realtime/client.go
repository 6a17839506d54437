// Package realtime owns the one push-channel connection per logged-in
// user. Inbound events are decoded and handed to subscribers in arrival
// order; the core never sends application messages over the channel.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxEventBytes = 1 << 20
)

type Options struct {
	// Reconnect enables exponential-backoff reconnection after an
	// unexpected drop. Off by default; the baseline design leaves a dropped
	// connection down until the next login.
	Reconnect        bool
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration

	Dialer *websocket.Dialer
	Logger *slog.Logger
}

// Client maintains the websocket connection for one user id.
type Client struct {
	baseURL   string
	dialer    *websocket.Dialer
	log       *slog.Logger
	reconnect bool
	minWait   time.Duration
	maxWait   time.Duration

	mu     sync.Mutex
	state  domain.ConnectionState
	conn   *websocket.Conn
	closed bool

	events    chan domain.RealtimeEvent
	closeOnce sync.Once
	done      chan struct{}
	readers   sync.WaitGroup
}

// NewClient takes the websocket base URL, e.g. "ws://host:8080".
func NewClient(baseURL string, opts Options) *Client {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReconnectMinWait <= 0 {
		opts.ReconnectMinWait = time.Second
	}
	if opts.ReconnectMaxWait <= 0 {
		opts.ReconnectMaxWait = 30 * time.Second
	}

	return &Client{
		baseURL:   baseURL,
		dialer:    opts.Dialer,
		log:       opts.Logger,
		reconnect: opts.Reconnect,
		minWait:   opts.ReconnectMinWait,
		maxWait:   opts.ReconnectMaxWait,
		events:    make(chan domain.RealtimeEvent),
		done:      make(chan struct{}),
	}
}

func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events is the typed inbound channel. It closes when the client shuts
// down for good.
func (c *Client) Events() <-chan domain.RealtimeEvent {
	return c.events
}

// Connect dials the channel for userID, authenticating with token. Only
// call after login, when the user id is known.
func (c *Client) Connect(ctx context.Context, userID, token string) error {
	if userID == "" {
		return fmt.Errorf("realtime connect: user id is empty")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("realtime connect: client closed")
	}
	c.state = domain.ConnectionConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx, userID, token)
	if err != nil {
		c.setState(domain.ConnectionDisconnected)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = domain.ConnectionConnected
	c.mu.Unlock()

	connID := uuid.NewString()
	c.log.Info("realtime channel connected", "user_id", userID, "conn_id", connID)
	c.readers.Add(1)
	go func() {
		defer c.readers.Done()
		c.readLoop(ctx, conn, userID, token, connID)
	}()

	return nil
}

func (c *Client) dial(ctx context.Context, userID, token string) (*websocket.Conn, error) {
	addr := fmt.Sprintf("%s/ws/chat/%s?token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(token))

	conn, resp, err := c.dialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("realtime dial: %w", err)
	}

	conn.SetReadLimit(maxEventBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return conn, nil
}

// readLoop delivers events strictly in arrival order. On error the state
// drops to Disconnected; with Reconnect enabled the loop re-dials with
// exponential backoff instead of giving up.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, userID, token, connID string) {
	go c.pingLoop(conn)

	for {
		var ev domain.RealtimeEvent
		if err := conn.ReadJSON(&ev); err != nil {
			c.setState(domain.ConnectionDisconnected)
			if c.isClosed() {
				return
			}
			c.log.Warn("realtime channel dropped", "conn_id", connID, "err", err)

			if !c.reconnect {
				return
			}
			next, ok := c.redial(ctx, userID, token)
			if !ok {
				return
			}
			conn = next
			connID = uuid.NewString()
			c.log.Info("realtime channel reconnected", "user_id", userID, "conn_id", connID)
			go c.pingLoop(conn)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) redial(ctx context.Context, userID, token string) (*websocket.Conn, bool) {
	wait := c.minWait
	for {
		select {
		case <-time.After(wait):
		case <-c.done:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}

		c.setState(domain.ConnectionConnecting)
		conn, err := c.dial(ctx, userID, token)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.state = domain.ConnectionConnected
			c.mu.Unlock()
			return conn, true
		}

		c.setState(domain.ConnectionDisconnected)
		c.log.Warn("realtime reconnect failed", "err", err, "next_wait", wait)
		wait *= 2
		if wait > c.maxWait {
			wait = c.maxWait
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// Close tears the connection down explicitly (logout or navigation away)
// and closes the event channel. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.state = domain.ConnectionDisconnected
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		close(c.done)
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
		}
		// The events channel only closes once the read loop has stopped
		// sending, otherwise a racing send would panic.
		c.readers.Wait()
		close(c.events)
	})
}

func (c *Client) setState(state domain.ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
