package application

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

// RefreshOptions tunes the coordinator. Zero values fall back to defaults.
type RefreshOptions struct {
	// Interval is the proactive refresh cadence while a session is active.
	Interval time.Duration

	// ExpirySkew pulls the proactive refresh forward so it lands before the
	// access token's exp claim rather than after.
	ExpirySkew time.Duration

	HTTPClient *http.Client
	Clock      ports.Clock
	Logger     *slog.Logger

	// OnSessionExpired fires once the session has been cleared after an
	// irrecoverable refresh failure. Callers typically return the user
	// to the login flow here.
	OnSessionExpired func()
}

const (
	defaultRefreshInterval = 15 * time.Minute
	defaultExpirySkew      = time.Minute
	minProactiveDelay      = time.Second
)

// RefreshCoordinator guarantees at most one in-flight token refresh. It
// fronts every REST call: requests go out with the current access token,
// a 401 on an active session triggers exactly one refresh-then-replay, and
// concurrent 401s share the outcome of the single refresh instead of
// racing to start their own.
type RefreshCoordinator struct {
	creds *CredentialStore
	auth  ports.AuthAPI
	http  *http.Client
	clock ports.Clock
	log   *slog.Logger

	interval  time.Duration
	skew      time.Duration
	onExpired func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan error

	stopOnce sync.Once
	stop     chan struct{}
}

var _ ports.RequestDoer = (*RefreshCoordinator)(nil)

func NewRefreshCoordinator(creds *CredentialStore, auth ports.AuthAPI, opts RefreshOptions) *RefreshCoordinator {
	if opts.Interval <= 0 {
		opts.Interval = defaultRefreshInterval
	}
	if opts.ExpirySkew <= 0 {
		opts.ExpirySkew = defaultExpirySkew
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &RefreshCoordinator{
		creds:     creds,
		auth:      auth,
		http:      opts.HTTPClient,
		clock:     opts.Clock,
		log:       opts.Logger,
		interval:  opts.Interval,
		skew:      opts.ExpirySkew,
		onExpired: opts.OnSessionExpired,
		stop:      make(chan struct{}),
	}
}

// Do executes req with the current access token attached. On 401 with an
// active session it waits for a (possibly already in-flight) refresh and
// replays the request exactly once; the replay's response is returned as-is,
// so a second 401 surfaces to the caller instead of looping.
func (c *RefreshCoordinator) Do(req *http.Request) (*http.Response, error) {
	if token := c.creds.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if !c.creds.Active() {
		closeBody(resp)
		return nil, domain.ErrUnauthenticated
	}
	if req.Body != nil && req.GetBody == nil {
		// The body is gone and cannot be rebuilt, so a replay is impossible.
		return resp, nil
	}
	closeBody(resp)

	if err := c.Refresh(req.Context()); err != nil {
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	retry.Header.Set("Authorization", "Bearer "+c.creds.AccessToken())

	return c.http.Do(retry)
}

// Refresh performs or joins the single in-flight refresh. Concurrent
// callers are queued and settle with the same outcome, in FIFO order, only
// after the credential store has been updated.
func (c *RefreshCoordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	err := c.refreshOnce(ctx)

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}

	return err
}

func (c *RefreshCoordinator) refreshOnce(ctx context.Context) error {
	gen := c.creds.Generation()
	refreshToken := c.creds.RefreshToken()
	if refreshToken == "" {
		return domain.ErrSessionExpired
	}

	pair, err := c.auth.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// An aborted call says nothing about the refresh token.
			return err
		}
		c.log.Warn("token refresh rejected, expiring session", "err", err)
		c.expire()
		return errors.Join(domain.ErrSessionExpired, err)
	}

	if err := c.creds.UpdateTokens(ctx, gen, pair); err != nil {
		if errors.Is(err, domain.ErrStaleRefresh) {
			c.log.Debug("discarding refresh that completed after logout")
			return domain.ErrSessionExpired
		}
		return err
	}

	return nil
}

// expire clears the session and notifies the login surface. The hook runs
// without the coordinator lock held.
func (c *RefreshCoordinator) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.creds.Clear(ctx); err != nil {
		c.log.Warn("clearing session after failed refresh", "err", err)
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

// Start launches the proactive refresh loop. It shares Refresh's
// single-flight path, so a proactive tick never races a reactive refresh
// triggered at the same moment.
func (c *RefreshCoordinator) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *RefreshCoordinator) run(ctx context.Context) {
	timer := c.clock.NewTimer(c.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-timer.C():
			if c.creds.Active() {
				if err := c.Refresh(ctx); err != nil {
					c.log.Warn("proactive refresh failed", "err", err)
				}
			}
			timer.Reset(c.nextDelay())
		}
	}
}

// nextDelay is the configured interval, clamped so a token that expires
// sooner gets refreshed before its exp claim.
func (c *RefreshCoordinator) nextDelay() time.Duration {
	delay := c.interval
	if exp, ok := c.creds.TokenExpiry(); ok {
		if until := exp.Sub(c.clock.Now()) - c.skew; until > 0 && until < delay {
			delay = until
		}
	}
	if delay < minProactiveDelay {
		delay = minProactiveDelay
	}
	return delay
}

// Stop halts the proactive loop. Idempotent.
func (c *RefreshCoordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

func closeBody(resp *http.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}
