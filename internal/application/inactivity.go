package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
	"golang.org/x/time/rate"
)

type InactivityState int

const (
	InactivityActive InactivityState = iota
	InactivityWarning
	InactivityExpired
)

func (s InactivityState) String() string {
	switch s {
	case InactivityWarning:
		return "warning"
	case InactivityExpired:
		return "expired"
	default:
		return "active"
	}
}

// SessionRefresher is the slice of the coordinator the monitor needs to
// extend a session from the warning prompt.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

type InactivityOptions struct {
	// WarnAfter is how long the user may be idle before the warning fires.
	WarnAfter time.Duration

	// GracePeriod is how long the warning stays up before the session is
	// force-expired.
	GracePeriod time.Duration

	// ActivityThrottle coalesces the activity signal; pointer movement can
	// arrive hundreds of times a second and only the first one per window
	// needs to reset the idle timer.
	ActivityThrottle time.Duration

	Clock  ports.Clock
	Logger *slog.Logger

	// OnWarning fires on the Active -> Warning transition.
	OnWarning func()

	// OnExpired fires exactly once when the session is force-expired. The
	// wiring clears credentials and returns the user to the login surface.
	OnExpired func()
}

const (
	defaultWarnAfter        = 18 * time.Minute
	defaultGracePeriod      = 2 * time.Minute
	defaultActivityThrottle = time.Second
)

// InactivityMonitor is the idle-session state machine:
//
//	Active -(idle WarnAfter)-> Warning -(idle GracePeriod)-> Expired
//
// Activity resets the idle timer only while Active; once the warning is up,
// dismissing it takes an explicit Confirm so passive mouse movement cannot
// keep a session alive by accident. Expired is terminal.
type InactivityMonitor struct {
	refresher SessionRefresher
	clock     ports.Clock
	log       *slog.Logger
	limiter   *rate.Limiter

	warnAfter time.Duration
	grace     time.Duration
	onWarning func()
	onExpired func()

	mu         sync.Mutex
	state      InactivityState
	started    bool
	warnTimer  ports.Timer
	graceTimer ports.Timer
}

func NewInactivityMonitor(refresher SessionRefresher, opts InactivityOptions) *InactivityMonitor {
	if opts.WarnAfter <= 0 {
		opts.WarnAfter = defaultWarnAfter
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}
	if opts.ActivityThrottle <= 0 {
		opts.ActivityThrottle = defaultActivityThrottle
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &InactivityMonitor{
		refresher: refresher,
		clock:     opts.Clock,
		log:       opts.Logger,
		limiter:   rate.NewLimiter(rate.Every(opts.ActivityThrottle), 1),
		warnAfter: opts.WarnAfter,
		grace:     opts.GracePeriod,
		onWarning: opts.OnWarning,
		onExpired: opts.OnExpired,
	}
}

func (m *InactivityMonitor) State() InactivityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start arms the idle timer. Calling Start on a running or expired monitor
// is a no-op.
func (m *InactivityMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.state == InactivityExpired {
		return
	}
	m.started = true
	m.state = InactivityActive
	m.warnTimer = m.clock.AfterFunc(m.warnAfter, m.toWarning)
}

// Activity records a user-activity signal. Only meaningful while Active;
// in Warning the signal is deliberately ignored.
func (m *InactivityMonitor) Activity() {
	if !m.limiter.Allow() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InactivityActive || m.warnTimer == nil {
		return
	}
	m.warnTimer.Reset(m.warnAfter)
}

func (m *InactivityMonitor) toWarning() {
	m.mu.Lock()
	if m.state != InactivityActive || !m.started {
		m.mu.Unlock()
		return
	}
	m.state = InactivityWarning
	m.graceTimer = m.clock.AfterFunc(m.grace, m.toExpired)
	warn := m.onWarning
	m.mu.Unlock()

	m.log.Info("session idle, warning before forced expiry", "grace", m.grace)
	if warn != nil {
		warn()
	}
}

// Confirm is the explicit "continue session" action from the warning
// prompt. It extends the session through the coordinator; a failed refresh
// falls through to Expired.
func (m *InactivityMonitor) Confirm(ctx context.Context) error {
	m.mu.Lock()
	if m.state != InactivityWarning || !m.started {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.refresher.Refresh(ctx); err != nil {
		m.log.Warn("continue-session refresh failed", "err", err)
		m.toExpired()
		return err
	}

	m.mu.Lock()
	// Stop may have landed while the refresh was in flight; its timers are
	// gone and there is nothing left to re-arm.
	if m.state == InactivityWarning && m.warnTimer != nil {
		m.state = InactivityActive
		if m.graceTimer != nil {
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
		// Idle clock restarts from zero on a successful extension.
		m.warnTimer.Reset(m.warnAfter)
	}
	m.mu.Unlock()

	return nil
}

// Expire is the explicit "log out" action from the warning prompt.
func (m *InactivityMonitor) Expire() {
	m.toExpired()
}

func (m *InactivityMonitor) toExpired() {
	m.mu.Lock()
	if m.state == InactivityExpired {
		m.mu.Unlock()
		return
	}
	m.state = InactivityExpired
	m.stopTimersLocked()
	expired := m.onExpired
	m.mu.Unlock()

	m.log.Info("session expired after inactivity")
	if expired != nil {
		expired()
	}
}

// Stop cancels all timers without transitioning state. Called on logout and
// teardown so no timer fires against a destroyed session.
func (m *InactivityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = false
	m.stopTimersLocked()
}

func (m *InactivityMonitor) stopTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
}
