package application

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/domain"
	"github.com/AmineMekki01/healthcare-management-platform-sub002/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo is an in-memory ports.SessionRepository.
type memRepo struct {
	mu      sync.Mutex
	session domain.Session
	stored  bool

	saveErr error
}

func (r *memRepo) Load(ctx context.Context) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stored {
		return domain.Session{}, domain.ErrNoSession
	}
	return r.session, nil
}

func (r *memRepo) Save(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.session = session
	r.stored = true
	return nil
}

func (r *memRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = domain.Session{}
	r.stored = false
	return nil
}

// fakeAuth counts refresh calls and can block on a gate until released.
type fakeAuth struct {
	mu         sync.Mutex
	refreshes  int
	logins     int
	session    domain.Session
	pair       domain.TokenPair
	refreshErr error
	gate       chan struct{}
}

func (a *fakeAuth) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	a.mu.Lock()
	a.logins++
	session := a.session
	a.mu.Unlock()
	return session, nil
}

func (a *fakeAuth) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	a.mu.Lock()
	a.refreshes++
	gate := a.gate
	pair, err := a.pair, a.refreshErr
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.TokenPair{}, ctx.Err()
		}
	}
	return pair, err
}

func (a *fakeAuth) refreshCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshes
}

// fakeSender records sent messages and can block on a gate.
type fakeSender struct {
	mu      sync.Mutex
	sent    []domain.Message
	sendErr error
	gate    chan struct{}
}

func (s *fakeSender) SendMessage(ctx context.Context, msg domain.Message) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) sentMessages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.sent...)
}

// fakeClock is a deterministic ports.Clock. Advance moves time forward and
// fires every timer whose deadline has passed, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) ports.Timer {
	return c.addTimer(d, nil)
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	return c.addTimer(d, f)
}

func (c *fakeClock) addTimer(d time.Duration, f func()) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{
		clock:    c,
		deadline: c.now.Add(d),
		fn:       f,
		ch:       make(chan time.Time, 1),
		active:   true,
	}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) timerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	due := make([]*fakeTimer, 0)
	for _, t := range c.timers {
		if t.active && !t.deadline.After(now) {
			t.active = false
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	c.mu.Unlock()

	for _, t := range due {
		if t.fn != nil {
			t.fn()
		} else {
			select {
			case t.ch <- now:
			default:
			}
		}
	}
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	ch       chan time.Time
	active   bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.deadline = t.clock.now.Add(d)
	t.active = true
	return was
}
