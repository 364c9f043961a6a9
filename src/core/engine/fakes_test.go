package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
)

// manualClock fires callbacks only when advanced.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{c: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Advance moves time forward, firing due callbacks in order. Callbacks run
// without the clock lock so they may schedule more timers.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.pending {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// Active counts timers that can still fire.
func (c *manualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recorder captures notices. Reads wait for the engine to deliver everything
// queued so far.
type recorder struct {
	sync      func()
	mu        sync.Mutex
	groups    []domain.Notice
	users     map[int64][]domain.Notice
	failUsers map[int64]bool
}

func newRecorder() *recorder {
	return &recorder{users: make(map[int64][]domain.Notice), failUsers: make(map[int64]bool)}
}

func (r *recorder) SendToUser(_ context.Context, userID int64, n domain.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUsers[userID] {
		return errors.New("user blocked the bot")
	}
	r.users[userID] = append(r.users[userID], n)
	return nil
}

func (r *recorder) SendToGroup(_ context.Context, _ int64, n domain.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, n)
	return nil
}

func (r *recorder) settle() {
	if r.sync != nil {
		r.sync()
	}
}

func (r *recorder) group(kind domain.NoticeKind) []domain.Notice {
	r.settle()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notice
	for _, n := range r.groups {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) user(userID int64, kind domain.NoticeKind) []domain.Notice {
	r.settle()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notice
	for _, n := range r.users[userID] {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type staticRoles map[int64]domain.Role

func (s staticRoles) ResolveGroupMembership(_ context.Context, _ int64, userID int64) (domain.Role, error) {
	if role, ok := s[userID]; ok {
		return role, nil
	}
	return domain.RoleMember, nil
}

type resultStore struct {
	sync    func()
	mu      sync.Mutex
	results []domain.GameResult
}

func (s *resultStore) PersistGameResult(_ context.Context, r domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *resultStore) all() []domain.GameResult {
	if s.sync != nil {
		s.sync()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GameResult(nil), s.results...)
}

const (
	testGroup = int64(-1001)
	adminID   = int64(99)
)

type harness struct {
	engine   *Engine
	clock    *manualClock
	messages *recorder
	results  *resultStore
}

func newHarness(t *testing.T, settings Settings) *harness {
	t.Helper()
	results := &resultStore{}
	h := newHarnessWith(t, settings, results)
	h.results = results
	results.sync = h.engine.Drain
	return h
}

// newHarnessWith builds a harness whose results go to store.
func newHarnessWith(t *testing.T, settings Settings, store ports.ResultRecorder) *harness {
	t.Helper()
	h := &harness{
		clock:    newManualClock(),
		messages: newRecorder(),
	}
	h.engine = New(settings, Deps{
		Messenger: h.messages,
		Members:   staticRoles{adminID: domain.RoleAdministrator},
		Results:   store,
		Clock:     h.clock,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.messages.sync = h.engine.Drain
	t.Cleanup(h.engine.Close)
	return h
}

func user(id int64) domain.User {
	return domain.User{ID: id, Name: "player" + string(rune('A'+id-1))}
}
