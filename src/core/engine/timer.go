package engine

import (
	"context"
	"time"
)

// Stopper stops a pending callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Clock is the engine's source of time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// timer is a cancellable handle. Its fields are only touched under the
// engine mutex, so a callback that already left the clock still sees a
// cancellation made before it got the lock.
type timer struct {
	stop      Stopper
	cancelled bool
	fired     bool
}

// Cancel is idempotent and safe on a nil handle.
func (t *timer) Cancel() {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	if t.stop != nil {
		t.stop.Stop()
	}
}

// live reports whether the handle may still act.
func (t *timer) live() bool {
	return t != nil && !t.cancelled && !t.fired
}

// schedule arms fn to run after d inside the serialized section. Must be
// called with e.mu held. fn runs at most once and never after Cancel.
func (e *Engine) schedule(d time.Duration, fn func(fx *outbox)) *timer {
	if d < 0 {
		d = 0
	}
	t := &timer{}
	t.stop = e.clock.AfterFunc(d, func() {
		_ = e.run(context.Background(), func(fx *outbox) error {
			if !t.live() {
				return nil
			}
			t.fired = true
			fn(fx)
			return nil
		})
	})
	return t
}

// lobbyTimers are the join-phase handles of one match. deadline is the epoch
// every lobby callback checks before acting.
type lobbyTimers struct {
	deadline time.Time
	expiry   *timer
	alerts   []*timer
}

func (l *lobbyTimers) cancel() {
	l.expiry.Cancel()
	for _, t := range l.alerts {
		t.Cancel()
	}
	l.expiry = nil
	l.alerts = nil
}

// playerTimers are one player's handles for the current round.
type playerTimers struct {
	timeout *timer
	alerts  []*timer
}

func (p *playerTimers) cancel() {
	if p == nil {
		return
	}
	p.timeout.Cancel()
	for _, t := range p.alerts {
		t.Cancel()
	}
}
