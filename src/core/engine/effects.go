package engine

import (
	"context"
	"sync"

	"mindscale/src/core/domain"
)

// delivery is one queued message. userID zero means the group.
type delivery struct {
	groupID  int64
	userID   int64
	notice   domain.Notice
	fallback *domain.Notice
}

// outbox collects the side effects of one transition. It is filled under the
// engine mutex and flushed by the delivery goroutine.
type outbox struct {
	deliveries []delivery
	results    []domain.GameResult
}

func (o *outbox) group(n domain.Notice) {
	o.deliveries = append(o.deliveries, delivery{groupID: n.GroupID, notice: n})
}

// user queues a direct message. When it cannot be delivered the fallback,
// if any, goes to the group instead.
func (o *outbox) user(userID int64, n domain.Notice, fallback *domain.Notice) {
	o.deliveries = append(o.deliveries, delivery{groupID: n.GroupID, userID: userID, notice: n, fallback: fallback})
}

func (o *outbox) persist(r domain.GameResult) {
	o.results = append(o.results, r)
}

func (o *outbox) empty() bool {
	return len(o.deliveries) == 0 && len(o.results) == 0
}

// job is one unit of work for the delivery goroutine. A job with a barrier
// only signals that everything queued before it has been flushed.
type job struct {
	ctx     context.Context
	fx      *outbox
	barrier chan struct{}
}

// mailbox is an unbounded FIFO of jobs. push never blocks, so it is safe to
// call with the engine mutex held.
type mailbox struct {
	mu     sync.Mutex
	jobs   []job
	wake   chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

// push enqueues j. It reports false once the mailbox is closed.
func (q *mailbox) push(j job) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()

	q.signal()
	return true
}

// take removes every queued job.
func (q *mailbox) take() ([]job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.jobs
	q.jobs = nil
	return jobs, q.closed
}

func (q *mailbox) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *mailbox) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run executes fn inside the serialized section and queues what it produced.
// Queuing happens before the mutex is released, so effects are delivered in
// transition order without holding the state lock during I/O.
func (e *Engine) run(ctx context.Context, fn func(fx *outbox) error) error {
	fx := &outbox{}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(fx)
	if !fx.empty() && !e.outq.push(job{ctx: context.WithoutCancel(ctx), fx: fx}) {
		e.log.Warn("engine closed, effects dropped", "notices", len(fx.deliveries), "results", len(fx.results))
	}
	return err
}

// deliverLoop flushes queued effects one job at a time until the mailbox is
// closed and empty.
func (e *Engine) deliverLoop() {
	defer close(e.stopped)
	for {
		jobs, closed := e.outq.take()
		for _, j := range jobs {
			if j.barrier != nil {
				close(j.barrier)
				continue
			}
			e.flush(j.ctx, j.fx)
		}
		if len(jobs) > 0 {
			continue
		}
		if closed {
			return
		}
		<-e.outq.wake
	}
}

// Drain blocks until every effect queued so far has been delivered.
func (e *Engine) Drain() {
	done := make(chan struct{})
	if !e.outq.push(job{barrier: done}) {
		<-e.stopped
		return
	}
	<-done
}

func (e *Engine) flush(ctx context.Context, fx *outbox) {
	for _, d := range fx.deliveries {
		e.deliver(ctx, d)
	}
	for _, r := range fx.results {
		e.persist(ctx, r)
	}
}

func (e *Engine) deliver(ctx context.Context, d delivery) {
	if e.messenger == nil {
		return
	}
	if d.userID == 0 {
		if err := e.call(ctx, func(ctx context.Context) error {
			return e.messenger.SendToGroup(ctx, d.groupID, d.notice)
		}); err != nil {
			e.log.Warn("group notice not delivered", "group_id", d.groupID, "kind", d.notice.Kind, "error", err)
		}
		return
	}

	err := e.call(ctx, func(ctx context.Context) error {
		return e.messenger.SendToUser(ctx, d.userID, d.notice)
	})
	if err == nil {
		return
	}
	e.log.Warn("direct notice not delivered", "user_id", d.userID, "kind", d.notice.Kind, "error", err)
	if d.fallback != nil {
		e.deliver(ctx, delivery{groupID: d.fallback.GroupID, notice: *d.fallback})
	}
}

func (e *Engine) persist(ctx context.Context, r domain.GameResult) {
	if e.results == nil {
		return
	}
	err := e.call(ctx, func(ctx context.Context) error {
		return e.results.PersistGameResult(ctx, r)
	})
	if err != nil {
		e.log.Error("failed to persist game result", "game_id", r.GameID, "group_id", r.GroupID, "error", err)
		return
	}
	e.log.Info("game result persisted", "game_id", r.GameID, "group_id", r.GroupID, "players", len(r.Players))
}

// call bounds one collaborator call by the configured timeout.
func (e *Engine) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.settings.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.settings.CallTimeout)
		defer cancel()
	}
	return fn(ctx)
}
