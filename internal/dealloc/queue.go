// Package dealloc runs release actions for off-heap memory on a single
// background worker so that disposing an array never pays the free on the
// caller's goroutine.
//
// Posting never blocks: pending releases sit in an unbounded FIFO. A producer
// that allocates off-heap blocks faster than the worker frees them grows
// memory without bound; reuse unmanaged arrays instead of creating them in
// tight loops.
package dealloc

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Hooks observe queue activity. Both are optional and are called without
// the queue lock held: OnEnqueue on the posting goroutine, OnRelease on the
// worker.
type Hooks struct {
	OnEnqueue func(pending int)
	OnRelease func(took time.Duration, pending int)
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for backlog warnings and failed releases.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// WithBacklogWarn logs a warning each time the pending count reaches n.
// Zero disables the warning.
func WithBacklogWarn(n int) Option {
	return func(q *Queue) { q.backlogWarn = n }
}

// WithHooks installs metric hooks.
func WithHooks(h Hooks) Option {
	return func(q *Queue) { q.hooks = h }
}

// token is one queued item: a release action, or a drain barrier.
type token struct {
	release func()
	barrier chan struct{}
}

// Queue is a multi-producer, single-consumer FIFO of release actions.
type Queue struct {
	mu     sync.Mutex
	ring   fifo
	closed bool

	wake chan struct{}
	done chan struct{}

	posted   atomic.Uint64
	released atomic.Uint64
	failed   atomic.Uint64

	log         *slog.Logger
	backlogWarn int
	hooks       Hooks
}

// New creates a queue and starts its worker.
func New(opts ...Option) *Queue {
	q := &Queue{
		ring: newFIFO(64),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	if q.log == nil {
		q.log = slog.Default()
	}
	q.log = q.log.With(slog.String("component", "dealloc"))
	go q.run()
	return q
}

var (
	defaultMu    sync.Mutex
	defaultQueue *Queue
)

// Default returns the process-wide queue, creating it on first use.
// Releases still pending at process exit are best-effort; hosts that care
// call Close during shutdown.
func Default() *Queue {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultQueue == nil {
		defaultQueue = New()
	}
	return defaultQueue
}

// SetDefault installs q as the process-wide queue and returns the previous
// one (nil if none was created yet). The previous queue keeps running until
// its owner closes it.
func SetDefault(q *Queue) *Queue {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultQueue
	defaultQueue = q
	return prev
}

// Post enqueues release and returns immediately. A nil release is ignored.
// After Close the release runs synchronously on the caller.
func (q *Queue) Post(release func()) {
	if release == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.posted.Add(1)
		q.exec(release, 0)
		return
	}
	q.ring.push(token{release: release})
	pending := q.ring.releases
	q.mu.Unlock()

	q.posted.Add(1)
	q.signal()

	if q.backlogWarn > 0 && pending == q.backlogWarn {
		q.log.Warn("release backlog growing", slog.Int("pending", pending))
	}
	if q.hooks.OnEnqueue != nil {
		q.hooks.OnEnqueue(pending)
	}
}

// Pending returns the number of queued releases.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.releases
}

// Posted returns the number of releases ever accepted.
func (q *Queue) Posted() uint64 { return q.posted.Load() }

// Released returns the number of releases the worker has run.
func (q *Queue) Released() uint64 { return q.released.Load() }

// Failed returns the number of releases that panicked.
func (q *Queue) Failed() uint64 { return q.failed.Load() }

// Drain blocks until every release posted before the call has run, or ctx
// is done.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		select {
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	barrier := make(chan struct{})
	q.ring.push(token{barrier: barrier})
	q.mu.Unlock()
	q.signal()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, waits for the worker to run everything that
// is queued and stops it. If ctx ends first the worker keeps draining in the
// background and ctx's error is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()
	q.signal()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		t, ok := q.ring.pop()
		closed := q.closed
		pending := q.ring.releases
		q.mu.Unlock()

		if !ok {
			if closed {
				return
			}
			<-q.wake
			continue
		}
		if t.barrier != nil {
			close(t.barrier)
			continue
		}
		q.exec(t.release, pending)
	}
}

func (q *Queue) exec(release func(), pending int) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			q.log.Error("release panicked", slog.Any("panic", r))
		}
		q.released.Add(1)
		if q.hooks.OnRelease != nil {
			q.hooks.OnRelease(time.Since(start), pending)
		}
	}()
	release()
}
