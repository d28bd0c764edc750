package checkpoint

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // calls pass through
	BreakerOpen                         // calls are rejected
	BreakerHalfOpen                     // one probe call is let through
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned while a Breaker rejects calls.
var ErrBreakerOpen = errors.New("checkpoint: circuit breaker is open")

// Breaker guards a checkpoint store. After maxFailures consecutive
// failures it rejects calls for resetTimeout. The first call after that is
// a trial: while it runs every other call is rejected, its success closes
// the breaker and its failure reopens it for another resetTimeout.
type Breaker struct {
	mu           sync.Mutex
	state        BreakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	openedAt     time.Time
	trial        bool
	now          func() time.Time

	// OnStateChange is called on every transition, with the lock held.
	OnStateChange func(from, to BreakerState)
}

// NewBreaker creates a closed breaker. maxFailures below 1 is treated as 1.
func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{maxFailures: max(maxFailures, 1), resetTimeout: resetTimeout, now: time.Now}
}

// Execute runs fn if the breaker admits the call and records its outcome.
func (b *Breaker) Execute(fn func() error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.settle(trial, err)
	return err
}

// admit decides whether a call may run. trial is true for the single call
// let through once the open period has elapsed.
func (b *Breaker) admit() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerClosed:
		return false, nil
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return false, ErrBreakerOpen
		}
		b.transition(BreakerHalfOpen)
	}
	if b.trial {
		return false, ErrBreakerOpen
	}
	b.trial = true
	return true, nil
}

func (b *Breaker) settle(trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if trial {
		b.trial = false
		if err != nil {
			b.trip()
		} else {
			b.transition(BreakerClosed)
		}
		return
	}
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.state == BreakerClosed && b.failures >= b.maxFailures {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.transition(BreakerOpen)
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
