// Package updatable defines the contract shared by every streaming stage:
// producers call Update with a timestamped array, the stage recomputes its
// Current value and notifies subscribers.
//
// Everything runs synchronously on the caller's goroutine. Update completes
// before it returns, callbacks run inline in subscription order, and a
// callback may itself call Update on another stage. Stages are not safe for
// concurrent use.
package updatable

import "github.com/barbagrigia/FinanceSharp-sub001/internal/array"

// UpdatedFunc receives the stage's new (time, value) pair.
type UpdatedFunc func(time int64, value array.Array)

// ResettedFunc receives the stage that was reset.
type ResettedFunc func(u Updatable)

// Updatable is a streaming stage. Times are epoch milliseconds.
type Updatable interface {
	// Update feeds one sample and reports readiness after the update.
	Update(time int64, input array.Array) bool
	// Reset returns the stage to its construction state.
	Reset()

	Current() array.Array
	CurrentTime() int64
	Samples() int
	IsReady() bool

	InputProperties() int
	OutputCount() int
	Properties() int

	OnUpdated(fn UpdatedFunc) Subscription
	OnResetted(fn ResettedFunc) Subscription
}

// Phase is the lifecycle position of a stage.
type Phase uint8

const (
	Uninitialized Phase = iota // no samples
	Accumulating               // samples received, not ready
	Ready
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Accumulating:
		return "accumulating"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// PhaseOf reports where u is in its lifecycle.
func PhaseOf(u Updatable) Phase {
	switch {
	case u.IsReady():
		return Ready
	case u.Samples() == 0:
		return Uninitialized
	default:
		return Accumulating
	}
}

// Connect pipes src into dst: every update of src is fed to dst.Update and
// every reset of src resets dst. Unsubscribe the result to disconnect.
func Connect(src, dst Updatable) Subscription {
	up := src.OnUpdated(func(time int64, value array.Array) {
		dst.Update(time, value)
	})
	rs := src.OnResetted(func(Updatable) {
		dst.Reset()
	})
	return Join(up, rs)
}
