package history

import (
	"fmt"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/updatable"
)

// Recorder is a stage that keeps private copies of its inputs in a Window,
// so other goroutines can read a stage's recent outputs while it runs.
// Connect it downstream of the stage to record.
type Recorder struct {
	updatable.Base
	window *Window[array.Array]
}

// NewRecorder records the last size inputs of props properties.
func NewRecorder(size, props int) (*Recorder, error) {
	if size < 1 {
		return nil, fmt.Errorf("history: recorder size %d < 1", size)
	}
	base, err := updatable.NewBase(props, 1, props)
	if err != nil {
		return nil, fmt.Errorf("history: recorder: %w", err)
	}
	return &Recorder{Base: base, window: NewWindow[array.Array](size)}, nil
}

// Window returns the backing window. It is safe to read concurrently with
// Update.
func (r *Recorder) Window() *Window[array.Array] { return r.window }

func (r *Recorder) IsReady() bool { return r.window.IsReady() }

func (r *Recorder) Update(time int64, input array.Array) bool {
	updatable.CheckInput("recorder", r.InputProperties(), input)
	r.CountSample()
	v := input.Clone()
	r.window.Add(v)
	r.SetCurrent(time, v)
	r.NotifyUpdated(time, v)
	return r.IsReady()
}

func (r *Recorder) Reset() {
	r.window.Reset()
	r.Clear()
	r.NotifyResetted(r)
}

var _ updatable.Updatable = (*Recorder)(nil)
