// Package pipeline wires windows and running extrema over one stream of
// samples and makes them checkpointable.
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/checkpoint"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/dealloc"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/history"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/metrics"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/updatable"
)

// ErrBadSample is returned for samples of the wrong width.
var ErrBadSample = errors.New("pipeline: bad sample")

// Sample is one input row.
type Sample struct {
	Time   int64     `json:"time"`
	Values []float64 `json:"values"`
}

// Config describes a pipeline.
type Config struct {
	WindowSizes []int
	Properties  int
	HighsKept   int // recent new highs kept for readers; default 16
	Queue       *dealloc.Queue
	Metrics     *metrics.Metrics // optional
}

// Pipeline feeds every sample to one ArrayWindow per size and to a running
// max and min of property 0. Updates and checkpoints are serialized by one
// mutex; the highs recorder can be read without it.
type Pipeline struct {
	mu sync.Mutex

	props   int
	input   *array.Unmanaged
	windows []*history.ArrayWindow
	max     *updatable.Extremum
	min     *updatable.Extremum
	highs   *history.Recorder
	reg     *checkpoint.Registry
	fed     int64
	subs    []updatable.Subscription
}

// New builds the stages and registers them for checkpoints as
// "window_<size>", "max" and "min".
func New(cfg Config) (*Pipeline, error) {
	if len(cfg.WindowSizes) == 0 {
		return nil, errors.New("pipeline: no window sizes")
	}
	if cfg.HighsKept <= 0 {
		cfg.HighsKept = 16
	}
	var opts []array.UnmanagedOption
	if cfg.Queue != nil {
		opts = append(opts, array.OnQueue(cfg.Queue))
	}
	input, err := array.NewUnmanaged(1, cfg.Properties, opts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: input buffer: %w", err)
	}

	p := &Pipeline{props: cfg.Properties, input: input, reg: checkpoint.NewRegistry()}
	fail := func(err error) (*Pipeline, error) {
		p.Close()
		return nil, err
	}

	for _, size := range cfg.WindowSizes {
		w, err := history.NewArrayWindow(size, cfg.Properties)
		if err != nil {
			return fail(err)
		}
		name := "window_" + strconv.Itoa(size)
		if err := p.reg.Register(name, checkpoint.WrapArrayWindow(w)); err != nil {
			return fail(err)
		}
		if cfg.Metrics != nil {
			cfg.Metrics.InstrumentWindow(name, w)
			p.subs = append(p.subs, cfg.Metrics.Instrument(name, w))
		}
		p.windows = append(p.windows, w)
	}

	if p.max, err = updatable.NewMax(cfg.Properties, 0); err != nil {
		return fail(err)
	}
	if p.min, err = updatable.NewMin(cfg.Properties, 0); err != nil {
		return fail(err)
	}
	if p.highs, err = history.NewRecorder(cfg.HighsKept, cfg.Properties); err != nil {
		return fail(err)
	}
	p.subs = append(p.subs, updatable.Connect(p.max, p.highs))

	for name, e := range map[string]*updatable.Extremum{"max": p.max, "min": p.min} {
		if err := p.reg.Register(name, checkpoint.WrapExtremum(e)); err != nil {
			return fail(err)
		}
		if cfg.Metrics != nil {
			p.subs = append(p.subs, cfg.Metrics.Instrument(name, e))
		}
	}
	return p, nil
}

// Registry returns the checkpoint registry. Capture and Apply must run
// inside Do.
func (p *Pipeline) Registry() *checkpoint.Registry { return p.reg }

// Do runs fn with updates held off.
func (p *Pipeline) Do(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Feed pushes one sample through every stage.
func (p *Pipeline) Feed(s Sample) error {
	if len(s.Values) != p.props {
		return fmt.Errorf("%w: %d values, want %d", ErrBadSample, len(s.Values), p.props)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.input.Disposed() {
		return errors.New("pipeline: closed")
	}
	copy(p.input.Row(0), s.Values)
	for _, w := range p.windows {
		w.Update(s.Time, p.input)
	}
	p.max.Update(s.Time, p.input)
	p.min.Update(s.Time, p.input)
	p.fed++
	return nil
}

// Fed returns the number of samples accepted.
func (p *Pipeline) Fed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fed
}

// Highs returns the recent new maxima, newest first. Safe to call
// concurrently with Feed.
func (p *Pipeline) Highs() []array.Array { return p.highs.Window().Snapshot() }

// Reset clears every stage.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.windows {
		w.Reset()
	}
	p.max.Reset()
	p.min.Reset()
	p.fed = 0
}

// Close disconnects the stages and releases the input buffer.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subs {
		s.Unsubscribe()
	}
	p.subs = nil
	p.input.Dispose()
}
