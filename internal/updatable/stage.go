package updatable

import (
	"errors"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
)

// ForwardFunc computes a stage's next Current from one input sample.
type ForwardFunc func(time int64, input array.Array) array.Array

// ReadyFunc decides readiness from the number of samples received.
type ReadyFunc func(samples int) bool

// StageConfig describes a Stage.
type StageConfig struct {
	Name            string
	InputProperties int
	OutputCount     int
	Properties      int
	Forward         ForwardFunc
	Ready           ReadyFunc // nil means ready after the first sample
}

// Stage is an Updatable whose Current is always replaced by Forward.
type Stage struct {
	Base
	name    string
	forward ForwardFunc
	ready   ReadyFunc
}

// NewStage builds a stage from cfg.
func NewStage(cfg StageConfig) (*Stage, error) {
	if cfg.Forward == nil {
		return nil, errors.New("updatable: stage needs a Forward function")
	}
	base, err := NewBase(cfg.InputProperties, cfg.OutputCount, cfg.Properties)
	if err != nil {
		return nil, err
	}
	ready := cfg.Ready
	if ready == nil {
		ready = func(samples int) bool { return samples >= 1 }
	}
	return &Stage{Base: base, name: cfg.Name, forward: cfg.Forward, ready: ready}, nil
}

// WarmUp returns a ReadyFunc that is true from the period-th sample on.
func WarmUp(period int) ReadyFunc {
	return func(samples int) bool { return samples >= period }
}

func (s *Stage) Name() string { return s.name }

func (s *Stage) IsReady() bool { return s.ready(s.samples) }

func (s *Stage) Update(time int64, input array.Array) bool {
	CheckInput(s.name, s.inputProps, input)
	s.CountSample()
	out := s.forward(time, input)
	s.SetCurrent(time, out)
	s.NotifyUpdated(time, out)
	return s.IsReady()
}

func (s *Stage) Reset() {
	s.Clear()
	s.NotifyResetted(s)
}
