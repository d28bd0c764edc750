package updatable

import (
	"fmt"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
)

// Base carries the state every stage shares: the shape contract, the
// sample counter, the current value and the subscriber lists. Stages embed
// it and add Update, Reset and IsReady.
type Base struct {
	Notifier

	inputProps  int
	outputCount int
	props       int

	samples     int
	current     array.Array
	currentTime int64
}

// NewBase validates and records a stage's shape contract.
func NewBase(inputProps, outputCount, props int) (Base, error) {
	if inputProps <= 0 || outputCount <= 0 || props <= 0 {
		return Base{}, fmt.Errorf("updatable: invalid shape in=%d out=(%d, %d): %w",
			inputProps, outputCount, props, array.ErrShapeMismatch)
	}
	return Base{inputProps: inputProps, outputCount: outputCount, props: props}, nil
}

func (b *Base) InputProperties() int { return b.inputProps }
func (b *Base) OutputCount() int     { return b.outputCount }
func (b *Base) Properties() int      { return b.props }

func (b *Base) Samples() int         { return b.samples }
func (b *Base) Current() array.Array { return b.current }
func (b *Base) CurrentTime() int64   { return b.currentTime }

// CountSample records one accepted Update.
func (b *Base) CountSample() { b.samples++ }

// SetCurrent replaces the current value without notifying.
func (b *Base) SetCurrent(time int64, value array.Array) {
	b.current, b.currentTime = value, time
}

// Clear zeroes the counters and drops the current value. Subscribers are
// kept.
func (b *Base) Clear() {
	b.samples = 0
	b.current = nil
	b.currentTime = 0
}

// RestoreSamples overwrites the sample counter; used when a stage is
// rebuilt from a checkpoint.
func (b *Base) RestoreSamples(n int) { b.samples = n }

// CheckInput panics with a *array.ShapeError unless input carries width
// properties per item.
func CheckInput(op string, width int, input array.Array) {
	if input == nil {
		panic(&array.ShapeError{Op: op, Count: 1, Properties: width})
	}
	if input.Properties() != width {
		panic(&array.ShapeError{Op: op, Count: input.Count(), Properties: width, Length: input.Properties()})
	}
}
