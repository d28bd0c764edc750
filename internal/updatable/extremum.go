package updatable

import (
	"errors"
	"math"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
)

// Point is a timestamped value retained by an Extremum.
type Point struct {
	Time  int64
	Value array.Array
}

// Comparer decides whether candidate replaces the retained point.
type Comparer func(current, candidate Point) bool

// Greater keeps the largest value of property (item 0). Ties keep the
// retained point and a NaN candidate never wins. A retained NaN loses to
// any number.
func Greater(property int) Comparer {
	return func(current, candidate Point) bool {
		cur, c := current.Value.At(0, property), candidate.Value.At(0, property)
		return c > cur || (math.IsNaN(cur) && !math.IsNaN(c))
	}
}

// Less keeps the smallest value of property (item 0), with the same tie and
// NaN rules as Greater.
func Less(property int) Comparer {
	return func(current, candidate Point) bool {
		cur, c := current.Value.At(0, property), candidate.Value.At(0, property)
		return c < cur || (math.IsNaN(cur) && !math.IsNaN(c))
	}
}

// Extremum retains one point chosen by a Comparer, e.g. the running maximum.
//
// Every Update counts as a sample, but Current, CurrentTime and the Updated
// notification only move when the comparer picks the incoming sample. The
// first sample is always taken. Downstream stages subscribe to Updated and
// so only recompute when the extremum really changed.
type Extremum struct {
	Base
	cmp     Comparer
	point   Point
	held    bool
	changed bool
}

// NewExtremum builds an extremum over inputs of props properties.
func NewExtremum(props int, cmp Comparer) (*Extremum, error) {
	if cmp == nil {
		return nil, errors.New("updatable: extremum needs a Comparer")
	}
	base, err := NewBase(props, 1, props)
	if err != nil {
		return nil, err
	}
	return &Extremum{Base: base, cmp: cmp}, nil
}

// NewMax retains the sample with the largest value of property.
func NewMax(props, property int) (*Extremum, error) { return NewExtremum(props, Greater(property)) }

// NewMin retains the sample with the smallest value of property.
func NewMin(props, property int) (*Extremum, error) { return NewExtremum(props, Less(property)) }

func (e *Extremum) Update(time int64, input array.Array) bool {
	CheckInput("extremum", e.inputProps, input)
	e.CountSample()

	e.changed = !e.held || e.cmp(e.point, Point{Time: time, Value: input})
	if !e.changed {
		return e.IsReady()
	}

	e.point = Point{Time: time, Value: input.Clone()}
	e.held = true
	e.SetCurrent(time, e.point.Value)
	e.NotifyUpdated(time, e.point.Value)
	return e.IsReady()
}

// IsReady reports whether a point is retained.
func (e *Extremum) IsReady() bool { return e.held }

// Changed reports whether the last Update replaced the retained point.
func (e *Extremum) Changed() bool { return e.changed }

// CurrentPoint returns the retained point; the zero Point before the first
// sample or after Reset.
func (e *Extremum) CurrentPoint() Point { return e.point }

// Restore installs p as the retained point with samples already counted.
func (e *Extremum) Restore(p Point, samples int) {
	e.point = Point{Time: p.Time, Value: p.Value.Clone()}
	e.held = true
	e.changed = false
	e.SetCurrent(p.Time, e.point.Value)
	e.RestoreSamples(samples)
}

func (e *Extremum) Reset() {
	e.point = Point{}
	e.held = false
	e.changed = false
	e.Clear()
	e.NotifyResetted(e)
}
