package checkpoint

import (
	"fmt"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/history"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/updatable"
)

type arrayWindow struct{ w *history.ArrayWindow }

// WrapArrayWindow makes w checkpointable.
func WrapArrayWindow(w *history.ArrayWindow) Snapshottable { return arrayWindow{w} }

func (a arrayWindow) Kind() string { return KindArrayWindow }

func (a arrayWindow) Snapshot() StageSnapshot {
	values, removed, has := a.w.State()
	snap := StageSnapshot{
		Kind:       KindArrayWindow,
		Time:       a.w.CurrentTime(),
		Samples:    a.w.Samples(),
		Count:      a.w.Size(),
		Properties: a.w.Properties(),
		Values:     values,
		HasRemoved: has,
	}
	if has {
		snap.Removed = removed
	}
	return snap
}

func (a arrayWindow) Restore(s StageSnapshot) error {
	if s.Count != a.w.Size() || s.Properties != a.w.Properties() {
		return &array.ShapeError{Op: "restore " + s.Name, Count: a.w.Size(), Properties: a.w.Properties(), Length: s.Count * s.Properties}
	}
	return a.w.Restore(s.Time, s.Samples, s.Values, s.Removed, s.HasRemoved)
}

type extremum struct{ e *updatable.Extremum }

// WrapExtremum makes e checkpointable.
func WrapExtremum(e *updatable.Extremum) Snapshottable { return extremum{e} }

func (x extremum) Kind() string { return KindExtremum }

func (x extremum) Snapshot() StageSnapshot {
	snap := StageSnapshot{
		Kind:       KindExtremum,
		Samples:    x.e.Samples(),
		Count:      1,
		Properties: x.e.Properties(),
	}
	if p := x.e.CurrentPoint(); p.Value != nil {
		snap.Time = p.Time
		snap.Count = p.Value.Count()
		snap.Values = array.Values(p.Value)
	}
	return snap
}

func (x extremum) Restore(s StageSnapshot) error {
	if len(s.Values) == 0 {
		if s.Samples != 0 {
			return fmt.Errorf("checkpoint: restore %s: %d samples without a value", s.Name, s.Samples)
		}
		return nil
	}
	if s.Properties != x.e.Properties() {
		return &array.ShapeError{Op: "restore " + s.Name, Count: s.Count, Properties: x.e.Properties(), Length: s.Properties}
	}
	v, err := array.FromValues(s.Count, s.Properties, s.Values)
	if err != nil {
		return fmt.Errorf("checkpoint: restore %s: %w", s.Name, err)
	}
	x.e.Restore(updatable.Point{Time: s.Time, Value: v}, s.Samples)
	return nil
}
