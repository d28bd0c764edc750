package history

import (
	"fmt"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/updatable"
)

// ArrayWindow keeps the last Size inputs as the rows of one (Size, Props)
// array, newest in row 0. Its Current is that array, updated in place, so
// subscribers always see the whole history without copying.
//
// An ArrayWindow is driven from one goroutine like every other stage.
type ArrayWindow struct {
	updatable.Base

	size    int
	buf     *array.Flat
	removed []float64
	evicted bool

	onEvict func(removed []float64)
}

// NewArrayWindow creates a window of size rows, each props wide.
func NewArrayWindow(size, props int) (*ArrayWindow, error) {
	base, err := updatable.NewBase(props, size, props)
	if err != nil {
		return nil, fmt.Errorf("history: array window: %w", err)
	}
	return &ArrayWindow{
		Base:    base,
		size:    size,
		buf:     array.NewFlat(size, props),
		removed: make([]float64, props),
	}, nil
}

// SetOnEvict installs a callback run after each Update that pushed a row
// out. removed is only valid for the duration of the call.
func (w *ArrayWindow) SetOnEvict(fn func(removed []float64)) { w.onEvict = fn }

func (w *ArrayWindow) Size() int { return w.size }

// Rows returns the number of filled rows.
func (w *ArrayWindow) Rows() int { return min(w.Samples(), w.size) }

func (w *ArrayWindow) IsReady() bool { return w.Samples() >= 1 }

// IsFull reports whether every row holds a sample.
func (w *ArrayWindow) IsFull() bool { return w.Samples() >= w.size }

// Update pushes input in as row 0. input must hold exactly Properties
// values in any shape; anything else panics with *array.ShapeError.
func (w *ArrayWindow) Update(time int64, input array.Array) bool {
	p := w.Properties()
	if input == nil || input.LinearLength() != p {
		length := 0
		if input != nil {
			length = input.LinearLength()
		}
		panic(&array.ShapeError{Op: "array window", Count: 1, Properties: p, Length: length})
	}

	data := w.buf.Data()
	full := w.IsFull()
	if full {
		copy(w.removed, data[(w.size-1)*p:])
		w.evicted = true
	}

	rows := min(w.Samples()+1, w.size)
	copy(data[p:rows*p], data[:(rows-1)*p])
	if input.Count() == 1 {
		copy(data[:p], input.Row(0))
	} else {
		for i := 0; i < p; i++ {
			data[i] = input.GetLinear(i)
		}
	}

	w.CountSample()
	w.SetCurrent(time, w.buf)
	w.NotifyUpdated(time, w.buf)
	if full && w.onEvict != nil {
		w.onEvict(w.removed)
	}
	return w.IsReady()
}

// MostRecentlyRemoved returns a (1, Properties) copy of the row pushed out
// by the latest Update on a full window.
func (w *ArrayWindow) MostRecentlyRemoved() (array.Array, error) {
	if !w.evicted {
		return nil, ErrNoEviction
	}
	return array.Vector(w.removed...), nil
}

// Reset zeroes the storage and the counters and notifies subscribers.
func (w *ArrayWindow) Reset() {
	clear(w.buf.Data())
	clear(w.removed)
	w.evicted = false
	w.Clear()
	w.NotifyResetted(w)
}

// State returns copies of the storage, the removed row and whether a row
// has been removed.
func (w *ArrayWindow) State() (values, removed []float64, hasRemoved bool) {
	values = append([]float64(nil), w.buf.Data()...)
	removed = append([]float64(nil), w.removed...)
	return values, removed, w.evicted
}

// Restore rebuilds the window from saved state. Subscribers are not
// notified.
func (w *ArrayWindow) Restore(time int64, samples int, values, removed []float64, hasRemoved bool) error {
	p := w.Properties()
	if len(values) != w.size*p {
		return &array.ShapeError{Op: "restore array window", Count: w.size, Properties: p, Length: len(values)}
	}
	if hasRemoved && len(removed) != p {
		return &array.ShapeError{Op: "restore array window", Count: 1, Properties: p, Length: len(removed)}
	}
	if samples < 0 {
		return fmt.Errorf("history: restore array window: negative sample count %d", samples)
	}
	copy(w.buf.Data(), values)
	clear(w.removed)
	if hasRemoved {
		copy(w.removed, removed)
	}
	w.evicted = hasRemoved
	w.Clear()
	w.RestoreSamples(samples)
	if samples > 0 {
		w.SetCurrent(time, w.buf)
	}
	return nil
}

var _ updatable.Updatable = (*ArrayWindow)(nil)
