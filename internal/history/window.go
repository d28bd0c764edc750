// Package history keeps bounded histories of stage outputs.
//
// Window is a generic ring that is safe for concurrent readers and writers.
// ArrayWindow keeps a history of equally wide arrays inside one array and is
// an updatable stage itself.
package history

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoEviction is returned when the most recently removed element is
	// read before anything has been evicted.
	ErrNoEviction = errors.New("history: nothing has been removed yet")

	// ErrIndexOutOfRange is returned for indices at or beyond the fill level.
	ErrIndexOutOfRange = errors.New("history: index out of range")
)

// Window is a fixed-capacity ring. Index 0 is the newest element and
// Count()-1 the oldest retained one. Adding to a full window evicts the
// oldest element, which becomes MostRecentlyRemoved.
//
// Reads share a read lock, Add and Reset take the write lock. Snapshot and
// All copy the contents under the read lock, so iteration never observes a
// concurrent Add.
type Window[T any] struct {
	mu sync.RWMutex

	buf     []T
	tail    int // slot written by the next Add; the oldest element once full
	count   int
	samples int64

	removed    T
	hasRemoved bool

	onEvict func(T)
}

// NewWindow creates a window holding at most size elements.
// It panics if size < 1.
func NewWindow[T any](size int) *Window[T] {
	if size < 1 {
		panic(fmt.Sprintf("history: window size %d < 1", size))
	}
	return &Window[T]{buf: make([]T, size)}
}

// SetOnEvict installs a callback run after each eviction, outside the lock.
func (w *Window[T]) SetOnEvict(fn func(T)) {
	w.mu.Lock()
	w.onEvict = fn
	w.mu.Unlock()
}

// Add inserts v as the newest element.
func (w *Window[T]) Add(v T) {
	w.mu.Lock()
	var (
		evicted T
		evict   bool
	)
	if w.count == len(w.buf) {
		evicted, evict = w.buf[w.tail], true
		w.removed, w.hasRemoved = evicted, true
	} else {
		w.count++
	}
	w.buf[w.tail] = v
	w.tail = (w.tail + 1) % len(w.buf)
	w.samples++
	onEvict := w.onEvict
	w.mu.Unlock()

	if evict && onEvict != nil {
		onEvict(evicted)
	}
}

// At returns the i-th newest element.
func (w *Window[T]) At(i int) (T, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i < 0 || i >= w.count {
		var zero T
		return zero, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, w.count)
	}
	return w.buf[w.slot(i)], nil
}

func (w *Window[T]) slot(i int) int {
	n := len(w.buf)
	return (w.tail - 1 - i + n) % n
}

// Count returns the number of retained elements.
func (w *Window[T]) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Size returns the capacity.
func (w *Window[T]) Size() int { return len(w.buf) }

// Samples returns how many elements were ever added since the last Reset.
func (w *Window[T]) Samples() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.samples
}

// IsReady reports whether the window is filled to capacity.
func (w *Window[T]) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count == len(w.buf)
}

// MostRecentlyRemoved returns the element evicted by the latest Add to a
// full window, or ErrNoEviction if none has been evicted.
func (w *Window[T]) MostRecentlyRemoved() (T, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.hasRemoved {
		var zero T
		return zero, ErrNoEviction
	}
	return w.removed, nil
}

// Snapshot copies the retained elements, newest first.
func (w *Window[T]) Snapshot() []T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]T, w.count)
	for i := range out {
		out[i] = w.buf[w.slot(i)]
	}
	return out
}

// All iterates over a snapshot, newest first.
func (w *Window[T]) All() func(yield func(int, T) bool) {
	items := w.Snapshot()
	return func(yield func(int, T) bool) {
		for i, v := range items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Reset empties the window and clears its counters.
func (w *Window[T]) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	var zero T
	for i := range w.buf {
		w.buf[i] = zero
	}
	w.tail, w.count, w.samples = 0, 0, 0
	w.removed, w.hasRemoved = zero, false
}
