package array

import (
	"fmt"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/dealloc"
)

// Unmanaged owns a block of memory outside the Go heap, or borrows one
// together with a caller-supplied release action.
//
// Dispose never frees on the calling goroutine: the release is posted to a
// dealloc.Queue whose single worker performs it. The owning handle must not
// be copied; use Clone to copy the values. An Unmanaged array that is never
// disposed leaks its block.
type Unmanaged struct {
	dense
	release func()
	queue   *dealloc.Queue
}

// UnmanagedOption configures an Unmanaged array.
type UnmanagedOption func(*Unmanaged)

// OnQueue routes the release to q instead of dealloc.Default().
func OnQueue(q *dealloc.Queue) UnmanagedOption {
	return func(u *Unmanaged) { u.queue = q }
}

// NewUnmanaged allocates a zero-filled off-heap block of count*props values.
func NewUnmanaged(count, props int, opts ...UnmanagedOption) (*Unmanaged, error) {
	if err := checkShape("new unmanaged", count, props); err != nil {
		return nil, err
	}
	data, release, err := allocBlock(count * props)
	if err != nil {
		return nil, fmt.Errorf("array: allocate %d values: %w", count*props, err)
	}
	return newUnmanaged(data, count, props, release, opts), nil
}

// WrapUnmanaged borrows data, which must hold at least count*props values.
// release runs on the deallocation worker once the array is disposed; it
// may be nil when the caller keeps responsibility for the memory.
func WrapUnmanaged(data []float64, count, props int, release func(), opts ...UnmanagedOption) (*Unmanaged, error) {
	if err := checkShape("wrap unmanaged", count, props); err != nil {
		return nil, err
	}
	if len(data) < count*props {
		return nil, &ShapeError{Op: "wrap unmanaged", Count: count, Properties: props, Length: len(data)}
	}
	return newUnmanaged(data[:count*props:count*props], count, props, release, opts), nil
}

func newUnmanaged(data []float64, count, props int, release func(), opts []UnmanagedOption) *Unmanaged {
	u := &Unmanaged{dense: dense{data: data, count: count, props: props}, release: release}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Unmanaged) Kind() Kind { return KindUnmanaged }

// Disposed reports whether Dispose has been called.
func (u *Unmanaged) Disposed() bool { return u.data == nil }

// Dispose posts the release action and detaches the storage. Later calls
// are no-ops; any other access panics with ErrDisposed.
func (u *Unmanaged) Dispose() {
	if u.data == nil {
		return
	}
	release := u.release
	u.data, u.release = nil, nil
	if release == nil {
		return
	}
	q := u.queue
	if q == nil {
		q = dealloc.Default()
	}
	q.Post(release)
}

// DiscardDisposer drops the release action: the array no longer frees the
// memory when disposed. Used when ownership of the block moves elsewhere.
func (u *Unmanaged) DiscardDisposer() {
	u.release = nil
}

func (u *Unmanaged) Clone() Array { return u.cloneFlat() }

func (u *Unmanaged) Reshape(count, props int, copy bool) (Array, error) {
	u.live("reshape")
	if err := u.reshapeCheck(count, props); err != nil {
		return nil, err
	}
	if !copy {
		u.count, u.props = count, props
		return u, nil
	}
	out := u.cloneFlat()
	out.count, out.props = count, props
	return out, nil
}

func (u *Unmanaged) Slice(start, count int) Array {
	u.live("slice")
	return newSliceView(u, start, count)
}
