package array

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// Record is a fixed-layout struct whose fields are all float64. Properties
// reports the field count and must be callable on the zero value.
//
//	type Bar struct{ Open, High, Low, Close float64 }
//
//	func (Bar) Properties() int { return 4 }
//
// The layout is verified once, at first use of the type. A record whose
// declared Properties disagrees with its float64 field count can never be
// used as a reinterpretation target.
type Record interface {
	Properties() int
}

type layout struct {
	props int
	err   error
}

var layouts sync.Map // reflect.Type -> layout

// RegisterRecord verifies T's layout and caches the verdict. Calling it is
// optional: every record API runs the same check on first use.
func RegisterRecord[T Record]() error {
	_, err := recordProps[T]()
	return err
}

func recordProps[T Record]() (int, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if l, ok := layouts.Load(t); ok {
		return l.(layout).props, l.(layout).err
	}
	l := inspect[T](t)
	actual, _ := layouts.LoadOrStore(t, l)
	return actual.(layout).props, actual.(layout).err
}

func inspect[T Record](t reflect.Type) layout {
	if t.Kind() != reflect.Struct {
		return layout{err: &LayoutError{Type: t, Reason: "not a struct"}}
	}
	var zero T
	props := zero.Properties()
	if props <= 0 {
		return layout{err: &LayoutError{Type: t, Reason: fmt.Sprintf("declares %d properties", props)}}
	}
	if t.NumField() != props {
		return layout{err: &LayoutError{Type: t,
			Reason: fmt.Sprintf("declares %d properties but has %d fields", props, t.NumField())}}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Float64 {
			return layout{err: &LayoutError{Type: t,
				Reason: fmt.Sprintf("field %s is %v, not float64", f.Name, f.Type)}}
		}
	}
	if t.Size() != uintptr(props)*8 {
		return layout{err: &LayoutError{Type: t, Reason: fmt.Sprintf("size %d is not %d", t.Size(), props*8)}}
	}
	return layout{props: props}
}

// Records owns one or more record instances and exposes their memory as a
// (len(items), T.Properties()) array without copying.
type Records[T Record] struct {
	dense
	items []T
}

// NewRecords copies items into a record-backed array.
func NewRecords[T Record](items ...T) (*Records[T], error) {
	props, err := recordProps[T]()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &ShapeError{Op: "new records", Properties: props}
	}
	owned := make([]T, len(items))
	copy(owned, items)
	return &Records[T]{
		dense: dense{data: floats(owned, props), count: len(owned), props: props},
		items: owned,
	}, nil
}

// NewRecord wraps a single record.
func NewRecord[T Record](item T) (*Records[T], error) {
	return NewRecords(item)
}

// floats views the records' memory as a run of float64. Safe only once the
// layout check has passed.
func floats[T Record](items []T, props int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(items))), len(items)*props)
}

func (r *Records[T]) Kind() Kind { return KindRecord }

// Items returns the backing records. Writes to them are visible to the array.
func (r *Records[T]) Items() []T { return r.items }

// Item returns a copy of record index.
func (r *Records[T]) Item(index int) T {
	if uint(index) >= uint(len(r.items)) {
		outOfRange("item", index, len(r.items))
	}
	return r.items[index]
}

func (r *Records[T]) Clone() Array { return r.cloneFlat() }

// Reshape always copies: the record type pins the row width.
func (r *Records[T]) Reshape(count, props int, _ bool) (Array, error) {
	if err := r.reshapeCheck(count, props); err != nil {
		return nil, err
	}
	out := r.cloneFlat()
	out.count, out.props = count, props
	return out, nil
}

func (r *Records[T]) Slice(start, count int) Array { return newSliceView(r, start, count) }

// Get reads item index of a as a T. If T has more properties than a the
// call fails with a *ShapeError instead of reading past the row; otherwise
// the first T.Properties() values of the row are reinterpreted.
func Get[T Record](a Array, index int) (T, error) {
	p, err := View[T](a, index)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// View is Get without the copy: the returned pointer aliases the row, so
// writes through it are visible in a. Like a Row slice it is only valid as
// long as a's storage. For an *Unmanaged array the pointer refers to
// unmapped memory once the array is disposed and must not be used after
// Dispose.
func View[T Record](a Array, index int) (*T, error) {
	props, err := recordProps[T]()
	if err != nil {
		return nil, err
	}
	if props > a.Properties() {
		return nil, &ShapeError{Op: "get record", Count: 1, Properties: props, Length: a.Properties()}
	}
	row := a.Row(index)
	return (*T)(unsafe.Pointer(unsafe.SliceData(row))), nil
}
