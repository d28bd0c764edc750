// Package array provides the numeric array used as the payload of every
// streaming stage.
//
// An array has the logical shape (Count, Properties): Count items, each with
// Properties float64 fields, LinearLength = Count*Properties values in total.
// The same contract is served by six storage variants:
//
//	Flat       owned []float64, any shape
//	Grid       owned 2D buffer, one slice per item
//	Scalar     one inline value, shape fixed at (1, 1)
//	Records    record structs whose fields are all float64, viewed as values
//	Unmanaged  off-heap block released through the deallocation queue
//	SliceView  non-owning range of another array along the Count axis
//
// Index, property and offset violations panic with a *PreconditionError,
// like slice indexing does. Shape problems are returned as *ShapeError.
package array

// Kind identifies the storage variant behind an Array.
type Kind uint8

const (
	KindFlat Kind = iota
	KindGrid
	KindScalar
	KindRecord
	KindUnmanaged
	KindSlice
)

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindGrid:
		return "grid"
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindUnmanaged:
		return "unmanaged"
	case KindSlice:
		return "slice"
	default:
		return "unknown"
	}
}

// Array is the uniform numeric container.
type Array interface {
	Kind() Kind

	Count() int
	Properties() int
	LinearLength() int

	// At and Set address one field of one item.
	At(index, property int) float64
	Set(index, property int, v float64)

	// Value and SetValue are the single-item accessors; they require Count() == 1.
	Value(property int) float64
	SetValue(property int, v float64)

	// GetLinear and SetLinear ignore the shape and address the offset-th value.
	GetLinear(offset int) float64
	SetLinear(offset int, v float64)

	// Row returns the properties of item index. The slice aliases the
	// array's storage: writes through it are visible to the array. For an
	// Unmanaged array it must not be used after Dispose.
	Row(index int) []float64

	// ForEach visits every value once in linear order. ForEachRef hands out
	// pointers so the visitor can mutate in place.
	ForEach(visit func(v float64))
	ForEachRef(visit func(v *float64))

	// Clone returns an exclusively owned deep copy of the same shape.
	Clone() Array

	// Reshape changes the logical shape. count*properties must equal
	// LinearLength. With copy=false variants owning contiguous memory are
	// reshaped in place and returned; every other case yields a new copy.
	Reshape(count, properties int, copy bool) (Array, error)

	// Slice returns a view of items [start, start+count).
	Slice(start, count int) Array
}

// Disposer is implemented by arrays that hold a releasable resource.
type Disposer interface {
	Dispose()
}

// Dispose releases a's resource if it holds one. Other variants are left
// to the garbage collector.
func Dispose(a Array) {
	if d, ok := a.(Disposer); ok {
		d.Dispose()
	}
}

// Values returns a linear copy of a's values.
func Values(a Array) []float64 {
	out := make([]float64, 0, a.LinearLength())
	a.ForEach(func(v float64) { out = append(out, v) })
	return out
}

// contiguous is implemented by variants whose values sit in one flat run.
type contiguous interface {
	linear() []float64
}
