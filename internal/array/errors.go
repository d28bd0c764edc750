package array

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrShapeMismatch is wrapped by every *ShapeError.
	ErrShapeMismatch = errors.New("array: shape mismatch")

	// ErrRecordLayout is wrapped by every *LayoutError.
	ErrRecordLayout = errors.New("array: invalid record layout")

	// ErrOutOfRange marks an index, property or offset outside the array.
	ErrOutOfRange = errors.New("array: index out of range")

	// ErrNotScalar marks a scalar-only accessor used on an array with Count != 1.
	ErrNotScalar = errors.New("array: not a single-item array")

	// ErrDisposed marks access to an off-heap array after Dispose.
	ErrDisposed = errors.New("array: use after dispose")
)

// ShapeError is returned when a shape cannot be satisfied: reshape with a
// different element total, record narrowing past the row width, or
// incompatible operands of a pairwise function.
type ShapeError struct {
	Op         string
	Count      int // requested count
	Properties int // requested properties
	Length     int // elements (or row width) actually available
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("array: %s: cannot fit (%d, %d) into %d elements",
		e.Op, e.Count, e.Properties, e.Length)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// LayoutError reports a record type that cannot be viewed as a flat run of
// float64 values.
type LayoutError struct {
	Type   reflect.Type
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("array: record %v: %s", e.Type, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrRecordLayout }

// PreconditionError is the panic value raised on contract violations
// (bad index, scalar accessor on a multi-item array, use after dispose).
type PreconditionError struct {
	Op    string
	Index int
	Limit int
	Err   error
}

func (e *PreconditionError) Error() string {
	if errors.Is(e.Err, ErrOutOfRange) {
		return fmt.Sprintf("array: %s: index %d out of range [0, %d)", e.Op, e.Index, e.Limit)
	}
	return fmt.Sprintf("array: %s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func outOfRange(op string, index, limit int) {
	panic(&PreconditionError{Op: op, Index: index, Limit: limit, Err: ErrOutOfRange})
}

func violate(op string, err error) {
	panic(&PreconditionError{Op: op, Err: err})
}

func checkShape(op string, count, props int) error {
	if count <= 0 || props <= 0 {
		return &ShapeError{Op: op, Count: count, Properties: props}
	}
	return nil
}

func mustShape(op string, count, props int) {
	if err := checkShape(op, count, props); err != nil {
		panic(err)
	}
}
