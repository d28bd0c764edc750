package array

import "math"

// Apply runs fn over every value. With copy=true the result is a new array
// and a is untouched; with copy=false a is updated in place and returned.
func Apply(a Array, fn func(float64) float64, copy bool) Array {
	dst := a
	if copy {
		dst = a.Clone()
	}
	dst.ForEachRef(func(v *float64) { *v = fn(*v) })
	return dst
}

// Combine applies fn pairwise over a and b.
//
// Equal shapes combine element by element. An operand with a single value
// broadcasts as a scalar; an operand with one item and the other's
// property count broadcasts its row over every item. Anything else is a
// *ShapeError. With copy=false the result is written into a, which must
// already have the result shape.
func Combine(a, b Array, fn func(x, y float64) float64, copy bool) (Array, error) {
	count, props, err := broadcastShape(a, b)
	if err != nil {
		return nil, err
	}

	var out Array
	if copy {
		out = NewFlat(count, props)
	} else {
		if a.Count() != count || a.Properties() != props {
			return nil, &ShapeError{Op: "combine in place", Count: count, Properties: props, Length: a.LinearLength()}
		}
		out = a
	}

	for i := 0; i < count; i++ {
		ra, rb, ro := operandRow(a, i), operandRow(b, i), out.Row(i)
		for p := range ro {
			ro[p] = fn(operandAt(ra, p), operandAt(rb, p))
		}
	}
	return out, nil
}

func broadcastShape(a, b Array) (count, props int, err error) {
	switch {
	case a.Count() == b.Count() && a.Properties() == b.Properties():
		return a.Count(), a.Properties(), nil
	case b.LinearLength() == 1:
		return a.Count(), a.Properties(), nil
	case a.LinearLength() == 1:
		return b.Count(), b.Properties(), nil
	case b.Count() == 1 && b.Properties() == a.Properties():
		return a.Count(), a.Properties(), nil
	case a.Count() == 1 && a.Properties() == b.Properties():
		return b.Count(), b.Properties(), nil
	}
	return 0, 0, &ShapeError{Op: "combine", Count: b.Count(), Properties: b.Properties(), Length: a.LinearLength()}
}

func operandRow(a Array, i int) []float64 {
	if a.Count() == 1 {
		return a.Row(0)
	}
	return a.Row(i)
}

func operandAt(row []float64, p int) float64 {
	if len(row) == 1 {
		return row[0]
	}
	return row[p]
}

func Add(a, b Array) (Array, error) {
	return Combine(a, b, func(x, y float64) float64 { return x + y }, true)
}

func Sub(a, b Array) (Array, error) {
	return Combine(a, b, func(x, y float64) float64 { return x - y }, true)
}

func Mul(a, b Array) (Array, error) {
	return Combine(a, b, func(x, y float64) float64 { return x * y }, true)
}

func Div(a, b Array) (Array, error) {
	return Combine(a, b, func(x, y float64) float64 { return x / y }, true)
}

func Neg(a Array) Array { return Apply(a, func(v float64) float64 { return -v }, true) }

func Abs(a Array) Array { return Apply(a, math.Abs, true) }
