package array

// Equal reports whether a and b have the same shape and values. NaN equals
// NaN at the same position; NaN against a number is unequal.
//
// Arrays of the same contiguous variant are compared over their linear
// storage. Any other pairing has no structural verdict and falls back to a
// value-by-value walk over the rows.
func Equal(a, b Array) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Count() != b.Count() || a.Properties() != b.Properties() {
		return false
	}
	if eq, known := equalStructural(a, b); known {
		return eq
	}
	return equalRows(a, b)
}

func equalStructural(a, b Array) (eq, known bool) {
	if a.Kind() != b.Kind() {
		return false, false
	}
	x, ok := a.(contiguous)
	if !ok {
		return false, false
	}
	y, ok := b.(contiguous)
	if !ok {
		return false, false
	}
	return equalFloats(x.linear(), y.linear()), true
}

func equalRows(a, b Array) bool {
	for i := 0; i < a.Count(); i++ {
		if !equalFloats(a.Row(i), b.Row(i)) {
			return false
		}
	}
	return true
}

func equalFloats(x, y []float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !sameFloat(x[i], y[i]) {
			return false
		}
	}
	return true
}

func sameFloat(x, y float64) bool {
	return x == y || (x != x && y != y)
}
