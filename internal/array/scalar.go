package array

// Scalar holds one value inline. Its shape is fixed at (1, 1) and cannot be
// changed: a Reshape to anything else is a shape error.
type Scalar struct {
	v [1]float64
}

// NewScalar returns a scalar holding v.
func NewScalar(v float64) *Scalar {
	return &Scalar{v: [1]float64{v}}
}

func (s *Scalar) Kind() Kind        { return KindScalar }
func (s *Scalar) Count() int        { return 1 }
func (s *Scalar) Properties() int   { return 1 }
func (s *Scalar) LinearLength() int { return 1 }

func (s *Scalar) check(op string, index, property int) {
	if index != 0 {
		outOfRange(op, index, 1)
	}
	if property != 0 {
		outOfRange(op, property, 1)
	}
}

func (s *Scalar) At(index, property int) float64 {
	s.check("at", index, property)
	return s.v[0]
}

func (s *Scalar) Set(index, property int, v float64) {
	s.check("set", index, property)
	s.v[0] = v
}

func (s *Scalar) Value(property int) float64 { return s.At(0, property) }

func (s *Scalar) SetValue(property int, v float64) { s.Set(0, property, v) }

func (s *Scalar) GetLinear(offset int) float64 { return s.At(0, offset) }

func (s *Scalar) SetLinear(offset int, v float64) { s.Set(0, offset, v) }

func (s *Scalar) Row(index int) []float64 {
	if index != 0 {
		outOfRange("row", index, 1)
	}
	return s.v[:]
}

func (s *Scalar) ForEach(visit func(v float64))     { visit(s.v[0]) }
func (s *Scalar) ForEachRef(visit func(v *float64)) { visit(&s.v[0]) }

func (s *Scalar) Clone() Array { return NewScalar(s.v[0]) }

func (s *Scalar) Reshape(count, props int, copy bool) (Array, error) {
	if count != 1 || props != 1 {
		return nil, &ShapeError{Op: "reshape", Count: count, Properties: props, Length: 1}
	}
	if !copy {
		return s, nil
	}
	return NewScalar(s.v[0]), nil
}

func (s *Scalar) Slice(start, count int) Array { return newSliceView(s, start, count) }

func (s *Scalar) linear() []float64 { return s.v[:] }
