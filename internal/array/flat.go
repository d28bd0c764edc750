package array

// Flat owns a managed []float64 and supports any shape.
type Flat struct {
	dense
}

// NewFlat allocates a zero-filled (count, props) array.
// It panics if either dimension is not positive.
func NewFlat(count, props int) *Flat {
	mustShape("new flat", count, props)
	return &Flat{dense{data: make([]float64, count*props), count: count, props: props}}
}

// FromValues copies values into a new (count, props) array.
func FromValues(count, props int, values []float64) (*Flat, error) {
	if err := checkShape("from values", count, props); err != nil {
		return nil, err
	}
	if len(values) != count*props {
		return nil, &ShapeError{Op: "from values", Count: count, Properties: props, Length: len(values)}
	}
	data := make([]float64, len(values))
	copy(data, values)
	return &Flat{dense{data: data, count: count, props: props}}, nil
}

// FromRows copies equally sized rows into a new array.
func FromRows(rows [][]float64) (*Flat, error) {
	if len(rows) == 0 {
		return nil, &ShapeError{Op: "from rows"}
	}
	props := len(rows[0])
	if err := checkShape("from rows", len(rows), props); err != nil {
		return nil, err
	}
	data := make([]float64, 0, len(rows)*props)
	for _, r := range rows {
		if len(r) != props {
			return nil, &ShapeError{Op: "from rows", Count: len(rows), Properties: props, Length: len(r)}
		}
		data = append(data, r...)
	}
	return &Flat{dense{data: data, count: len(rows), props: props}}, nil
}

// Vector builds a single-item array whose properties are values.
func Vector(values ...float64) *Flat {
	f, err := FromValues(1, len(values), values)
	if err != nil {
		panic(err)
	}
	return f
}

// Column builds a single-property array with one item per value.
func Column(values ...float64) *Flat {
	f, err := FromValues(len(values), 1, values)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Flat) Kind() Kind { return KindFlat }

func (f *Flat) Clone() Array { return f.cloneFlat() }

func (f *Flat) Reshape(count, props int, copy bool) (Array, error) {
	if err := f.reshapeCheck(count, props); err != nil {
		return nil, err
	}
	if !copy {
		f.count, f.props = count, props
		return f, nil
	}
	out := f.cloneFlat()
	out.count, out.props = count, props
	return out, nil
}

func (f *Flat) Slice(start, count int) Array { return newSliceView(f, start, count) }

// Data exposes the backing slice in linear order.
func (f *Flat) Data() []float64 { return f.data }
