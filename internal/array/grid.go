package array

// Grid owns a rectangular buffer laid out as one independent slice per item.
// It has the same semantics as Flat; only the physical layout differs, so
// it cannot be reshaped in place.
type Grid struct {
	rows  [][]float64
	props int
}

// NewGrid allocates a zero-filled (count, props) grid.
// It panics if either dimension is not positive.
func NewGrid(count, props int) *Grid {
	mustShape("new grid", count, props)
	rows := make([][]float64, count)
	for i := range rows {
		rows[i] = make([]float64, props)
	}
	return &Grid{rows: rows, props: props}
}

// GridFromRows copies rows into a new grid.
func GridFromRows(rows [][]float64) (*Grid, error) {
	f, err := FromRows(rows)
	if err != nil {
		return nil, err
	}
	g := NewGrid(f.count, f.props)
	for i := range g.rows {
		copy(g.rows[i], f.Row(i))
	}
	return g, nil
}

func (g *Grid) Kind() Kind        { return KindGrid }
func (g *Grid) Count() int        { return len(g.rows) }
func (g *Grid) Properties() int   { return g.props }
func (g *Grid) LinearLength() int { return len(g.rows) * g.props }

func (g *Grid) check(op string, index, property int) {
	if uint(index) >= uint(len(g.rows)) {
		outOfRange(op, index, len(g.rows))
	}
	if uint(property) >= uint(g.props) {
		outOfRange(op, property, g.props)
	}
}

func (g *Grid) At(index, property int) float64 {
	g.check("at", index, property)
	return g.rows[index][property]
}

func (g *Grid) Set(index, property int, v float64) {
	g.check("set", index, property)
	g.rows[index][property] = v
}

func (g *Grid) Value(property int) float64 {
	if len(g.rows) != 1 {
		violate("value", ErrNotScalar)
	}
	return g.At(0, property)
}

func (g *Grid) SetValue(property int, v float64) {
	if len(g.rows) != 1 {
		violate("set value", ErrNotScalar)
	}
	g.Set(0, property, v)
}

func (g *Grid) GetLinear(offset int) float64 {
	if uint(offset) >= uint(g.LinearLength()) {
		outOfRange("get linear", offset, g.LinearLength())
	}
	return g.rows[offset/g.props][offset%g.props]
}

func (g *Grid) SetLinear(offset int, v float64) {
	if uint(offset) >= uint(g.LinearLength()) {
		outOfRange("set linear", offset, g.LinearLength())
	}
	g.rows[offset/g.props][offset%g.props] = v
}

func (g *Grid) Row(index int) []float64 {
	if uint(index) >= uint(len(g.rows)) {
		outOfRange("row", index, len(g.rows))
	}
	return g.rows[index]
}

func (g *Grid) ForEach(visit func(v float64)) {
	for _, r := range g.rows {
		for _, v := range r {
			visit(v)
		}
	}
}

func (g *Grid) ForEachRef(visit func(v *float64)) {
	for _, r := range g.rows {
		for j := range r {
			visit(&r[j])
		}
	}
}

func (g *Grid) Clone() Array { return copyRows(g, g.Count(), g.props) }

func (g *Grid) Reshape(count, props int, _ bool) (Array, error) {
	if err := reshapeCheck(g, count, props); err != nil {
		return nil, err
	}
	return copyRows(g, count, props), nil
}

func (g *Grid) Slice(start, count int) Array { return newSliceView(g, start, count) }

// reshapeCheck validates a reshape for variants without a dense core.
func reshapeCheck(a Array, count, props int) error {
	if err := checkShape("reshape", count, props); err != nil {
		return err
	}
	if count*props != a.LinearLength() {
		return &ShapeError{Op: "reshape", Count: count, Properties: props, Length: a.LinearLength()}
	}
	return nil
}

// copyRows gathers a's items row by row into a new Flat of the given shape.
func copyRows(a Array, count, props int) *Flat {
	data := make([]float64, 0, a.LinearLength())
	for i := 0; i < a.Count(); i++ {
		data = append(data, a.Row(i)...)
	}
	return &Flat{dense{data: data, count: count, props: props}}
}
