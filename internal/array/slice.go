package array

// SliceView is a non-owning window over items [start, start+count) of a
// parent array. Reads and writes go straight to the parent's storage and the
// view lives only as long as the parent does. A view cannot be reshaped in
// place: Reshape always returns a new Flat.
type SliceView struct {
	parent Array
	start  int
	count  int
}

func newSliceView(parent Array, start, count int) *SliceView {
	if count <= 0 {
		outOfRange("slice", count, parent.Count()+1)
	}
	if start < 0 || start+count > parent.Count() {
		outOfRange("slice", start+count-1, parent.Count())
	}
	return &SliceView{parent: parent, start: start, count: count}
}

func (s *SliceView) Kind() Kind        { return KindSlice }
func (s *SliceView) Count() int        { return s.count }
func (s *SliceView) Properties() int   { return s.parent.Properties() }
func (s *SliceView) LinearLength() int { return s.count * s.parent.Properties() }

// Parent returns the array the view reads from.
func (s *SliceView) Parent() Array { return s.parent }

// Start returns the first parent item covered by the view.
func (s *SliceView) Start() int { return s.start }

func (s *SliceView) item(op string, index int) int {
	if uint(index) >= uint(s.count) {
		outOfRange(op, index, s.count)
	}
	return s.start + index
}

func (s *SliceView) At(index, property int) float64 {
	return s.parent.At(s.item("at", index), property)
}

func (s *SliceView) Set(index, property int, v float64) {
	s.parent.Set(s.item("set", index), property, v)
}

func (s *SliceView) Value(property int) float64 {
	if s.count != 1 {
		violate("value", ErrNotScalar)
	}
	return s.At(0, property)
}

func (s *SliceView) SetValue(property int, v float64) {
	if s.count != 1 {
		violate("set value", ErrNotScalar)
	}
	s.Set(0, property, v)
}

func (s *SliceView) GetLinear(offset int) float64 {
	if uint(offset) >= uint(s.LinearLength()) {
		outOfRange("get linear", offset, s.LinearLength())
	}
	p := s.Properties()
	return s.parent.Row(s.start + offset/p)[offset%p]
}

func (s *SliceView) SetLinear(offset int, v float64) {
	if uint(offset) >= uint(s.LinearLength()) {
		outOfRange("set linear", offset, s.LinearLength())
	}
	p := s.Properties()
	s.parent.Row(s.start + offset/p)[offset%p] = v
}

func (s *SliceView) Row(index int) []float64 {
	return s.parent.Row(s.item("row", index))
}

func (s *SliceView) ForEach(visit func(v float64)) {
	for i := 0; i < s.count; i++ {
		for _, v := range s.parent.Row(s.start + i) {
			visit(v)
		}
	}
}

func (s *SliceView) ForEachRef(visit func(v *float64)) {
	for i := 0; i < s.count; i++ {
		r := s.parent.Row(s.start + i)
		for j := range r {
			visit(&r[j])
		}
	}
}

func (s *SliceView) Clone() Array { return copyRows(s, s.count, s.Properties()) }

func (s *SliceView) Reshape(count, props int, _ bool) (Array, error) {
	if err := reshapeCheck(s, count, props); err != nil {
		return nil, err
	}
	return copyRows(s, count, props), nil
}

// Slice of a view is re-rooted at the parent so views never nest.
func (s *SliceView) Slice(start, count int) Array {
	if count <= 0 || start < 0 || start+count > s.count {
		outOfRange("slice", start+count-1, s.count)
	}
	return newSliceView(s.parent, s.start+start, count)
}
