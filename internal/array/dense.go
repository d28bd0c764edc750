package array

// dense is the storage core shared by the variants that keep their values
// in one contiguous []float64 (Flat, Records, Unmanaged). A nil data slice
// means the storage has been released.
type dense struct {
	data  []float64
	count int
	props int
}

func (d *dense) Count() int        { return d.count }
func (d *dense) Properties() int   { return d.props }
func (d *dense) LinearLength() int { return d.count * d.props }

func (d *dense) live(op string) []float64 {
	if d.data == nil {
		violate(op, ErrDisposed)
	}
	return d.data
}

func (d *dense) offset(op string, index, property int) int {
	if uint(index) >= uint(d.count) {
		outOfRange(op, index, d.count)
	}
	if uint(property) >= uint(d.props) {
		outOfRange(op, property, d.props)
	}
	return index*d.props + property
}

func (d *dense) At(index, property int) float64 {
	data := d.live("at")
	return data[d.offset("at", index, property)]
}

func (d *dense) Set(index, property int, v float64) {
	data := d.live("set")
	data[d.offset("set", index, property)] = v
}

func (d *dense) Value(property int) float64 {
	if d.count != 1 {
		violate("value", ErrNotScalar)
	}
	return d.At(0, property)
}

func (d *dense) SetValue(property int, v float64) {
	if d.count != 1 {
		violate("set value", ErrNotScalar)
	}
	d.Set(0, property, v)
}

func (d *dense) GetLinear(offset int) float64 {
	data := d.live("get linear")
	if uint(offset) >= uint(d.LinearLength()) {
		outOfRange("get linear", offset, d.LinearLength())
	}
	return data[offset]
}

func (d *dense) SetLinear(offset int, v float64) {
	data := d.live("set linear")
	if uint(offset) >= uint(d.LinearLength()) {
		outOfRange("set linear", offset, d.LinearLength())
	}
	data[offset] = v
}

func (d *dense) Row(index int) []float64 {
	data := d.live("row")
	if uint(index) >= uint(d.count) {
		outOfRange("row", index, d.count)
	}
	lo, hi := index*d.props, (index+1)*d.props
	return data[lo:hi:hi]
}

func (d *dense) ForEach(visit func(v float64)) {
	data := d.live("for each")
	for _, v := range data[:d.LinearLength()] {
		visit(v)
	}
}

func (d *dense) ForEachRef(visit func(v *float64)) {
	data := d.live("for each")
	n := d.LinearLength()
	for i := 0; i < n; i++ {
		visit(&data[i])
	}
}

func (d *dense) linear() []float64 {
	return d.live("linear")[:d.LinearLength()]
}

// cloneFlat copies the live values into a new Flat of the current shape.
func (d *dense) cloneFlat() *Flat {
	src := d.linear()
	data := make([]float64, len(src))
	copy(data, src)
	return &Flat{dense{data: data, count: d.count, props: d.props}}
}

func (d *dense) reshapeCheck(count, props int) error {
	if err := checkShape("reshape", count, props); err != nil {
		return err
	}
	if count*props != d.LinearLength() {
		return &ShapeError{Op: "reshape", Count: count, Properties: props, Length: d.LinearLength()}
	}
	return nil
}
