package dealloc

// fifo is a growable ring of tokens. Capacity is always a power of two so
// positions wrap with a mask. Not safe for concurrent use; Queue guards it.
type fifo struct {
	buf  []token
	mask int
	head int // next pop
	n    int

	releases int // queued release tokens, barriers excluded
}

func newFIFO(capacity int) fifo {
	c := nextPow2(capacity)
	if c < 2 {
		c = 2
	}
	return fifo{buf: make([]token, c), mask: c - 1}
}

func (f *fifo) len() int { return f.n }

func (f *fifo) push(t token) {
	if f.n == len(f.buf) {
		f.grow()
	}
	f.buf[(f.head+f.n)&f.mask] = t
	f.n++
	if t.release != nil {
		f.releases++
	}
}

func (f *fifo) pop() (token, bool) {
	if f.n == 0 {
		return token{}, false
	}
	t := f.buf[f.head]
	f.buf[f.head] = token{}
	f.head = (f.head + 1) & f.mask
	f.n--
	if t.release != nil {
		f.releases--
	}
	return t, true
}

// grow doubles the ring, unrolling the wrapped contents to start at zero.
func (f *fifo) grow() {
	buf := make([]token, len(f.buf)*2)
	k := copy(buf, f.buf[f.head:])
	copy(buf[k:], f.buf[:f.head])
	f.buf = buf
	f.mask = len(buf) - 1
	f.head = 0
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
