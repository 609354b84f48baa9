package core

// Arena is a fixed-capacity bump allocator for transient per-ray material
// state. Each worker owns one arena and resets it before tracing a camera
// ray, so material setup never allocates on the heap in the sampling hot
// path. Slices handed out by Alloc are valid until the next Reset; the
// arena is never shared between goroutines.
type Arena struct {
	buf  []float64
	next int
}

// NewArena creates an arena with capacity for n float64 values
func NewArena(n int) *Arena {
	return &Arena{buf: make([]float64, n)}
}

// Alloc returns a zeroed slice of n values from the arena. When the
// arena is exhausted it falls back to the heap, keeping rendering
// correct for materials that declared too small a state size.
func (a *Arena) Alloc(n int) []float64 {
	if a.next+n > len(a.buf) {
		return make([]float64, n)
	}
	s := a.buf[a.next : a.next+n : a.next+n]
	a.next += n
	for i := range s {
		s[i] = 0
	}
	return s
}

// Reset discards all allocations, keeping the backing buffer
func (a *Arena) Reset() {
	a.next = 0
}

// Cap returns the arena capacity in float64 values
func (a *Arena) Cap() int {
	return len(a.buf)
}
