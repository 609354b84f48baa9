package film

// bitmap is a packed per-pixel boolean grid used for the resample flags
type bitmap struct {
	w, h  int
	words []uint64
}

func newBitmap(w, h int) *bitmap {
	return &bitmap{w: w, h: h, words: make([]uint64, (w*h+63)/64)}
}

func (b *bitmap) get(x, y int) bool {
	i := y*b.w + x
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b *bitmap) set(x, y int, v bool) {
	i := y*b.w + x
	if v {
		b.words[i>>6] |= 1 << (uint(i) & 63)
	} else {
		b.words[i>>6] &^= 1 << (uint(i) & 63)
	}
}

func (b *bitmap) fill(v bool) {
	var w uint64
	if v {
		w = ^uint64(0)
	}
	for i := range b.words {
		b.words[i] = w
	}
}

// count returns the number of set flags within the valid w*h region
func (b *bitmap) count() int {
	n := 0
	for y := 0; y < b.h; y++ {
		for x := 0; x < b.w; x++ {
			if b.get(x, y) {
				n++
			}
		}
	}
	return n
}
