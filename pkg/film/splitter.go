package film

import (
	"math/rand"
	"sort"
)

// TilesOrder selects the order in which render areas are handed out
type TilesOrder string

const (
	TilesOrderLinear TilesOrder = "linear"
	TilesOrderRandom TilesOrder = "random"
	TilesOrderCentre TilesOrder = "centre"
)

// RenderArea is one rectangular unit of render work. The safe inner
// rectangle [SX0,SX1)x[SY0,SY1) is inset by the ceiling of the filter
// half-width: samples there cannot splat outside the area's outer
// bounds, so tile overlap handling only concerns the border band.
type RenderArea struct {
	X, Y, W, H         int
	SX0, SX1, SY0, SY1 int
}

// Splitter partitions the render rectangle into tiles. It is immutable
// after construction; concurrent hand-out is driven by the film's atomic
// area counter indexing into the precomputed order.
type Splitter struct {
	areas []RenderArea
}

// NewSplitter decomposes the rectangle at (x0, y0) of size width x height
// into tileSize tiles in the given order. Edge tiles are clipped. The
// seed makes the random and centre orders reproducible.
func NewSplitter(width, height, x0, y0, tileSize int, order TilesOrder, seed int64) *Splitter {
	if tileSize <= 0 {
		tileSize = 32
	}

	var areas []RenderArea
	for y := y0; y < y0+height; y += tileSize {
		for x := x0; x < x0+width; x += tileSize {
			a := RenderArea{
				X: x,
				Y: y,
				W: min(tileSize, x0+width-x),
				H: min(tileSize, y0+height-y),
			}
			areas = append(areas, a)
		}
	}

	switch order {
	case TilesOrderRandom:
		random := rand.New(rand.NewSource(seed))
		random.Shuffle(len(areas), func(i, j int) {
			areas[i], areas[j] = areas[j], areas[i]
		})
	case TilesOrderCentre:
		cx := float64(x0) + float64(width)/2
		cy := float64(y0) + float64(height)/2
		sort.SliceStable(areas, func(i, j int) bool {
			return centreDist2(areas[i], cx, cy) < centreDist2(areas[j], cx, cy)
		})
	}

	return &Splitter{areas: areas}
}

func centreDist2(a RenderArea, cx, cy float64) float64 {
	dx := float64(a.X) + float64(a.W)/2 - cx
	dy := float64(a.Y) + float64(a.H)/2 - cy
	return dx*dx + dy*dy
}

// Size returns the number of areas
func (s *Splitter) Size() int {
	return len(s.areas)
}

// Area returns the n-th area in hand-out order; ok is false once n is
// past the end, signalling exhaustion to the caller
func (s *Splitter) Area(n int) (RenderArea, bool) {
	if n < 0 || n >= len(s.areas) {
		return RenderArea{}, false
	}
	return s.areas[n], true
}
