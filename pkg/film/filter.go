package film

import (
	"math"
)

// FilterType selects the pixel reconstruction filter
type FilterType string

const (
	FilterBox      FilterType = "box"
	FilterGauss    FilterType = "gauss"
	FilterMitchell FilterType = "mitchell"
	FilterLanczos  FilterType = "lanczos"
)

const (
	filterTableSize = 16
	maxFilterSize   = 8
)

type filterFunc func(dx, dy float64) float64

func filterBox(dx, dy float64) float64 { return 1.0 }

// Mitchell-Netravali with B = C = 1/3 as suggested by the authors,
// evaluated on x = 2*sqrt(dx^2+dy^2) so the support matches the table
func filterMitchell(dx, dy float64) float64 {
	x := 2.0 * math.Sqrt(dx*dx+dy*dy)
	if x >= 2.0 {
		return 0.0
	}
	if x >= 1.0 { // 1 <= |x| < 2
		return x*(x*(x*-0.38888889+2.0)-3.33333333) + 1.77777778
	}
	return x*x*(1.16666666*x-2.0) + 0.88888889
}

// gaussExp is exp(-6 * 1.5^2), subtracted so the kernel reaches zero at
// the table edge instead of leaving a discontinuity
const gaussExp = 0.00247875

func filterGauss(dx, dy float64) float64 {
	r2 := dx*dx + dy*dy
	return math.Max(0, math.Exp(-6*r2)-gaussExp)
}

// Lanczos windowed sinc, window size 2
func filterLanczos2(dx, dy float64) float64 {
	x := math.Sqrt(dx*dx + dy*dy)
	if x == 0 {
		return 1.0
	}
	if -2 < x && x < 2 {
		a := math.Pi * x
		b := math.Pi / 2 * x
		return (math.Sin(a) * math.Sin(b)) / (a * b)
	}
	return 0.0
}

// FilterTable is the discretized reconstruction filter used to splat a
// sample's contribution across its pixel neighborhood. Weights are
// precomputed once at film construction and immutable afterwards, so
// lookups need no synchronization.
type FilterTable struct {
	table      [filterTableSize * filterTableSize]float64
	width      float64 // filter half-width in pixels
	tableScale float64
}

// NewFilterTable builds the lookup table for the given filter type and
// nominal pixel width. Gauss and Mitchell widen the nominal width by
// fixed multipliers to match their support.
func NewFilterTable(ft FilterType, pixelWidth float64) *FilterTable {
	t := &FilterTable{width: pixelWidth * 0.5}

	var f filterFunc
	switch ft {
	case FilterMitchell:
		f = filterMitchell
		t.width *= 2.6
	case FilterGauss:
		f = filterGauss
		t.width *= 2.0
	case FilterLanczos:
		f = filterLanczos2
	default:
		f = filterBox
	}

	// filter needs to cover at least the area of one pixel and no more
	// than maxFilterSize/2
	t.width = math.Min(math.Max(0.501, t.width), 0.5*maxFilterSize)

	scale := 1.0 / float64(filterTableSize)
	for y := 0; y < filterTableSize; y++ {
		for x := 0; x < filterTableSize; x++ {
			t.table[y*filterTableSize+x] = f((float64(x)+0.5)*scale, (float64(y)+0.5)*scale)
		}
	}

	t.tableScale = 0.9999 * filterTableSize / t.width
	return t
}

// Width returns the filter half-width in pixels
func (t *FilterTable) Width() float64 {
	return t.width
}

// index maps a pixel-space distance to a table cell along one axis
func (t *FilterTable) index(d float64) int {
	i := int(math.Floor(math.Abs(d * t.tableScale)))
	if i >= filterTableSize {
		i = filterTableSize - 1
	}
	return i
}

// Weight returns the discretized filter weight for a sample at
// pixel-space offset (dx, dy) from a pixel center
func (t *FilterTable) Weight(dx, dy float64) float64 {
	return t.table[t.index(dy)*filterTableSize+t.index(dx)]
}
