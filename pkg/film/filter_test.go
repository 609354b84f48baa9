package film

import (
	"math"
	"testing"
)

func TestFilterTableWidth(t *testing.T) {
	tests := []struct {
		name       string
		filterType FilterType
		pixelWidth float64
		expected   float64
	}{
		{"box default", FilterBox, 1.5, 0.75},
		{"gauss doubles", FilterGauss, 1.5, 1.5},
		{"mitchell scales", FilterMitchell, 1.5, 1.95},
		{"lanczos unscaled", FilterLanczos, 2.0, 1.0},
		{"clamped to minimum", FilterBox, 0.5, 0.501},
		{"clamped to maximum", FilterGauss, 20.0, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := NewFilterTable(tt.filterType, tt.pixelWidth)
			if math.Abs(ft.Width()-tt.expected) > 1e-9 {
				t.Errorf("Width() = %v, expected %v", ft.Width(), tt.expected)
			}
		})
	}
}

func TestFilterWeightSymmetry(t *testing.T) {
	for _, ftype := range []FilterType{FilterBox, FilterGauss, FilterMitchell, FilterLanczos} {
		ft := NewFilterTable(ftype, 1.5)
		w := ft.Width()

		for _, d := range []struct{ dx, dy float64 }{
			{0.1 * w, 0.3 * w},
			{0.5 * w, 0.5 * w},
			{0.9 * w, 0.2 * w},
		} {
			plain := ft.Weight(d.dx, d.dy)
			mirrored := ft.Weight(-d.dx, -d.dy)
			swapped := ft.Weight(d.dy, d.dx)
			if plain != mirrored {
				t.Errorf("%s: Weight(%v, %v) = %v but mirrored = %v", ftype, d.dx, d.dy, plain, mirrored)
			}
			if plain != swapped {
				t.Errorf("%s: Weight(%v, %v) = %v but swapped = %v", ftype, d.dx, d.dy, plain, swapped)
			}
		}
	}
}

func TestBoxFilterUniformWeight(t *testing.T) {
	ft := NewFilterTable(FilterBox, 1.5)
	w := ft.Width()
	for _, frac := range []float64{0.0, 0.25, 0.5, 0.75, 0.99} {
		if got := ft.Weight(frac*w, frac*w); got != 1.0 {
			t.Errorf("box Weight at %v of support = %v, expected 1", frac, got)
		}
	}
}

func TestFilterWeightFallsOff(t *testing.T) {
	for _, ftype := range []FilterType{FilterGauss, FilterMitchell} {
		ft := NewFilterTable(ftype, 1.5)
		w := ft.Width()

		center := ft.Weight(0, 0)
		edge := ft.Weight(0.99*w, 0.99*w)
		if center <= edge {
			t.Errorf("%s: center weight %v not greater than edge weight %v", ftype, center, edge)
		}
		if edge < 0 {
			t.Errorf("%s: edge weight %v is negative", ftype, edge)
		}
	}
}

func TestGaussKernelReachesZero(t *testing.T) {
	// the gaussExp offset pulls the kernel to zero at distance 1.5
	if got := filterGauss(1.5, 0); got != 0 {
		t.Errorf("filterGauss(1.5, 0) = %v, expected 0", got)
	}
	if got := filterGauss(0, 0); got <= 0.99 {
		t.Errorf("filterGauss(0, 0) = %v, expected near 1", got)
	}
}

func TestMitchellKernelValues(t *testing.T) {
	if got := filterMitchell(0, 0); math.Abs(got-0.88888889) > 1e-6 {
		t.Errorf("filterMitchell(0, 0) = %v, expected 0.88888889", got)
	}
	// support ends where the scaled distance reaches 2
	if got := filterMitchell(1.0, 0); got != 0 {
		t.Errorf("filterMitchell(1, 0) = %v, expected 0", got)
	}
}

func TestLanczosKernelValues(t *testing.T) {
	if got := filterLanczos2(0, 0); got != 1.0 {
		t.Errorf("filterLanczos2(0, 0) = %v, expected 1", got)
	}
	// first sinc zero crossing
	if got := filterLanczos2(1.0, 0); math.Abs(got) > 1e-9 {
		t.Errorf("filterLanczos2(1, 0) = %v, expected 0", got)
	}
	if got := filterLanczos2(2.5, 0); got != 0 {
		t.Errorf("filterLanczos2(2.5, 0) = %v, expected 0 outside support", got)
	}
}
