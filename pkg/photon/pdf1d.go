package photon

import "sort"

// Pdf1D is a piecewise-constant 1D probability distribution, used to
// pick lights proportionally to their emitted power.
type Pdf1D struct {
	f        []float64
	cdf      []float64 // len(f)+1 cumulative sums, cdf[len(f)] == 1
	integral float64
}

// NewPdf1D builds the distribution from non-negative weights. A zero
// integral degrades to the uniform distribution.
func NewPdf1D(f []float64) *Pdf1D {
	p := &Pdf1D{
		f:   append([]float64(nil), f...),
		cdf: make([]float64, len(f)+1),
	}
	for i, v := range p.f {
		p.integral += v
		p.cdf[i+1] = p.integral
	}
	if p.integral > 0 {
		for i := range p.cdf {
			p.cdf[i] /= p.integral
		}
	} else {
		for i := range p.cdf {
			p.cdf[i] = float64(i) / float64(len(f))
		}
	}
	return p
}

// Integral returns the sum of the weights
func (p *Pdf1D) Integral() float64 {
	return p.integral
}

// Count returns the number of weights
func (p *Pdf1D) Count() int {
	return len(p.f)
}

// DSample maps a uniform u in [0,1) to a weight index. The returned pdf
// is the discrete probability of that index.
func (p *Pdf1D) DSample(u float64) (int, float64) {
	i := sort.SearchFloat64s(p.cdf, u)
	// SearchFloat64s finds the first cdf >= u; the owning interval is the
	// one ending there
	if i > 0 {
		i--
	}
	if i >= len(p.f) {
		i = len(p.f) - 1
	}
	return i, p.cdf[i+1] - p.cdf[i]
}
