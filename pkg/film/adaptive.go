package film

import "github.com/df07/go-montecarlo-raytracer/pkg/core"

// DarkDetection selects how the noise threshold is scaled down in dark
// regions, which need a lower absolute threshold to avoid under-sampling
type DarkDetection string

const (
	DarkDetectionNone   DarkDetection = "none"
	DarkDetectionLinear DarkDetection = "linear"
	DarkDetectionCurve  DarkDetection = "curve"
)

// NoiseParams configures the adaptive sampling noise detection
type NoiseParams struct {
	// Threshold is the base color-difference threshold; <= 0 disables
	// adaptive sampling (every pixel is resampled every pass)
	Threshold float64

	DarkDetection       DarkDetection
	DarkThresholdFactor float64 // linear mode strength in [0,1]

	// DetectColorNoise extends the difference metric with opponent
	// color channels, catching chroma noise at equal brightness
	DetectColorNoise bool

	// VarianceEdgeSize x VarianceEdgeSize window for the transition
	// count check; VariancePixels is the count that flags the window
	// (0 disables the check)
	VarianceEdgeSize int
	VariancePixels   int

	// ClampSamples proportionally clamps sample RGB before
	// accumulation; 0 disables
	ClampSamples float64
}

// DefaultNoiseParams returns the noise detection defaults
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Threshold:        0.05,
		DarkDetection:    DarkDetectionNone,
		VarianceEdgeSize: 10,
		VariancePixels:   0,
	}
}

// darkThresholdCurve is the hand-tuned piecewise-linear threshold for
// curve-mode dark detection. The breakpoints are an empirical policy;
// they are interpolated, never extrapolated.
var darkThresholdCurve = []struct {
	brightness float64
	threshold  float64
}{
	{0.10, 0.0001},
	{0.20, 0.0010},
	{0.30, 0.0020},
	{0.40, 0.0035},
	{0.50, 0.0055},
	{0.60, 0.0075},
	{0.70, 0.0100},
	{0.80, 0.0150},
	{0.90, 0.0250},
	{1.00, 0.0400},
	{1.20, 0.0800},
	{1.40, 0.0950},
	{1.80, 0.1000},
}

// darkThresholdCurveInterpolate maps pixel brightness to a threshold by
// linear interpolation between the curve breakpoints
func darkThresholdCurveInterpolate(brightness float64) float64 {
	if brightness <= darkThresholdCurve[0].brightness {
		return darkThresholdCurve[0].threshold
	}
	for i := 1; i < len(darkThresholdCurve); i++ {
		hi := darkThresholdCurve[i]
		if brightness <= hi.brightness {
			lo := darkThresholdCurve[i-1]
			t := (brightness - lo.brightness) / (hi.brightness - lo.brightness)
			return lo.threshold + t*(hi.threshold-lo.threshold)
		}
	}
	return darkThresholdCurve[len(darkThresholdCurve)-1].threshold
}

// scaledThreshold applies the configured dark-region policy to the base
// threshold for a pixel of the given brightness
func (p NoiseParams) scaledThreshold(brightness float64) float64 {
	switch p.DarkDetection {
	case DarkDetectionLinear:
		if p.DarkThresholdFactor > 0 {
			return p.Threshold * ((1 - p.DarkThresholdFactor) + brightness*p.DarkThresholdFactor)
		}
	case DarkDetectionCurve:
		return darkThresholdCurveInterpolate(brightness)
	}
	return p.Threshold
}

// recomputeResampleFlags rewrites the resample bitmap from the
// stabilized Combined layer and returns the flagged pixel count. Runs at
// the pass barrier only. With adaptive sampling off (or threshold 0)
// every pixel is flagged.
func (f *Film) recomputeResampleFlags(adaptive bool) int {
	p := f.cfg.Noise
	if !adaptive || p.Threshold <= 0 {
		f.flags.fill(true)
		return f.w * f.h
	}

	f.flags.fill(false)

	combined := f.images[f.layerIndex(core.LayerCombined)]
	normalized := func(x, y int) core.Rgba {
		idx := y*f.w + x
		return combined[idx].Normalized(f.weights[idx])
	}

	varianceHalfEdge := p.VarianceEdgeSize / 2

	for y := 0; y < f.h-1; y++ {
		for x := 0; x < f.w-1; x++ {
			// pixels that never received a sample (checkpoint reload
			// with disjoint regions) must always be rendered
			if f.weights[y*f.w+x] <= 0 {
				f.flags.set(x, y, true)
			}

			pixCol := normalized(x, y)
			thresh := p.scaledThreshold(pixCol.Brightness())

			// 2x2 neighborhood differencing: right, down, down-right,
			// down-left
			if pixCol.ColorDifference(normalized(x+1, y), p.DetectColorNoise) >= thresh {
				f.flags.set(x, y, true)
				f.flags.set(x+1, y, true)
			}
			if pixCol.ColorDifference(normalized(x, y+1), p.DetectColorNoise) >= thresh {
				f.flags.set(x, y, true)
				f.flags.set(x, y+1, true)
			}
			if pixCol.ColorDifference(normalized(x+1, y+1), p.DetectColorNoise) >= thresh {
				f.flags.set(x, y, true)
				f.flags.set(x+1, y+1, true)
			}
			if x > 0 && pixCol.ColorDifference(normalized(x-1, y+1), p.DetectColorNoise) >= thresh {
				f.flags.set(x, y, true)
				f.flags.set(x-1, y+1, true)
			}

			if p.VariancePixels > 0 {
				f.varianceCheck(x, y, thresh, varianceHalfEdge)
			}
		}
	}

	return f.flags.count()
}

// varianceCheck counts noisy horizontal and vertical transitions inside
// the variance window around (x, y); when the count reaches the
// configured pixel threshold, the whole window block is flagged. This
// catches low-frequency noise that adjacent-pixel differencing misses.
func (f *Film) varianceCheck(x, y int, thresh float64, halfEdge int) {
	p := f.cfg.Noise
	combined := f.images[f.layerIndex(core.LayerCombined)]
	normalized := func(x, y int) core.Rgba {
		idx := y*f.w + x
		return combined[idx].Normalized(f.weights[idx])
	}

	varianceX, varianceY := 0, 0

	for xd := -halfEdge; xd < halfEdge-1; xd++ {
		xi := min(max(x+xd, 0), f.w-2)
		c0 := normalized(xi, y)
		c1 := normalized(xi+1, y)
		if c0.ColorDifference(c1, p.DetectColorNoise) >= thresh {
			varianceX++
		}
	}
	for yd := -halfEdge; yd < halfEdge-1; yd++ {
		yi := min(max(y+yd, 0), f.h-2)
		c0 := normalized(x, yi)
		c1 := normalized(x, yi+1)
		if c0.ColorDifference(c1, p.DetectColorNoise) >= thresh {
			varianceY++
		}
	}

	if varianceX+varianceY >= p.VariancePixels {
		for xd := -halfEdge; xd < halfEdge; xd++ {
			for yd := -halfEdge; yd < halfEdge; yd++ {
				xi := min(max(x+xd, 0), f.w-1)
				yi := min(max(y+yd, 0), f.h-1)
				f.flags.set(xi, yi, true)
			}
		}
	}
}
