package film

import (
	"math"
	"testing"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

func TestDarkThresholdCurveInterpolate(t *testing.T) {
	tests := []struct {
		brightness float64
		expected   float64
	}{
		{0.0, 0.0001},  // below first breakpoint
		{0.10, 0.0001}, // exact breakpoint
		{0.15, 0.00055},
		{1.00, 0.0400},
		{1.60, 0.0975}, // midway between 1.40 and 1.80
		{5.00, 0.1000}, // above last breakpoint
	}
	for _, tt := range tests {
		if got := darkThresholdCurveInterpolate(tt.brightness); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("interpolate(%v) = %v, expected %v", tt.brightness, got, tt.expected)
		}
	}
}

func TestScaledThreshold(t *testing.T) {
	base := NoiseParams{Threshold: 0.1}

	if got := base.scaledThreshold(0.2); got != 0.1 {
		t.Errorf("no dark detection: %v, expected base threshold", got)
	}

	linear := base
	linear.DarkDetection = DarkDetectionLinear
	linear.DarkThresholdFactor = 1.0
	if got := linear.scaledThreshold(0.2); math.Abs(got-0.02) > 1e-12 {
		t.Errorf("linear full factor: %v, expected 0.02", got)
	}
	linear.DarkThresholdFactor = 0.5
	if got := linear.scaledThreshold(0.2); math.Abs(got-0.06) > 1e-12 {
		t.Errorf("linear half factor: %v, expected 0.06", got)
	}
	linear.DarkThresholdFactor = 0
	if got := linear.scaledThreshold(0.2); got != 0.1 {
		t.Errorf("linear zero factor: %v, expected base threshold", got)
	}

	curve := base
	curve.DarkDetection = DarkDetectionCurve
	if got := curve.scaledThreshold(1.0); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("curve at brightness 1: %v, expected 0.04", got)
	}
}

func TestRecomputeFlagsZeroWeightPixels(t *testing.T) {
	cfg := narrowFilterConfig(4, 4)
	f := newTestFilm(t, cfg)
	f.Init(2)

	// sample everything except (1, 1); the hole must stay flagged even
	// though its neighborhood is uniform
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x == 1 && y == 1 {
				continue
			}
			cl := f.NewColorLayers()
			cl.Set(core.LayerCombined, core.NewRgba(0.5, 0.5, 0.5, 1))
			f.AddSample(x, y, 0.5, 0.5, cl)
		}
	}

	f.NextPass(true)
	if !f.DoMoreSamples(1, 1) {
		t.Error("zero-weight pixel not flagged for resampling")
	}
}

func TestRecomputeFlagsDetectsChromaNoise(t *testing.T) {
	cfg := narrowFilterConfig(8, 8)
	cfg.Noise.DetectColorNoise = true
	f := newTestFilm(t, cfg)
	f.Init(2)

	// equal brightness, different chroma: invisible to the brightness
	// metric, caught by the opponent channels
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			col := core.NewRgba(0.6, 0.3, 0.6, 1)
			if x == 4 && y == 4 {
				col = core.NewRgba(0.3, 0.6, 0.6, 1)
			}
			cl := f.NewColorLayers()
			cl.Set(core.LayerCombined, col)
			f.AddSample(x, y, 0.5, 0.5, cl)
		}
	}

	if n := f.NextPass(true); n == 0 {
		t.Error("chroma outlier not detected with DetectColorNoise")
	}

	// without color noise detection the same image is considered clean
	cfg.Noise.DetectColorNoise = false
	g := newTestFilm(t, cfg)
	g.Init(2)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			col := core.NewRgba(0.6, 0.3, 0.6, 1)
			if x == 4 && y == 4 {
				col = core.NewRgba(0.3, 0.6, 0.6, 1)
			}
			cl := g.NewColorLayers()
			cl.Set(core.LayerCombined, col)
			g.AddSample(x, y, 0.5, 0.5, cl)
		}
	}
	if n := g.NextPass(true); n != 0 {
		t.Errorf("brightness metric flagged %d pixels on an equal-brightness image", n)
	}
}

func TestVarianceCheckFlagsWindow(t *testing.T) {
	cfg := narrowFilterConfig(16, 16)
	cfg.Noise.Threshold = 0.05
	cfg.Noise.VarianceEdgeSize = 4
	cfg.Noise.VariancePixels = 2
	f := newTestFilm(t, cfg)
	f.Init(2)

	// checkerboard noise in one corner, flat elsewhere
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			col := core.NewRgba(0.5, 0.5, 0.5, 1)
			if x < 6 && y < 6 && (x+y)%2 == 0 {
				col = core.NewRgba(0.9, 0.9, 0.9, 1)
			}
			cl := f.NewColorLayers()
			cl.Set(core.LayerCombined, col)
			f.AddSample(x, y, 0.5, 0.5, cl)
		}
	}

	f.NextPass(true)
	if !f.DoMoreSamples(2, 2) {
		t.Error("noisy corner not flagged")
	}
	if f.DoMoreSamples(12, 12) {
		t.Error("flat region flagged by variance check")
	}
}

func TestDefaultNoiseParams(t *testing.T) {
	p := DefaultNoiseParams()
	if p.Threshold != 0.05 {
		t.Errorf("default threshold = %v, expected 0.05", p.Threshold)
	}
	if p.DarkDetection != DarkDetectionNone {
		t.Errorf("default dark detection = %v, expected none", p.DarkDetection)
	}
}
