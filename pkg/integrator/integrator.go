package integrator

import (
	"context"
	"fmt"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// Strategy selects the light transport algorithm
type Strategy string

const (
	StrategyDirectLight Strategy = "directlight"
	StrategyPathTrace   Strategy = "pathtrace"
)

// Frame is the per-worker state threaded through one radiance estimate:
// the scene, the worker's sample stream and scratch arena, and the layer
// set the estimate decomposes into. Frames are never shared between
// goroutines.
type Frame struct {
	Scene   core.Scene
	Sampler core.Sampler
	Arena   *core.Arena
	Layers  *core.ColorLayers

	// transparent pass-through hops taken by the current estimate;
	// bounded separately from the bounce budget
	passThrough int
}

// Sample2D draws a 2D sample from the frame's sample stream
func (f *Frame) Sample2D() core.Vec2 {
	return f.Sampler.Get2D()
}

// Integrator estimates radiance for camera rays. Preprocess runs once
// per render view before any Integrate call; implementations build
// their photon maps and light tables there.
type Integrator interface {
	Name() string
	Preprocess(ctx context.Context, scene core.Scene) error
	Integrate(frame *Frame, ray core.DifferentialRay) core.Rgba
}

// Config is the shared Monte Carlo estimation surface
type Config struct {
	RayDepth    int // specular recursion limit
	ShadowDepth int // transparent surfaces a shadow ray may cross

	TransparentShadows bool

	// TranspBackground makes the background transparent in the alpha
	// channel; TranspRefractedBackground extends that to background seen
	// through refraction
	TranspBackground          bool
	TranspRefractedBackground bool

	// TranspPassThroughConsumesBudget charges transparent pass-through
	// hops against the bounce budget instead of the separate hop cap
	TranspPassThroughConsumesBudget bool

	Caustics       bool
	CausticPhotons int
	CausticDepth   int
	CausticMix     int     // photons gathered per density estimate
	CausticRadius  float64 // gather search radius
	PhotonThreads  int

	UseAO      bool
	AOSamples  int
	AODistance float64
	AOColor    core.Vec3

	// path tracing strategy
	PathSamples               int
	MaxBounces                int
	RussianRouletteMinBounces int

	Seed int64
}

// DefaultConfig returns the estimation defaults
func DefaultConfig() Config {
	return Config{
		RayDepth:       5,
		ShadowDepth:    4,
		CausticPhotons: 500000,
		CausticDepth:   5,
		CausticMix:     100,
		CausticRadius:  0.25,
		AOSamples:      32,
		AODistance:     1.0,
		AOColor:        core.NewVec3(0.9, 0.9, 0.9),

		PathSamples:               32,
		MaxBounces:                5,
		RussianRouletteMinBounces: 3,
	}
}

// New creates the integrator for a strategy
func New(strategy Strategy, cfg Config, logger core.Logger) (Integrator, error) {
	switch strategy {
	case StrategyDirectLight:
		return NewDirectLight(cfg, logger), nil
	case StrategyPathTrace:
		return NewPathTrace(cfg, logger), nil
	default:
		return nil, fmt.Errorf("integrator: unknown strategy %q", strategy)
	}
}
