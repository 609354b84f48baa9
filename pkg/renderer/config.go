package renderer

import (
	"fmt"
	"runtime"

	"github.com/df07/go-montecarlo-raytracer/pkg/film"
	"github.com/df07/go-montecarlo-raytracer/pkg/integrator"
)

// Config is the full render configuration: the pass schedule and worker
// count here, the accumulation surface in Film and the estimation
// surface in Integrator.
type Config struct {
	Strategy integrator.Strategy

	// AAPasses is the pass budget. The first pass renders AASamples on
	// every pixel; passes 2..AAPasses render AAIncSamples on the pixels
	// the noise detection flags.
	AAPasses     int
	AASamples    int
	AAIncSamples int

	// Threads is the worker count; <= 0 selects the CPU count
	Threads int

	Film       film.Config
	Integrator integrator.Config
}

// DefaultConfig returns the render defaults for an image size
func DefaultConfig(width, height int) Config {
	return Config{
		Strategy:     integrator.StrategyDirectLight,
		AAPasses:     4,
		AASamples:    4,
		AAIncSamples: 2,
		Threads:      -1,
		Film:         film.DefaultConfig(width, height),
		Integrator:   integrator.DefaultConfig(),
	}
}

// NumThreads resolves the effective worker count
func (c *Config) NumThreads() int {
	if c.Threads <= 0 {
		return runtime.NumCPU()
	}
	return c.Threads
}

// Validate rejects configurations that cannot render
func (c *Config) Validate() error {
	if c.Film.Width <= 0 || c.Film.Height <= 0 {
		return fmt.Errorf("renderer: invalid image size %dx%d", c.Film.Width, c.Film.Height)
	}
	if c.AAPasses < 1 {
		return fmt.Errorf("renderer: pass budget must be at least 1, got %d", c.AAPasses)
	}
	if c.AASamples < 1 {
		return fmt.Errorf("renderer: first-pass samples must be at least 1, got %d", c.AASamples)
	}
	if c.AAPasses > 1 && c.AAIncSamples < 1 {
		return fmt.Errorf("renderer: incremental samples must be at least 1, got %d", c.AAIncSamples)
	}
	return nil
}
