package renderer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
	"github.com/df07/go-montecarlo-raytracer/pkg/film"
	"github.com/df07/go-montecarlo-raytracer/pkg/integrator"
)

// ErrAborted is returned when the render stopped on the film's
// cooperative abort flag, typically after an output write failure
var ErrAborted = errors.New("renderer: render aborted")

// Renderer drives the progressive render: the integrator's preprocess,
// then a pass loop where worker goroutines pull areas from the film,
// trace them and hand them back. The film decides between passes which
// pixels still need work.
type Renderer struct {
	cfg        Config
	scene      core.Scene
	camera     *Camera
	integrator integrator.Integrator
	film       *film.Film
	logger     core.Logger
}

// New validates the setup and assembles a renderer
func New(cfg Config, sc core.Scene, camera *Camera, logger core.Logger) (*Renderer, error) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, errors.New("renderer: no scene")
	}
	if camera == nil {
		return nil, errors.New("renderer: no camera")
	}
	if len(sc.Lights()) == 0 && sc.Background() == nil {
		return nil, errors.New("renderer: scene has no lights and no background")
	}

	in, err := integrator.New(cfg.Strategy, cfg.Integrator, logger)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		cfg:        cfg,
		scene:      sc,
		camera:     camera,
		integrator: in,
		film:       film.New(cfg.Film, logger),
		logger:     logger,
	}, nil
}

// Film exposes the image film, for registering outputs and inspecting
// the result
func (r *Renderer) Film() *film.Film {
	return r.film
}

// AddOutput registers an output for normalized pixels
func (r *Renderer) AddOutput(out core.Output) {
	r.film.AddOutput(out)
}

// Render runs the full progressive render. It returns when the pass
// budget is spent, the noise detection finds nothing left to refine, the
// context is cancelled, or the render aborts.
func (r *Renderer) Render(ctx context.Context) error {
	start := time.Now()

	if err := r.integrator.Preprocess(ctx, r.scene); err != nil {
		return fmt.Errorf("renderer: preprocess: %w", err)
	}

	r.film.Init(r.cfg.AAPasses)
	if r.film.Resumed() {
		r.logger.Printf("renderer: resuming from film checkpoint at %d samples per pixel\n", r.film.SamplingOffset())
	}
	r.logger.Printf("renderer: %s, %d passes, %d workers\n", r.integrator.Name(), r.cfg.AAPasses, r.cfg.NumThreads())

	for pass := 1; ; pass++ {
		samples := r.cfg.AASamples
		if pass > 1 {
			samples = r.cfg.AAIncSamples
		}

		if err := r.renderPass(ctx, pass, samples); err != nil {
			return err
		}
		if r.film.IsAborted() {
			return ErrAborted
		}
		r.film.AddSamplingOffset(uint32(samples))

		if pass >= r.cfg.AAPasses {
			break
		}
		if r.film.NextPass(true) == 0 {
			r.logger.Printf("renderer: noise threshold reached, stopping after pass %d\n", pass)
			break
		}
	}

	r.film.Flush(film.FlushAll)
	if r.film.IsAborted() {
		return ErrAborted
	}
	r.film.Finish()

	r.logger.Printf("renderer: finished in %v\n", time.Since(start))
	return nil
}

// renderPass runs one pass's worth of areas through the worker group.
// The errgroup Wait is the pass barrier: NextPass must not run with
// samples in flight.
func (r *Renderer) renderPass(ctx context.Context, pass, samples int) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < r.cfg.NumThreads(); w++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				area, ok := r.film.NextArea()
				if !ok {
					return nil
				}
				if err := r.renderArea(ctx, area, pass, samples); err != nil {
					return err
				}
				r.film.FinishArea(area)
			}
		})
	}
	return g.Wait()
}

// renderArea traces every flagged pixel of one area. The per-area
// random stream is seeded from the area position and the pass, so
// re-rendering reproduces the image regardless of worker scheduling.
func (r *Renderer) renderArea(ctx context.Context, area film.RenderArea, pass, samples int) error {
	seed := r.cfg.Integrator.Seed +
		int64(pass)*31337 +
		int64(area.Y)*73856093 +
		int64(area.X)*19349663
	rng := rand.New(rand.NewSource(seed))

	frame := &integrator.Frame{
		Scene:   r.scene,
		Sampler: core.NewRandomSampler(rng),
		Arena:   core.NewArena(4096),
		Layers:  r.film.NewColorLayers(),
	}

	for j := area.Y; j < area.Y+area.H; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.film.IsAborted() {
			return nil
		}
		for i := area.X; i < area.X+area.W; i++ {
			if !r.film.DoMoreSamples(i, j) {
				continue
			}
			for s := 0; s < samples; s++ {
				dx := rng.Float64()
				dy := rng.Float64()
				ray := r.camera.GetRay(i, j, dx, dy, rng)

				frame.Layers.Reset()
				col := r.integrator.Integrate(frame, ray)
				frame.Layers.Set(core.LayerCombined, col)
				frame.Layers.SetAlpha(col.A)

				r.film.AddSample(i, j, dx, dy, frame.Layers)
			}
		}
	}
	return nil
}
