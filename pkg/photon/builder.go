package photon

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// BuildParams configures the caustic photon pre-pass
type BuildParams struct {
	Count   int   // photons to store before the shoot stops
	Depth   int   // maximum photon bounces
	Threads int   // worker goroutines, <= 0 means one per CPU
	Seed    int64 // base seed for the per-worker generators
}

// DefaultBuildParams returns the caustic shooting defaults
func DefaultBuildParams() BuildParams {
	return BuildParams{
		Count: 500000,
		Depth: 5,
	}
}

// photon shooting gives up after this multiple of the requested photon
// count, so scenes without caustic paths terminate
const maxShotsPerPhoton = 100

// BuildCaustics shoots photons from every caustic-emitting light and
// stores those that arrive at a diffuse surface through at least one
// specular interaction. The returned map is built and ready for
// gathering; it is empty when the scene has no caustic lights or the
// shot budget ran out before any photon landed.
func BuildCaustics(ctx context.Context, scene core.Scene, logger core.Logger, params BuildParams) (*Map, error) {
	m := NewMap(params.Count)

	var lights []core.Light
	for _, l := range scene.Lights() {
		if l.ShootsCausticPhotons() {
			lights = append(lights, l)
		}
	}
	if len(lights) == 0 {
		logger.Printf("photon: no caustic lights, skipping photon pass\n")
		m.Build()
		return m, nil
	}

	energies := make([]float64, len(lights))
	for i, l := range lights {
		energies[i] = l.Power()
	}
	lightPower := NewPdf1D(energies)
	logger.Printf("photon: shooting %d caustic photons from %d lights\n", params.Count, len(lights))

	threads := params.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxShots := int64(params.Count) * maxShotsPerPhoton

	var shots, stored atomic.Int64
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(params.Seed + int64(w)))
			arena := core.NewArena(4096)
			var local []Photon

			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				shot := shots.Add(1)
				if shot > maxShots || stored.Load() >= int64(params.Count) {
					break
				}

				local = shootCausticPhoton(scene, lights, lightPower, rng, arena, params.Depth, local, &stored)
			}

			mu.Lock()
			m.Merge(local)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	numShots := min(shots.Load(), maxShots)
	if numShots > 0 {
		m.Scale(1.0 / float64(numShots))
	}

	if m.NumPhotons() < params.Count {
		logger.Printf("photon: stored %d of %d caustic photons after %d shots\n", m.NumPhotons(), params.Count, numShots)
	} else {
		logger.Printf("photon: stored %d caustic photons after %d shots\n", m.NumPhotons(), numShots)
	}

	m.Build()
	return m, nil
}

// shootCausticPhoton traces one photon path and appends any caustic
// deposits to local
func shootCausticPhoton(scene core.Scene, lights []core.Light, lightPower *Pdf1D, rng *rand.Rand, arena *core.Arena, depth int, local []Photon, stored *atomic.Int64) []Photon {
	li, lightPdf := lightPower.DSample(rng.Float64())
	if lightPdf <= 0 {
		return local
	}

	s1 := core.NewVec2(rng.Float64(), rng.Float64())
	s2 := core.NewVec2(rng.Float64(), rng.Float64())
	ray, flux, ok := lights[li].SampleEmission(s1, s2)
	if !ok {
		return local
	}
	flux = flux.Multiply(1.0 / lightPdf)

	// a photon turns caustic on its first specular interaction and stays
	// caustic only while the history is purely specular
	caustic := false

	arena.Reset()
	for bounce := 0; bounce < depth; bounce++ {
		sp, hit := scene.Intersect(ray)
		if !hit {
			break
		}

		state := core.MaterialState{}
		bsdfs := sp.Material.InitState(&state, &sp, arena)
		wo := ray.Direction.Negate()

		if caustic && bsdfs.HasAny(core.BSDFDiffuse) {
			local = append(local, Photon{Pos: sp.Point, Dir: wo, Flux: flux, Normal: sp.Normal})
			stored.Add(1)
			break
		}

		var bs core.BSDFSample
		bs.Types = core.BSDFAll
		wi, col := sp.Material.Sample(&state, &sp, wo, &bs, core.NewVec2(rng.Float64(), rng.Float64()))
		if bs.Pdf <= 0 {
			break
		}

		if bs.SampledFlags.HasAny(core.BSDFSpecular | core.BSDFFilter) {
			if bounce == 0 {
				caustic = true
			}
		} else {
			caustic = false
		}
		if !caustic {
			break
		}

		cos := math.Abs(wi.Dot(sp.Normal))
		flux = flux.MultiplyVec(col).Multiply(cos / bs.Pdf)

		// russian roulette on dim photons
		if bounce > 2 {
			survive := min(flux.Luminance(), 0.95)
			if rng.Float64() >= survive {
				break
			}
			flux = flux.Multiply(1.0 / survive)
		}

		ray = core.NewRay(sp.Point, wi)
	}
	return local
}
