package integrator

import (
	"context"
	"math"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// PathTrace extends the direct lighting estimate with diffuse indirect
// transport: at the first diffuse hit it traces pathSamples continuation
// paths, estimating one-light direct lighting at every diffuse vertex
// and terminating by Russian roulette or the bounce cap.
type PathTrace struct {
	monteCarlo
}

// NewPathTrace creates a path tracing integrator
func NewPathTrace(cfg Config, logger core.Logger) *PathTrace {
	return &PathTrace{monteCarlo{cfg: cfg, logger: logger}}
}

// Name returns the strategy name
func (in *PathTrace) Name() string { return string(StrategyPathTrace) }

// Preprocess builds the light table and the caustic photon map
func (in *PathTrace) Preprocess(ctx context.Context, scene core.Scene) error {
	return in.preprocess(ctx, scene)
}

// Integrate estimates radiance for one camera ray
func (in *PathTrace) Integrate(frame *Frame, ray core.DifferentialRay) core.Rgba {
	frame.passThrough = 0
	frame.Arena.Reset()
	return in.radiance(frame, ray.Ray, 0)
}

func (in *PathTrace) radiance(frame *Frame, ray core.Ray, depth int) core.Rgba {
	sp, hit := frame.Scene.Intersect(ray)
	if !hit {
		return in.background(frame, ray)
	}

	state := core.MaterialState{}
	bsdfs := sp.Material.InitState(&state, &sp, frame.Arena)
	wo := ray.Direction.Negate()

	col := sp.Material.Emit(&state, &sp, wo)

	if bsdfs.HasAny(core.BSDFDiffuse | core.BSDFGlossy) {
		col = col.Add(in.estimateAllDirect(frame, &sp, &state, wo))

		if in.cfg.Caustics && bsdfs.HasAny(core.BSDFDiffuse) {
			caustic := in.estimateCaustics(frame, &sp, &state, wo)
			col = col.Add(caustic)
			frame.Layers.AddVec3(core.LayerCaustic, caustic)
		}

		if in.cfg.UseAO {
			ao, clay := in.estimateAO(frame, &sp, &state, wo)
			col = col.Add(ao)
			frame.Layers.AddVec3(core.LayerAO, ao)
			frame.Layers.AddVec3(core.LayerAOClay, clay)
		}

		if in.cfg.MaxBounces > 0 {
			col = col.Add(in.estimateIndirect(frame, &sp, &state, wo))
		}
	}

	alpha := 1.0
	if depth < in.cfg.RayDepth {
		spec, specAlpha, hasAlpha := in.recurseSpecular(frame, &sp, &state, wo, depth, in.radiance)
		col = col.Add(spec)
		if hasAlpha {
			alpha = specAlpha
		}
	}

	if depth == 0 {
		frame.Layers.Set(core.LayerZDepth, core.NewRgba(sp.T, sp.T, sp.T, 1))
	}

	return core.NewRgba(col.X, col.Y, col.Z, alpha)
}

// estimateIndirect averages pathSamples continuation paths from the
// given vertex. Emission along a path only counts after a specular
// bounce; diffuse vertices get their light through the one-light direct
// estimate, avoiding double counting.
func (in *PathTrace) estimateIndirect(frame *Frame, first *core.SurfacePoint, firstState *core.MaterialState, firstWo core.Vec3) core.Vec3 {
	n := in.cfg.PathSamples
	if n <= 0 {
		n = 1
	}

	sum := core.Vec3{}
	for i := 0; i < n; i++ {
		sum = sum.Add(in.tracePath(frame, first, firstState, firstWo))
	}
	return sum.Multiply(1.0 / float64(n))
}

func (in *PathTrace) tracePath(frame *Frame, first *core.SurfacePoint, firstState *core.MaterialState, firstWo core.Vec3) core.Vec3 {
	sp := *first
	state := *firstState
	wo := firstWo

	throughput := core.NewVec3(1, 1, 1)
	col := core.Vec3{}

	for bounce := 0; bounce < in.cfg.MaxBounces; bounce++ {
		bs := core.BSDFSample{Types: core.BSDFAll}
		wi, surfCol := sp.Material.Sample(&state, &sp, wo, &bs, frame.Sample2D())
		if bs.Pdf <= 0 {
			break
		}

		cos := math.Abs(wi.Dot(sp.Normal))
		throughput = throughput.MultiplyVec(surfCol).Multiply(cos / bs.Pdf)
		wasSpecular := bs.SampledFlags.HasAny(core.BSDFSpecular | core.BSDFFilter)

		if bounce >= in.cfg.RussianRouletteMinBounces {
			// survival bounded so the compensation factor stays modest
			survive := math.Min(0.95, math.Max(0.5, throughput.Luminance()))
			if frame.Sampler.Get1D() > survive {
				break
			}
			throughput = throughput.Multiply(1.0 / survive)
		}

		ray := core.NewRay(sp.Point, wi)
		next, hit := frame.Scene.Intersect(ray)
		if !hit {
			// the environment is only reachable through specular
			// continuations; diffuse vertices already counted it via
			// their light samples
			if wasSpecular {
				if bg := frame.Scene.Background(); bg != nil {
					col = col.Add(throughput.MultiplyVec(bg.Eval(ray)))
				}
			}
			break
		}

		nextState := core.MaterialState{}
		nextBsdfs := next.Material.InitState(&nextState, &next, frame.Arena)
		nextWo := wi.Negate()

		if wasSpecular {
			col = col.Add(throughput.MultiplyVec(next.Material.Emit(&nextState, &next, nextWo)))
		}

		if nextBsdfs.HasAny(core.BSDFDiffuse | core.BSDFGlossy) {
			col = col.Add(throughput.MultiplyVec(in.estimateOneDirect(frame, &next, &nextState, nextWo)))
		}

		sp = next
		state = nextState
		wo = nextWo
	}

	return col
}
