package integrator

import (
	"context"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// DirectLight estimates direct lighting with MIS, photon-map caustics,
// ambient occlusion and exact specular recursion. Diffuse indirect light
// is not transported; that is the path tracing strategy's job.
type DirectLight struct {
	monteCarlo
}

// NewDirectLight creates a direct lighting integrator
func NewDirectLight(cfg Config, logger core.Logger) *DirectLight {
	return &DirectLight{monteCarlo{cfg: cfg, logger: logger}}
}

// Name returns the strategy name
func (in *DirectLight) Name() string { return string(StrategyDirectLight) }

// Preprocess builds the light table and the caustic photon map
func (in *DirectLight) Preprocess(ctx context.Context, scene core.Scene) error {
	return in.preprocess(ctx, scene)
}

// Integrate estimates radiance for one camera ray
func (in *DirectLight) Integrate(frame *Frame, ray core.DifferentialRay) core.Rgba {
	frame.passThrough = 0
	frame.Arena.Reset()
	return in.radiance(frame, ray.Ray, 0)
}

func (in *DirectLight) radiance(frame *Frame, ray core.Ray, depth int) core.Rgba {
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
