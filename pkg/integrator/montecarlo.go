package integrator

import (
	"context"
	"math"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
	"github.com/df07/go-montecarlo-raytracer/pkg/photon"
)

// transparent pass-through hops are bounded separately from the bounce
// budget so stacked transparent surfaces cannot recurse forever
const maxPassThroughHops = 32

// monteCarlo is the estimation core shared by the integrator strategies:
// MIS direct lighting, photon-map caustics, ambient occlusion and the
// specular recursion. Strategies embed it and drive their own radiance
// recursion through it.
type monteCarlo struct {
	cfg    Config
	logger core.Logger

	lights     []core.Light
	lightPower *photon.Pdf1D
	causticMap *photon.Map
}

// preprocess builds the light selection table and, when caustics are
// enabled, the caustic photon map
func (mc *monteCarlo) preprocess(ctx context.Context, scene core.Scene) error {
	mc.lights = scene.Lights()

	energies := make([]float64, len(mc.lights))
	for i, l := range mc.lights {
		energies[i] = l.Power()
	}
	mc.lightPower = photon.NewPdf1D(energies)

	if mc.cfg.Caustics {
		m, err := photon.BuildCaustics(ctx, scene, mc.logger, photon.BuildParams{
			Count:   mc.cfg.CausticPhotons,
			Depth:   mc.cfg.CausticDepth,
			Threads: mc.cfg.PhotonThreads,
			Seed:    mc.cfg.Seed,
		})
		if err != nil {
			return err
		}
		mc.causticMap = m
	}
	return nil
}

// estimateAllDirect sums the MIS direct lighting estimate over every
// light
func (mc *monteCarlo) estimateAllDirect(frame *Frame, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3) core.Vec3 {
	col := core.Vec3{}
	for _, light := range mc.lights {
		col = col.Add(mc.directWithLight(frame, light, sp, state, wo))
	}
	return col
}

// estimateOneDirect estimates direct lighting from a single light picked
// proportionally to power, for path vertices where sampling every light
// would be wasted
func (mc *monteCarlo) estimateOneDirect(frame *Frame, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3) core.Vec3 {
	if len(mc.lights) == 0 {
		return core.Vec3{}
	}
	li, pdf := mc.lightPower.DSample(frame.Sampler.Get1D())
	if pdf <= 0 {
		return core.Vec3{}
	}
	return mc.directWithLight(frame, mc.lights[li], sp, state, wo).Multiply(1.0 / pdf)
}

// directWithLight combines the light-sampling and BSDF-sampling
// strategies for one light with the power heuristic. Specular lobes are
// excluded; they are handled by the exact specular recursion.
func (mc *monteCarlo) directWithLight(frame *Frame, light core.Light, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3) core.Vec3 {
	mat := sp.Material
	// delta lobes are excluded: perfect specular and pass-through are
	// handled by the exact recursion, not by sampled direct lighting
	types := core.BSDFAll &^ (core.BSDFSpecular | core.BSDFFilter)
	col := core.Vec3{}

	// light sampling
	if ls, ok := light.Illuminate(sp, frame.Sample2D()); ok && ls.Pdf > 0 {
		cos := math.Abs(ls.Direction.Dot(sp.Normal))
		surfCol := mat.Eval(state, sp, wo, ls.Direction, types)

		unshadowed := surfCol.MultiplyVec(ls.Radiance).Multiply(cos / ls.Pdf)
		frame.Layers.AddVec3(core.LayerDiffuseNoShadow, unshadowed)

		shadowRay := core.NewBoundedRay(sp.Point, ls.Direction, core.RayEpsilon, ls.Distance)
		attenuation, blocked := mc.shadowed(frame, shadowRay, ls.Distance)
		if !blocked {
			contrib := unshadowed.MultiplyVec(attenuation)
			// delta lights cannot be hit by BSDF rays, so their light
			// sample carries full weight
			if light.CanIntersect() {
				bsdfPdf := mat.Pdf(state, sp, wo, ls.Direction, types)
				contrib = contrib.Multiply(core.PowerHeuristic(1, ls.Pdf, 1, bsdfPdf))
			}
			col = col.Add(contrib)

			diffuse := mat.Eval(state, sp, wo, ls.Direction, core.BSDFDiffuse|core.BSDFReflect)
			frame.Layers.AddVec3(core.LayerDiffuse, diffuse.MultiplyVec(ls.Radiance).Multiply(cos/ls.Pdf))
			glossy := mat.Eval(state, sp, wo, ls.Direction, core.BSDFGlossy|core.BSDFReflect)
			frame.Layers.AddVec3(core.LayerGlossy, glossy.MultiplyVec(ls.Radiance).Multiply(cos/ls.Pdf))
		} else {
			frame.Layers.AddVec3(core.LayerShadow, unshadowed)
		}
	}

	// BSDF sampling, only useful when the light has a surface to hit
	if light.CanIntersect() {
		bs := core.BSDFSample{Types: types}
		wi, surfCol := mat.Sample(state, sp, wo, &bs, frame.Sample2D())
		if bs.Pdf > 0 {
			ray := core.NewRay(sp.Point, wi)
			if lh, hit := light.Intersect(ray); hit && lh.Pdf > 0 {
				shadowRay := core.NewBoundedRay(sp.Point, wi, core.RayEpsilon, lh.T)
				if attenuation, blocked := mc.shadowed(frame, shadowRay, lh.T); !blocked {
					cos := math.Abs(wi.Dot(sp.Normal))
					w := core.PowerHeuristic(1, bs.Pdf, 1, lh.Pdf)
					col = col.Add(surfCol.MultiplyVec(lh.Radiance).MultiplyVec(attenuation).Multiply(cos * w / bs.Pdf))
				}
			}
		}
	}

	return col
}

// shadowed resolves visibility along a shadow ray, with transparent
// attenuation when configured
func (mc *monteCarlo) shadowed(frame *Frame, ray core.Ray, maxDist float64) (core.Vec3, bool) {
	if mc.cfg.TransparentShadows {
		return frame.Scene.ShadowAttenuation(ray, maxDist, mc.cfg.ShadowDepth, frame.Arena)
	}
	if frame.Scene.IsShadowed(ray, maxDist) {
		return core.Vec3{}, true
	}
	return core.NewVec3(1, 1, 1), false
}

// estimateCaustics density-estimates caustic radiance from the photon
// map: gathered flux over the disc of the gather radius. Only diffuse
// receivers gather; the specular-history restriction was enforced at
// deposit time.
func (mc *monteCarlo) estimateCaustics(frame *Frame, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3) core.Vec3 {
	if mc.causticMap == nil || mc.causticMap.NumPhotons() == 0 {
		return core.Vec3{}
	}

	maxDist2 := mc.cfg.CausticRadius * mc.cfg.CausticRadius
	found, r2 := mc.causticMap.Gather(sp.Point, mc.cfg.CausticMix, maxDist2)
	if len(found) == 0 || r2 <= 0 {
		return core.Vec3{}
	}

	sum := core.Vec3{}
	for _, f := range found {
		// reject photons deposited on the far side of thin geometry
		if f.Photon.Normal.Dot(sp.Normal) <= 0 {
			continue
		}
		surfCol := sp.Material.Eval(state, sp, wo, f.Photon.Dir, core.BSDFAll)
		sum = sum.Add(surfCol.MultiplyVec(f.Photon.Flux))
	}
	return sum.Multiply(1.0 / (math.Pi * r2))
}

// estimateAO returns the ambient occlusion estimate in two variants: the
// material-modulated one added to the combined estimate and the clay one
// that ignores the surface color
func (mc *monteCarlo) estimateAO(frame *Frame, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3) (ao, clay core.Vec3) {
	n := mc.cfg.AOSamples
	if n <= 0 {
		n = 1
	}
	mat := sp.Material

	for i := 0; i < n; i++ {
		s := frame.Sample2D()

		bs := core.BSDFSample{Types: core.BSDFDiffuse | core.BSDFGlossy | core.BSDFReflect}
		wi, surfCol := mat.Sample(state, sp, wo, &bs, s)
		if bs.Pdf > 0 {
			ray := core.NewBoundedRay(sp.Point, wi, core.RayEpsilon, mc.cfg.AODistance)
			if !frame.Scene.IsShadowed(ray, mc.cfg.AODistance) {
				cos := math.Abs(wi.Dot(sp.Normal))
				ao = ao.Add(mc.cfg.AOColor.MultiplyVec(surfCol).Multiply(cos / bs.Pdf))
			}
		}

		// clay ignores the material: cosine-weighted occlusion only,
		// where the cosine cancels against the pdf
		dir := core.SampleCosineHemisphere(sp.Normal, s)
		ray := core.NewBoundedRay(sp.Point, dir, core.RayEpsilon, mc.cfg.AODistance)
		if !frame.Scene.IsShadowed(ray, mc.cfg.AODistance) {
			clay = clay.Add(mc.cfg.AOColor)
		}
	}

	inv := 1.0 / float64(n)
	return ao.Multiply(inv), clay.Multiply(inv)
}

// radianceFunc is a strategy's recursive radiance estimator
type radianceFunc func(frame *Frame, ray core.Ray, depth int) core.Rgba

// recurseSpecular follows the perfect reflection/refraction
// continuations of the material. Transparent pass-through keeps its own
// hop budget unless configured to consume bounces.
func (mc *monteCarlo) recurseSpecular(frame *Frame, sp *core.SurfacePoint, state *core.MaterialState, wo core.Vec3, depth int, radiance radianceFunc) (core.Vec3, float64, bool) {
	spec := sp.Material.Specular(state, sp, wo)
	col := core.Vec3{}
	alpha := 0.0
	hasAlpha := false

	if spec.Reflect {
		ray := core.NewRay(sp.Point, spec.ReflectDir)
		sub := radiance(frame, ray, depth+1)
		col = col.Add(sub.Vec3().MultiplyVec(spec.ReflectColor))
	}

	if spec.Refract {
		nextDepth := depth + 1
		if spec.RefractThrough && !mc.cfg.TranspPassThroughConsumesBudget {
			if frame.passThrough >= maxPassThroughHops {
				return col, alpha, hasAlpha
			}
			frame.passThrough++
			nextDepth = depth
		}
		ray := core.NewRay(sp.Point, spec.RefractDir)
		sub := radiance(frame, ray, nextDepth)
		col = col.Add(sub.Vec3().MultiplyVec(spec.RefractColor))

		// background alpha carries through refraction when configured
		if mc.cfg.TranspRefractedBackground || spec.RefractThrough {
			alpha = sub.A
			hasAlpha = true
		}
	}

	return col, alpha, hasAlpha
}

// background evaluates an escaped ray against the environment and
// returns the configured miss alpha
func (mc *monteCarlo) background(frame *Frame, ray core.Ray) core.Rgba {
	alpha := 1.0
	if mc.cfg.TranspBackground {
		alpha = 0.0
	}
	if bg := frame.Scene.Background(); bg != nil {
		c := bg.Eval(ray)
		return core.NewRgba(c.X, c.Y, c.Z, alpha)
	}
	return core.NewRgba(0, 0, 0, alpha)
}
