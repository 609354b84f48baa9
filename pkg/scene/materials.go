package scene

import (
	"math"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// Lambertian is a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3
}

// NewLambertian creates a lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

func (l *Lambertian) StateSize() int { return 3 }

func (l *Lambertian) InitState(state *core.MaterialState, sp *core.SurfacePoint, arena *core.Arena) core.BSDF {
	state.Scratch = arena.Alloc(l.StateSize())
	state.Scratch[0] = l.Albedo.X
	state.Scratch[1] = l.Albedo.Y
	state.Scratch[2] = l.Albedo.Z
	state.Flags = core.BSDFDiffuse | core.BSDFReflect
	return state.Flags
}

func (l *Lambertian) Eval(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) core.Vec3 {
	if !types.Has(core.BSDFDiffuse) || wi.Dot(sp.Normal) <= 0 || wo.Dot(sp.Normal) <= 0 {
		return core.Vec3{}
	}
	albedo := core.NewVec3(state.Scratch[0], state.Scratch[1], state.Scratch[2])
	return albedo.Multiply(1.0 / math.Pi)
}

func (l *Lambertian) Sample(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3, s *core.BSDFSample, sample core.Vec2) (core.Vec3, core.Vec3) {
	if !s.Types.Has(core.BSDFDiffuse) {
		s.Pdf = 0
		return core.Vec3{}, core.Vec3{}
	}
	wi := core.SampleCosineHemisphere(sp.Normal, sample)
	cos := math.Max(0, wi.Dot(sp.Normal))
	s.Pdf = cos / math.Pi
	s.ReversePdf = math.Max(0, wo.Dot(sp.Normal)) / math.Pi
	s.SampledFlags = core.BSDFDiffuse | core.BSDFReflect

	albedo := core.NewVec3(state.Scratch[0], state.Scratch[1], state.Scratch[2])
	return wi, albedo.Multiply(1.0 / math.Pi)
}

func (l *Lambertian) Pdf(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) float64 {
	if !types.Has(core.BSDFDiffuse) || wi.Dot(sp.Normal) <= 0 {
		return 0
	}
	return wi.Dot(sp.Normal) / math.Pi
}

func (l *Lambertian) Specular(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.SpecularDirections {
	return core.SpecularDirections{}
}

func (l *Lambertian) Emit(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

func (l *Lambertian) Transparency(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// ShinyDiffuse layers an optional specular mirror and a transparency
// filter over a diffuse base. The mirror can be fresnel-weighted, which
// makes the lobe energies view dependent; each capability call resolves
// them for its own direction.
type ShinyDiffuse struct {
	Diffuse core.Vec3

	MirrorColor    core.Vec3
	MirrorStrength float64

	// Transp forwards rays straight through, tinted by FilterColor
	Transp      float64
	FilterColor core.Vec3

	// FresnelEffect scales the mirror by a Schlick fresnel term with IOR
	FresnelEffect bool
	IOR           float64
}

func (sd *ShinyDiffuse) StateSize() int { return 0 }

func (sd *ShinyDiffuse) InitState(state *core.MaterialState, sp *core.SurfacePoint, arena *core.Arena) core.BSDF {
	state.Flags = 0
	if (1-sd.MirrorStrength)*(1-sd.Transp) > 0 {
		state.Flags |= core.BSDFDiffuse | core.BSDFReflect
	}
	if sd.MirrorStrength > 0 {
		state.Flags |= core.BSDFSpecular | core.BSDFReflect
	}
	if sd.Transp > 0 {
		state.Flags |= core.BSDFFilter | core.BSDFTransmit
	}
	return state.Flags
}

// weights resolves the per-direction lobe energies. The fresnel term
// depends on the view angle, so this runs per capability call rather
// than once in InitState.
func (sd *ShinyDiffuse) weights(sp *core.SurfacePoint, wo core.Vec3) (mirror, transp, diffuse float64) {
	mirror = sd.MirrorStrength
	if sd.FresnelEffect && mirror > 0 {
		mirror *= schlickFresnel(math.Abs(wo.Dot(sp.Normal)), sd.IOR)
	}
	transp = sd.Transp * (1 - mirror)
	diffuse = (1 - mirror) * (1 - sd.Transp)
	return
}

// schlickFresnel approximates the fresnel reflectance for the given
// cosine and index of refraction
func schlickFresnel(cos, ior float64) float64 {
	r0 := (ior - 1) / (ior + 1)
	r0 *= r0
	return r0 + (1-r0)*math.Pow(1-cos, 5)
}

func (sd *ShinyDiffuse) Eval(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) core.Vec3 {
	if !types.Has(core.BSDFDiffuse) || wi.Dot(sp.Normal) <= 0 || wo.Dot(sp.Normal) <= 0 {
		return core.Vec3{}
	}
	_, _, diffuse := sd.weights(sp, wo)
	return sd.Diffuse.Multiply(diffuse / math.Pi)
}

// selectable restricts the lobe energies to the allowed types
func (sd *ShinyDiffuse) selectable(sp *core.SurfacePoint, wo core.Vec3, types core.BSDF) (mirror, transp, diffuse float64) {
	mirror, transp, diffuse = sd.weights(sp, wo)
	if !types.Has(core.BSDFSpecular | core.BSDFReflect) {
		mirror = 0
	}
	if !types.Has(core.BSDFFilter) {
		transp = 0
	}
	if !types.Has(core.BSDFDiffuse) {
		diffuse = 0
	}
	return
}

func (sd *ShinyDiffuse) Sample(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3, s *core.BSDFSample, sample core.Vec2) (core.Vec3, core.Vec3) {
	mirror, transp, diffuse := sd.selectable(sp, wo, s.Types)
	total := mirror + transp + diffuse
	if total <= 0 {
		s.Pdf = 0
		return core.Vec3{}, core.Vec3{}
	}

	pick := sample.X * total
	cosWo := math.Abs(wo.Dot(sp.Normal))

	if pick < mirror {
		wi := wo.Negate().Reflect(sp.Normal)
		cos := math.Max(core.RayEpsilon, math.Abs(wi.Dot(sp.Normal)))
		s.Pdf = mirror / total
		s.SampledFlags = core.BSDFSpecular | core.BSDFReflect
		return wi, sd.MirrorColor.Multiply(mirror / cos)
	}
	pick -= mirror

	if pick < transp {
		wi := wo.Negate()
		cos := math.Max(core.RayEpsilon, cosWo)
		s.Pdf = transp / total
		s.SampledFlags = core.BSDFFilter | core.BSDFTransmit
		return wi, sd.FilterColor.Multiply(transp / cos)
	}

	// diffuse lobe; reuse the lobe-selection remainder as a fresh sample
	sample.X = (pick - transp) / diffuse
	wi := core.SampleCosineHemisphere(sp.Normal, sample)
	cos := math.Max(0, wi.Dot(sp.Normal))
	s.Pdf = (diffuse / total) * cos / math.Pi
	s.SampledFlags = core.BSDFDiffuse | core.BSDFReflect
	return wi, sd.Diffuse.Multiply(diffuse / math.Pi)
}

func (sd *ShinyDiffuse) Pdf(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) float64 {
	mirror, transp, diffuse := sd.selectable(sp, wo, types)
	total := mirror + transp + diffuse
	if total <= 0 || diffuse <= 0 || wi.Dot(sp.Normal) <= 0 {
		return 0
	}
	return (diffuse / total) * wi.Dot(sp.Normal) / math.Pi
}

func (sd *ShinyDiffuse) Specular(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.SpecularDirections {
	mirror, transp, _ := sd.weights(sp, wo)
	var spec core.SpecularDirections
	if mirror > 0 {
		spec.Reflect = true
		spec.ReflectDir = wo.Negate().Reflect(sp.Normal)
		spec.ReflectColor = sd.MirrorColor.Multiply(mirror)
	}
	if transp > 0 {
		spec.Refract = true
		spec.RefractDir = wo.Negate()
		spec.RefractColor = sd.FilterColor.Multiply(transp)
		spec.RefractThrough = true
	}
	return spec
}

func (sd *ShinyDiffuse) Emit(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

func (sd *ShinyDiffuse) Transparency(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	_, transp, _ := sd.weights(sp, wo)
	return sd.FilterColor.Multiply(transp)
}

// Emissive is a light-emitting surface material
type Emissive struct {
	Color core.Vec3 // emitted radiance
}

// NewEmissive creates an emissive material
func NewEmissive(color core.Vec3) *Emissive {
	return &Emissive{Color: color}
}

func (e *Emissive) StateSize() int { return 0 }

func (e *Emissive) InitState(state *core.MaterialState, sp *core.SurfacePoint, arena *core.Arena) core.BSDF {
	state.Flags = core.BSDFEmit
	return state.Flags
}

func (e *Emissive) Eval(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) core.Vec3 {
	return core.Vec3{}
}

func (e *Emissive) Sample(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3, s *core.BSDFSample, sample core.Vec2) (core.Vec3, core.Vec3) {
	s.Pdf = 0
	return core.Vec3{}, core.Vec3{}
}

func (e *Emissive) Pdf(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) float64 {
	return 0
}

func (e *Emissive) Specular(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.SpecularDirections {
	return core.SpecularDirections{}
}

// Emit returns the radiance toward the viewer; only the front face emits
func (e *Emissive) Emit(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	if !sp.FrontFace {
		return core.Vec3{}
	}
	return e.Color
}

func (e *Emissive) Transparency(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}
