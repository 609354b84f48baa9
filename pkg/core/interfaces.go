package core

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// BSDF is a bitmask of scattering lobe kinds a material exposes at a
// surface point, and of the lobe kinds an estimator wants to evaluate
// or sample.
type BSDF uint16

const (
	BSDFNone     BSDF = 0
	BSDFDiffuse  BSDF = 1 << 0
	BSDFGlossy   BSDF = 1 << 1
	BSDFSpecular BSDF = 1 << 2
	BSDFReflect  BSDF = 1 << 3
	BSDFTransmit BSDF = 1 << 4
	// BSDFFilter marks transparent pass-through: the ray continues
	// straight through the surface, attenuated but not redirected.
	BSDFFilter BSDF = 1 << 5
	BSDFEmit   BSDF = 1 << 6

	BSDFAll = BSDFDiffuse | BSDFGlossy | BSDFSpecular | BSDFReflect | BSDFTransmit | BSDFFilter | BSDFEmit
)

// Has reports whether all bits of q are set
func (b BSDF) Has(q BSDF) bool {
	return b&q == q
}

// HasAny reports whether any bit of q is set
func (b BSDF) HasAny(q BSDF) bool {
	return b&q != 0
}

// SurfacePoint is the result of a scene intersection. It is stack-local:
// produced per intersection query and consumed within one estimator call.
type SurfacePoint struct {
	Point      Vec3
	GeomNormal Vec3 // true geometric normal
	Normal     Vec3 // shading normal (may be interpolated/bumped)
	Tangent    Vec3
	Bitangent  Vec3
	UV         Vec2
	T          float64  // ray parameter of the hit
	Material   Material // non-owning
	FrontFace  bool
}

// MaterialState is the transient per-ray view of a material's BSDF state,
// backed by the worker's scratch arena. Scratch is interpreted by the
// material through fixed indices, never through pointer casts.
type MaterialState struct {
	Scratch []float64
	Flags   BSDF
}

// BSDFSample is the record of one BSDF sampling operation
type BSDFSample struct {
	Types        BSDF // lobes the caller allows
	SampledFlags BSDF // lobes actually sampled, set by the material
	Pdf          float64
	ReversePdf   float64 // pdf of sampling the reverse direction, for MIS
}

// SpecularDirections describes the perfect reflection/refraction
// continuations of a specular material at a surface point.
type SpecularDirections struct {
	Reflect        bool
	ReflectDir     Vec3
	ReflectColor   Vec3
	Refract        bool
	RefractDir     Vec3
	RefractColor   Vec3
	RefractThrough bool // refraction is straight pass-through (filter lobe)
}

// Material is the BSDF capability consumed by the estimator. The
// estimator initializes state once per intersection and then evaluates,
// samples and queries pdfs against that state.
type Material interface {
	// StateSize declares the scratch slots InitState needs
	StateSize() int

	// InitState prepares per-point BSDF state in the arena and returns
	// the lobes present at this point
	InitState(state *MaterialState, sp *SurfacePoint, arena *Arena) BSDF

	// Eval evaluates the BSDF for light arriving from wi toward wo,
	// restricted to the given lobe types
	Eval(state *MaterialState, sp *SurfacePoint, wo, wi Vec3, types BSDF) Vec3

	// Sample draws a scattered direction. Returns the direction and the
	// BSDF value; pdf and sampled lobes are reported through s.
	Sample(state *MaterialState, sp *SurfacePoint, wo Vec3, s *BSDFSample, sample Vec2) (Vec3, Vec3)

	// Pdf returns the probability density of Sample producing wi
	Pdf(state *MaterialState, sp *SurfacePoint, wo, wi Vec3, types BSDF) float64

	// Specular returns the perfect specular continuations, if any
	Specular(state *MaterialState, sp *SurfacePoint, wo Vec3) SpecularDirections

	// Emit returns radiance emitted toward wo
	Emit(state *MaterialState, sp *SurfacePoint, wo Vec3) Vec3

	// Transparency returns the filter color for rays passing straight
	// through (zero for opaque materials); used by transparent shadows
	Transparency(state *MaterialState, sp *SurfacePoint, wo Vec3) Vec3
}

// LightSample is the result of sampling a light for direct illumination
type LightSample struct {
	Direction Vec3    // from the surface point toward the light
	Distance  float64 // distance to the sampled light point
	Radiance  Vec3    // emitted radiance arriving along -Direction
	Pdf       float64 // solid-angle pdf of this sample
}

// LightHit is the result of intersecting a BSDF-sampled ray with an
// area light, needed for the BSDF-sampling half of MIS.
type LightHit struct {
	T        float64
	Radiance Vec3
	Pdf      float64
}

// Light is the emitter capability consumed by the estimator and the
// photon builder.
type Light interface {
	// Illuminate samples the light from a surface point. ok is false
	// when the light cannot illuminate the point (e.g. behind a spot
	// cone or zero-power).
	Illuminate(sp *SurfacePoint, sample Vec2) (LightSample, bool)

	// CanIntersect reports whether BSDF-sampled rays can hit the light
	// (false for delta lights, which only the light-sampling strategy
	// can reach)
	CanIntersect() bool

	// Intersect tests a BSDF-sampled ray against the light's surface
	Intersect(ray Ray) (LightHit, bool)

	// Pdf returns the solid-angle pdf of Illuminate producing the given
	// direction from the given point; zero for delta lights
	Pdf(sp *SurfacePoint, direction Vec3) float64

	// SampleEmission draws a photon ray leaving the light, with its flux
	// already divided by the pdf
	SampleEmission(sample1, sample2 Vec2) (Ray, Vec3, bool)

	// Power returns the approximate total emitted power, used to
	// distribute the photon budget across lights
	Power() float64

	// ShootsCausticPhotons reports whether the light participates in
	// the caustic photon pre-pass
	ShootsCausticPhotons() bool
}

// Background evaluates escaped rays
type Background interface {
	Eval(ray Ray) Vec3
}

// Scene is the intersection capability consumed by the estimator. The
// core never walks geometry itself.
type Scene interface {
	// Intersect finds the nearest surface hit within the ray's interval
	Intersect(ray Ray) (SurfacePoint, bool)

	// IsShadowed tests opaque occlusion along the ray up to maxDist
	IsShadowed(ray Ray, maxDist float64) bool

	// ShadowAttenuation accumulates the transparency filter colors of
	// occluders along the ray, up to maxDepth transparent surfaces.
	// opaque is true when an opaque occluder blocks the ray entirely.
	ShadowAttenuation(ray Ray, maxDist float64, maxDepth int, arena *Arena) (attenuation Vec3, opaque bool)

	// Lights returns all active lights
	Lights() []Light

	// Background returns the environment, or nil
	Background() Background
}

// Output receives normalized pixels from the image film. PutPixel
// returning false signals a write failure; the film reacts by setting
// its cooperative abort flag.
type Output interface {
	PutPixel(x, y int, layers *ColorLayers) bool
	FlushArea(x0, y0, x1, y1 int)
	Flush() error
}
