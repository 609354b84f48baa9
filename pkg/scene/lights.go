package scene

import (
	"math"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// PointLight is an isotropic delta light
type PointLight struct {
	Position core.Vec3
	Color    core.Vec3 // intensity, radiance at unit distance
	Caustics bool      // participates in the caustic photon pass
}

// NewPointLight creates a point light
func NewPointLight(position, color core.Vec3) *PointLight {
	return &PointLight{Position: position, Color: color}
}

func (l *PointLight) Illuminate(sp *core.SurfacePoint, sample core.Vec2) (core.LightSample, bool) {
	toLight := l.Position.Subtract(sp.Point)
	dist2 := toLight.LengthSquared()
	if dist2 <= 0 {
		return core.LightSample{}, false
	}
	dist := math.Sqrt(dist2)
	return core.LightSample{
		Direction: toLight.Multiply(1.0 / dist),
		Distance:  dist,
		Radiance:  l.Color.Multiply(1.0 / dist2),
		Pdf:       1,
	}, true
}

// CanIntersect is false: delta lights have no surface for BSDF rays
func (l *PointLight) CanIntersect() bool { return false }

func (l *PointLight) Intersect(ray core.Ray) (core.LightHit, bool) {
	return core.LightHit{}, false
}

func (l *PointLight) Pdf(sp *core.SurfacePoint, direction core.Vec3) float64 { return 0 }

func (l *PointLight) SampleEmission(sample1, sample2 core.Vec2) (core.Ray, core.Vec3, bool) {
	dir := core.SampleOnUnitSphere(sample1)
	// uniform sphere pdf 1/(4 pi) folded into the flux
	return core.NewRay(l.Position, dir), l.Color.Multiply(4 * math.Pi), true
}

func (l *PointLight) Power() float64 {
	return l.Color.Luminance() * 4 * math.Pi
}

func (l *PointLight) ShootsCausticPhotons() bool { return l.Caustics }

// QuadLight is a one-sided area light over a parallelogram
type QuadLight struct {
	Corner   core.Vec3
	Edge1    core.Vec3
	Edge2    core.Vec3
	Radiance core.Vec3
	Caustics bool

	normal core.Vec3
	area   float64
	quad   *Quad
}

// NewQuadLight creates an area light emitting from the side the edge
// cross product points toward
func NewQuadLight(corner, edge1, edge2, radiance core.Vec3) *QuadLight {
	cross := edge1.Cross(edge2)
	return &QuadLight{
		Corner:   corner,
		Edge1:    edge1,
		Edge2:    edge2,
		Radiance: radiance,
		normal:   cross.Normalize(),
		area:     cross.Length(),
		quad:     NewQuad(corner, edge1, edge2, nil),
	}
}

func (l *QuadLight) Illuminate(sp *core.SurfacePoint, sample core.Vec2) (core.LightSample, bool) {
	p := l.Corner.Add(l.Edge1.Multiply(sample.X)).Add(l.Edge2.Multiply(sample.Y))
	toLight := p.Subtract(sp.Point)
	dist2 := toLight.LengthSquared()
	if dist2 <= 0 {
		return core.LightSample{}, false
	}
	dist := math.Sqrt(dist2)
	dir := toLight.Multiply(1.0 / dist)

	// only the front side emits
	cosLight := l.normal.Dot(dir.Negate())
	if cosLight <= 0 {
		return core.LightSample{}, false
	}

	return core.LightSample{
		Direction: dir,
		Distance:  dist,
		Radiance:  l.Radiance,
		Pdf:       dist2 / (cosLight * l.area),
	}, true
}

func (l *QuadLight) CanIntersect() bool { return true }

func (l *QuadLight) Intersect(ray core.Ray) (core.LightHit, bool) {
	sp, hit := l.quad.Intersect(ray)
	if !hit {
		return core.LightHit{}, false
	}
	cosLight := l.normal.Dot(ray.Direction.Negate())
	if cosLight <= 0 {
		return core.LightHit{}, false
	}
	dist2 := sp.T * sp.T * ray.Direction.LengthSquared()
	return core.LightHit{
		T:        sp.T,
		Radiance: l.Radiance,
		Pdf:      dist2 / (cosLight * l.area),
	}, true
}

func (l *QuadLight) Pdf(sp *core.SurfacePoint, direction core.Vec3) float64 {
	lh, hit := l.Intersect(core.NewRay(sp.Point, direction))
	if !hit {
		return 0
	}
	return lh.Pdf
}

func (l *QuadLight) SampleEmission(sample1, sample2 core.Vec2) (core.Ray, core.Vec3, bool) {
	p := l.Corner.Add(l.Edge1.Multiply(sample1.X)).Add(l.Edge2.Multiply(sample1.Y))
	dir := core.SampleCosineHemisphere(l.normal, sample2)
	// cosine pdf cancels against the emission cosine, leaving L * area * pi
	flux := l.Radiance.Multiply(l.area * math.Pi)
	return core.NewRay(p, dir), flux, true
}

func (l *QuadLight) Power() float64 {
	return l.Radiance.Luminance() * l.area * math.Pi
}

func (l *QuadLight) ShootsCausticPhotons() bool { return l.Caustics }
