package scene

import (
	"math"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// Shape is a piece of scene geometry
type Shape interface {
	Intersect(ray core.Ray) (core.SurfacePoint, bool)
}

// surfacePointAt fills the common SurfacePoint fields from a hit
func surfacePointAt(ray core.Ray, t float64, geomNormal core.Vec3, uv core.Vec2, mat core.Material) core.SurfacePoint {
	frontFace := ray.Direction.Dot(geomNormal) < 0
	normal := geomNormal
	if !frontFace {
		normal = geomNormal.Negate()
	}
	tangent, bitangent := core.CreateOrthonormalBasis(normal)
	return core.SurfacePoint{
		Point:      ray.At(t),
		GeomNormal: geomNormal,
		Normal:     normal,
		Tangent:    tangent,
		Bitangent:  bitangent,
		UV:         uv,
		T:          t,
		Material:   mat,
		FrontFace:  frontFace,
	}
}

// Sphere is a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material core.Material
}

// NewSphere creates a sphere
func NewSphere(center core.Vec3, radius float64, material core.Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, Material: material}
}

// Intersect tests the ray against the sphere
func (s *Sphere) Intersect(ray core.Ray) (core.SurfacePoint, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return core.SurfacePoint{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	root := (-halfB - sqrtD) / a
	if root < ray.TMin || root > ray.TMax {
		root = (-halfB + sqrtD) / a
		if root < ray.TMin || root > ray.TMax {
			return core.SurfacePoint{}, false
		}
	}

	p := ray.At(root)
	normal := p.Subtract(s.Center).Multiply(1.0 / s.Radius)
	theta := math.Acos(math.Max(-1, math.Min(1, normal.Y)))
	phi := math.Atan2(normal.Z, normal.X) + math.Pi
	uv := core.NewVec2(phi/(2*math.Pi), theta/math.Pi)

	return surfacePointAt(ray, root, normal, uv, s.Material), true
}

// Plane is an infinite plane
type Plane struct {
	Point    core.Vec3
	Normal   core.Vec3
	Material core.Material
}

// NewPlane creates a plane through point with the given normal
func NewPlane(point, normal core.Vec3, material core.Material) *Plane {
	return &Plane{Point: point, Normal: normal.Normalize(), Material: material}
}

// Intersect tests the ray against the plane
func (p *Plane) Intersect(ray core.Ray) (core.SurfacePoint, bool) {
	denom := ray.Direction.Dot(p.Normal)
	if math.Abs(denom) < 1e-12 {
		return core.SurfacePoint{}, false
	}
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denom
	if t < ray.TMin || t > ray.TMax {
		return core.SurfacePoint{}, false
	}

	hit := ray.At(t)
	tangent, bitangent := core.CreateOrthonormalBasis(p.Normal)
	uv := core.NewVec2(hit.Subtract(p.Point).Dot(tangent), hit.Subtract(p.Point).Dot(bitangent))

	return surfacePointAt(ray, t, p.Normal, uv, p.Material), true
}

// Quad is a parallelogram: corner plus two edge vectors
type Quad struct {
	Corner   core.Vec3
	Edge1    core.Vec3
	Edge2    core.Vec3
	Material core.Material

	normal core.Vec3
}

// NewQuad creates a parallelogram
func NewQuad(corner, edge1, edge2 core.Vec3, material core.Material) *Quad {
	return &Quad{
		Corner:   corner,
		Edge1:    edge1,
		Edge2:    edge2,
		Material: material,
		normal:   edge1.Cross(edge2).Normalize(),
	}
}

// Intersect tests the ray against the quad
func (q *Quad) Intersect(ray core.Ray) (core.SurfacePoint, bool) {
	denom := ray.Direction.Dot(q.normal)
	if math.Abs(denom) < 1e-12 {
		return core.SurfacePoint{}, false
	}
	t := q.Corner.Subtract(ray.Origin).Dot(q.normal) / denom
	if t < ray.TMin || t > ray.TMax {
		return core.SurfacePoint{}, false
	}

	// express the hit in edge coordinates
	hit := ray.At(t).Subtract(q.Corner)
	e1e1 := q.Edge1.Dot(q.Edge1)
	e2e2 := q.Edge2.Dot(q.Edge2)
	e1e2 := q.Edge1.Dot(q.Edge2)
	det := e1e1*e2e2 - e1e2*e1e2
	if math.Abs(det) < 1e-12 {
		return core.SurfacePoint{}, false
	}
	h1 := hit.Dot(q.Edge1)
	h2 := hit.Dot(q.Edge2)
	u := (h1*e2e2 - h2*e1e2) / det
	v := (h2*e1e1 - h1*e1e2) / det
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return core.SurfacePoint{}, false
	}

	return surfacePointAt(ray, t, q.normal, core.NewVec2(u, v), q.Material), true
}
