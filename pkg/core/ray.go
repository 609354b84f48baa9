package core

import "math"

// Ray represents a ray with an origin, direction and valid parametric interval
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMin      float64
	TMax      float64
}

// NewRay creates a ray with the default parametric interval
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: RayEpsilon, TMax: math.Inf(1)}
}

// NewBoundedRay creates a ray valid only on [tMin, tMax]
func NewBoundedRay(origin, direction Vec3, tMin, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: tMin, TMax: tMax}
}

// At returns the point along the ray at parameter t
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// RayEpsilon offsets ray origins off surfaces to avoid self-intersection
const RayEpsilon = 1e-5

// DifferentialRay carries a primary ray plus the rays through the
// neighboring pixel centers in x and y, used by materials for texture
// filtering. The renderer produces them; the estimator only forwards them.
type DifferentialRay struct {
	Ray
	HasDifferentials bool
	XOrigin, YOrigin Vec3
	XDir, YDir       Vec3
}

// NewDifferentialRay wraps a ray without screen-space differentials
func NewDifferentialRay(r Ray) DifferentialRay {
	return DifferentialRay{Ray: r}
}
