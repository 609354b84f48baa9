package scene

import (
	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// GradientBackground blends between two colors by ray elevation
type GradientBackground struct {
	Top    core.Vec3
	Bottom core.Vec3
}

// NewGradientBackground creates a vertical gradient background
func NewGradientBackground(top, bottom core.Vec3) *GradientBackground {
	return &GradientBackground{Top: top, Bottom: bottom}
}

// Eval returns the background color for an escaped ray
func (g *GradientBackground) Eval(ray core.Ray) core.Vec3 {
	t := 0.5 * (ray.Direction.Normalize().Y + 1.0)
	return g.Bottom.Multiply(1.0 - t).Add(g.Top.Multiply(t))
}

// Scene is a linear-accelerator scene: shapes are tested in order with a
// shrinking ray interval. Adequate for the shape counts the demo scenes
// and the tests use.
type Scene struct {
	shapes     []Shape
	lights     []core.Light
	background core.Background
}

// New creates an empty scene
func New() *Scene {
	return &Scene{}
}

// AddShape adds geometry to the scene
func (s *Scene) AddShape(shape Shape) {
	s.shapes = append(s.shapes, shape)
}

// AddLight adds a light to the scene
func (s *Scene) AddLight(light core.Light) {
	s.lights = append(s.lights, light)
}

// SetBackground sets the environment
func (s *Scene) SetBackground(bg core.Background) {
	s.background = bg
}

// Intersect finds the nearest hit within the ray interval
func (s *Scene) Intersect(ray core.Ray) (core.SurfacePoint, bool) {
	var nearest core.SurfacePoint
	found := false
	for _, shape := range s.shapes {
		if sp, hit := shape.Intersect(ray); hit {
			nearest = sp
			ray.TMax = sp.T
			found = true
		}
	}
	return nearest, found
}

// IsShadowed tests occlusion along the ray up to maxDist, treating every
// surface as opaque
func (s *Scene) IsShadowed(ray core.Ray, maxDist float64) bool {
	ray.TMax = maxDist - core.RayEpsilon
	for _, shape := range s.shapes {
		if _, hit := shape.Intersect(ray); hit {
			return true
		}
	}
	return false
}

// ShadowAttenuation walks the occluders along a shadow ray, accumulating
// their transparency filter colors. An opaque occluder, or more than
// maxDepth transparent ones, blocks the ray entirely.
func (s *Scene) ShadowAttenuation(ray core.Ray, maxDist float64, maxDepth int, arena *core.Arena) (core.Vec3, bool) {
	attenuation := core.NewVec3(1, 1, 1)
	remaining := maxDist - core.RayEpsilon

	for depth := 0; ; depth++ {
		ray.TMax = remaining
		sp, hit := s.Intersect(ray)
		if !hit {
			return attenuation, false
		}
		if depth >= maxDepth {
			return core.Vec3{}, true
		}

		state := core.MaterialState{}
		sp.Material.InitState(&state, &sp, arena)
		wo := ray.Direction.Negate()
		filter := sp.Material.Transparency(&state, &sp, wo)
		if filter.X <= 0 && filter.Y <= 0 && filter.Z <= 0 {
			return core.Vec3{}, true
		}

		attenuation = attenuation.MultiplyVec(filter)
		remaining -= sp.T + core.RayEpsilon
		if remaining <= 0 {
			return attenuation, false
		}
		ray = core.NewRay(sp.Point, ray.Direction)
	}
}

// Lights returns the scene's lights
func (s *Scene) Lights() []core.Light {
	return s.lights
}

// Background returns the environment, or nil
func (s *Scene) Background() core.Background {
	return s.background
}
