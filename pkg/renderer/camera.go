package renderer

import (
	"math"
	"math/rand"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// CameraConfig describes a thin-lens camera. Aperture 0 gives a pinhole
// camera with everything in focus.
type CameraConfig struct {
	Center        core.Vec3
	LookAt        core.Vec3
	Up            core.Vec3
	Width         int
	Height        int
	VFov          float64 // vertical field of view in degrees
	Aperture      float64 // lens diameter in world units
	FocusDistance float64 // distance to the plane of perfect focus
}

// Camera generates rays for rendering
type Camera struct {
	config          CameraConfig
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3
	lensRadius      float64
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	if config.FocusDistance <= 0 {
		config.FocusDistance = config.Center.Subtract(config.LookAt).Length()
	}

	aspectRatio := float64(config.Width) / float64(config.Height)
	theta := config.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	viewportHeight := 2 * halfHeight * config.FocusDistance
	viewportWidth := aspectRatio * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(config.FocusDistance))

	return &Camera{
		config:          config,
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
	}
}

// GetCameraForward returns the camera's viewing direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}

func randomInUnitDisk(rng *rand.Rand) core.Vec2 {
	for {
		p := core.NewVec2(2*rng.Float64()-1, 2*rng.Float64()-1)
		if p.X*p.X+p.Y*p.Y < 1 {
			return p
		}
	}
}

// rayAt builds the ray through normalized screen coordinates (s, t) from
// a fixed lens offset
func (c *Camera) rayAt(s, t float64, offset core.Vec3) core.Ray {
	origin := c.origin.Add(offset)
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)
	// normalized so ray parameters measure world distance
	return core.NewRay(origin, direction.Normalize())
}

// GetRay generates the camera ray for pixel (i, j) with sub-pixel offset
// (dx, dy) in [0, 1). The lens sample comes from the caller's random
// stream, so identical streams reproduce identical rays. The returned
// ray carries one-pixel differentials for texture filtering.
func (c *Camera) GetRay(i, j int, dx, dy float64, rng *rand.Rand) core.DifferentialRay {
	var offset core.Vec3
	if c.lensRadius > 0 {
		rd := randomInUnitDisk(rng)
		offset = c.u.Multiply(c.lensRadius * rd.X).Add(c.v.Multiply(c.lensRadius * rd.Y))
	}

	s := (float64(i) + dx) / float64(c.config.Width)
	t := 1 - (float64(j)+dy)/float64(c.config.Height)

	ray := core.NewDifferentialRay(c.rayAt(s, t, offset))

	// differentials share the lens point so they measure footprint, not
	// depth of field
	xRay := c.rayAt(s+1/float64(c.config.Width), t, offset)
	yRay := c.rayAt(s, t-1/float64(c.config.Height), offset)
	ray.HasDifferentials = true
	ray.XOrigin = xRay.Origin
	ray.XDir = xRay.Direction
	ray.YOrigin = yRay.Origin
	ray.YDir = yRay.Direction

	return ray
}
