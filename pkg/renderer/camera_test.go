package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

func TestCameraGetCameraForward(t *testing.T) {
	camera := NewCamera(CameraConfig{
		Center: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		Width:  400,
		Height: 400,
		VFov:   45.0,
	})

	forward := camera.GetCameraForward()
	expected := core.NewVec3(0, 0, -1)
	if forward.Subtract(expected).Length() > 1e-9 {
		t.Errorf("forward = %v, expected %v", forward, expected)
	}
}

func TestCameraCenterRay(t *testing.T) {
	camera := testCamera(4, 4)
	rng := rand.New(rand.NewSource(1))

	// the ray through the image center goes straight forward
	ray := camera.GetRay(2, 2, 0, 0, rng)
	want := core.NewVec3(0, 0, -1)
	if ray.Direction.Subtract(want).Length() > 1e-9 {
		t.Errorf("center ray direction = %v, expected %v", ray.Direction, want)
	}
	if !ray.HasDifferentials {
		t.Error("camera ray carries no differentials")
	}
}

func TestCameraCornerRay(t *testing.T) {
	camera := testCamera(4, 4)
	rng := rand.New(rand.NewSource(1))

	// 90 degree vertical fov at aspect 1: the top-left corner ray points
	// at (-1, 1, -1) before normalization
	ray := camera.GetRay(0, 0, 0, 0, rng)
	want := core.NewVec3(-1, 1, -1).Normalize()
	if ray.Direction.Subtract(want).Length() > 1e-9 {
		t.Errorf("corner ray direction = %v, expected %v", ray.Direction, want)
	}
}

func TestCameraThinLensFocusPlane(t *testing.T) {
	camera := NewCamera(CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         100,
		Height:        100,
		VFov:          60,
		Aperture:      0.4,
		FocusDistance: 3,
	})

	// rays for the same pixel but different lens points must converge on
	// the focus plane
	rng := rand.New(rand.NewSource(7))
	var hit core.Vec3
	for k := 0; k < 20; k++ {
		ray := camera.GetRay(30, 70, 0.5, 0.5, rng)
		tFocus := (-3 - ray.Origin.Z) / ray.Direction.Z
		p := ray.At(tFocus)
		if k == 0 {
			hit = p
			continue
		}
		if p.Subtract(hit).Length() > 1e-9 {
			t.Fatalf("lens sample %d focuses at %v, first at %v", k, p, hit)
		}
	}

	// and the lens origins themselves must differ
	r1 := camera.GetRay(30, 70, 0.5, 0.5, rng)
	r2 := camera.GetRay(30, 70, 0.5, 0.5, rng)
	if r1.Origin.Subtract(r2.Origin).Length() == 0 {
		t.Error("aperture produced identical lens origins")
	}
}

func TestCameraDeterministicWithSeed(t *testing.T) {
	camera := testCamera(8, 8)

	r1 := camera.GetRay(3, 5, 0.25, 0.75, rand.New(rand.NewSource(42)))
	r2 := camera.GetRay(3, 5, 0.25, 0.75, rand.New(rand.NewSource(42)))
	if r1.Origin != r2.Origin || r1.Direction != r2.Direction {
		t.Error("identical seeds produced different rays")
	}
}

func TestCameraDefaultFocusDistance(t *testing.T) {
	camera := NewCamera(CameraConfig{
		Center: core.NewVec3(0, 0, 5),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		Width:  10,
		Height: 10,
		VFov:   40,
	})
	if got := camera.config.FocusDistance; math.Abs(got-5) > 1e-9 {
		t.Errorf("default focus distance = %v, expected look-at distance 5", got)
	}
}
