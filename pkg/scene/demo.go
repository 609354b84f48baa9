package scene

import (
	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// NewCornellScene builds a cornell-style box: white floor, ceiling and
// back wall, red and green side walls, a ceiling area light, a mirror
// sphere and a transparent sphere. The point light shoots caustic
// photons through the transparent sphere onto the floor.
func NewCornellScene() *Scene {
	white := NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	mirror := &ShinyDiffuse{
		Diffuse:        core.NewVec3(0.1, 0.1, 0.1),
		MirrorColor:    core.NewVec3(0.95, 0.95, 0.95),
		MirrorStrength: 0.9,
		FresnelEffect:  true,
		IOR:            12,
	}
	glass := &ShinyDiffuse{
		MirrorColor:    core.NewVec3(1, 1, 1),
		MirrorStrength: 1.0,
		FresnelEffect:  true,
		IOR:            1.5,
		Transp:         1.0,
		FilterColor:    core.NewVec3(0.95, 0.95, 1.0),
	}

	sc := New()

	// box interior, 2 units on a side, centered on the origin
	sc.AddShape(NewQuad(core.NewVec3(-1, -1, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), white)) // floor
	sc.AddShape(NewQuad(core.NewVec3(-1, 1, -1), core.NewVec3(0, 0, 2), core.NewVec3(2, 0, 0), white))  // ceiling
	sc.AddShape(NewQuad(core.NewVec3(-1, -1, -1), core.NewVec3(0, 2, 0), core.NewVec3(2, 0, 0), white)) // back wall
	sc.AddShape(NewQuad(core.NewVec3(-1, -1, -1), core.NewVec3(0, 0, 2), core.NewVec3(0, 2, 0), red))   // left wall
	sc.AddShape(NewQuad(core.NewVec3(1, -1, -1), core.NewVec3(0, 2, 0), core.NewVec3(0, 0, 2), green))  // right wall

	sc.AddShape(NewSphere(core.NewVec3(-0.45, -0.6, -0.35), 0.4, mirror))
	sc.AddShape(NewSphere(core.NewVec3(0.45, -0.65, 0.25), 0.35, glass))

	// edge order chosen so the light faces down into the box
	sc.AddLight(NewQuadLight(
		core.NewVec3(-0.25, 0.999, 0.25),
		core.NewVec3(0, 0, -0.5),
		core.NewVec3(0.5, 0, 0),
		core.NewVec3(12, 12, 12),
	))

	caustic := NewPointLight(core.NewVec3(0.45, 0.7, 0.25), core.NewVec3(1.5, 1.5, 1.5))
	caustic.Caustics = true
	sc.AddLight(caustic)

	return sc
}

// NewDefaultScene builds an open outdoor scene: a ground plane, a
// lambertian and a mirror sphere, a sky gradient and a sun-like point
// light.
func NewDefaultScene() *Scene {
	ground := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	matte := NewLambertian(core.NewVec3(0.7, 0.3, 0.3))
	mirror := &ShinyDiffuse{
		Diffuse:        core.NewVec3(0.1, 0.1, 0.1),
		MirrorColor:    core.NewVec3(0.9, 0.9, 0.9),
		MirrorStrength: 0.85,
	}

	sc := New()
	sc.AddShape(NewPlane(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), ground))
	sc.AddShape(NewSphere(core.NewVec3(-1.1, 1, 0), 1, matte))
	sc.AddShape(NewSphere(core.NewVec3(1.1, 1, 0), 1, mirror))

	sc.AddLight(NewPointLight(core.NewVec3(5, 8, 4), core.NewVec3(120, 120, 110)))
	sc.SetBackground(NewGradientBackground(
		core.NewVec3(0.5, 0.7, 1.0),
		core.NewVec3(1, 1, 1),
	))
	return sc
}
