package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

func TestPointLightFalloff(t *testing.T) {
	l := NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(8, 8, 8))
	sp := testSurfacePoint()

	ls, ok := l.Illuminate(&sp, core.NewVec2(0.5, 0.5))
	if !ok {
		t.Fatal("point light failed to illuminate")
	}
	if ls.Direction.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-9 {
		t.Errorf("direction = %v, expected straight up", ls.Direction)
	}
	if math.Abs(ls.Distance-2) > 1e-9 {
		t.Errorf("distance = %v, expected 2", ls.Distance)
	}
	// inverse square falloff at distance 2
	if math.Abs(ls.Radiance.X-2) > 1e-9 {
		t.Errorf("radiance = %v, expected 8/4", ls.Radiance)
	}
	if ls.Pdf != 1 {
		t.Errorf("delta light pdf = %v", ls.Pdf)
	}
	if l.CanIntersect() {
		t.Error("delta light reported intersectable")
	}
}

func TestQuadLightIlluminatePdfMatchesIntersect(t *testing.T) {
	// light facing down from y=3 over [0,1]x[0,1]
	l := NewQuadLight(
		core.NewVec3(0, 3, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 0, 1),
		core.NewVec3(5, 5, 5),
	)
	sp := testSurfacePoint()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		ls, ok := l.Illuminate(&sp, core.NewVec2(rng.Float64(), rng.Float64()))
		if !ok {
			t.Fatal("quad light failed to illuminate a point below it")
		}

		// the BSDF-strategy pdf along the same direction must agree
		lh, hit := l.Intersect(core.NewRay(sp.Point, ls.Direction))
		if !hit {
			t.Fatal("sampled direction does not intersect the light")
		}
		if math.Abs(lh.Pdf-ls.Pdf) > 1e-6*ls.Pdf {
			t.Fatalf("Intersect pdf %v disagrees with Illuminate pdf %v", lh.Pdf, ls.Pdf)
		}
		if math.Abs(lh.T-ls.Distance) > 1e-9 {
			t.Fatalf("Intersect T %v disagrees with Illuminate distance %v", lh.T, ls.Distance)
		}
	}
}

func TestQuadLightBackSideDark(t *testing.T) {
	l := NewQuadLight(
		core.NewVec3(0, 3, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 0, 1),
		core.NewVec3(5, 5, 5),
	)

	// a point above the light sees its back side
	sp := testSurfacePoint()
	sp.Point = core.NewVec3(0.5, 6, 0.5)
	if _, ok := l.Illuminate(&sp, core.NewVec2(0.5, 0.5)); ok {
		t.Error("one-sided light illuminated its back side")
	}
	if _, hit := l.Intersect(core.NewRay(core.NewVec3(0.5, 6, 0.5), core.NewVec3(0, -1, 0))); hit {
		t.Error("one-sided light intersected from behind")
	}
}

func TestQuadLightEmissionStaysOnFrontSide(t *testing.T) {
	l := NewQuadLight(
		core.NewVec3(0, 3, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 0, 1),
		core.NewVec3(5, 5, 5),
	)
	l.Caustics = true

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		s1 := core.NewVec2(rng.Float64(), rng.Float64())
		s2 := core.NewVec2(rng.Float64(), rng.Float64())
		ray, flux, ok := l.SampleEmission(s1, s2)
		if !ok {
			t.Fatal("emission sample failed")
		}
		// the light faces -y
		if ray.Direction.Y > 0 {
			t.Fatalf("photon emitted from the back side: %v", ray.Direction)
		}
		if flux.X <= 0 {
			t.Fatalf("non-positive flux %v", flux)
		}
	}
	if !l.ShootsCausticPhotons() {
		t.Error("caustic flag not honored")
	}
}

func TestLightPowerProportions(t *testing.T) {
	dim := NewPointLight(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
	bright := NewPointLight(core.NewVec3(0, 0, 0), core.NewVec3(4, 4, 4))
	if bright.Power() <= dim.Power() {
		t.Error("power not monotonic in intensity")
	}
	if math.Abs(bright.Power()/dim.Power()-4) > 1e-9 {
		t.Errorf("power ratio = %v, expected 4", bright.Power()/dim.Power())
	}
}
