package photon

import (
	"context"
	"math"
	"testing"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

type nopLogger struct{}

func (nopLogger) Printf(format string, args ...interface{}) {}

// fakeMaterial scatters straight through with the given lobe flags
type fakeMaterial struct {
	flags core.BSDF
}

func (m *fakeMaterial) StateSize() int { return 0 }

func (m *fakeMaterial) InitState(state *core.MaterialState, sp *core.SurfacePoint, arena *core.Arena) core.BSDF {
	state.Flags = m.flags
	return m.flags
}

func (m *fakeMaterial) Eval(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) core.Vec3 {
	return core.NewVec3(1, 1, 1)
}

func (m *fakeMaterial) Sample(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3, s *core.BSDFSample, sample core.Vec2) (core.Vec3, core.Vec3) {
	s.SampledFlags = m.flags
	s.Pdf = 1
	return wo.Negate(), core.NewVec3(1, 1, 1)
}

func (m *fakeMaterial) Pdf(state *core.MaterialState, sp *core.SurfacePoint, wo, wi core.Vec3, types core.BSDF) float64 {
	return 1
}

func (m *fakeMaterial) Specular(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.SpecularDirections {
	return core.SpecularDirections{}
}

func (m *fakeMaterial) Emit(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

func (m *fakeMaterial) Transparency(state *core.MaterialState, sp *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// fakeLight fires every photon straight down the +z axis
type fakeLight struct {
	caustic bool
	power   float64
}

func (l *fakeLight) Illuminate(sp *core.SurfacePoint, sample core.Vec2) (core.LightSample, bool) {
	return core.LightSample{}, false
}
func (l *fakeLight) CanIntersect() bool { return false }
func (l *fakeLight) Intersect(ray core.Ray) (core.LightHit, bool) {
	return core.LightHit{}, false
}
func (l *fakeLight) Pdf(sp *core.SurfacePoint, direction core.Vec3) float64 { return 0 }
func (l *fakeLight) SampleEmission(sample1, sample2 core.Vec2) (core.Ray, core.Vec3, bool) {
	return core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), core.NewVec3(l.power, l.power, l.power), true
}
func (l *fakeLight) Power() float64             { return l.power }
func (l *fakeLight) ShootsCausticPhotons() bool { return l.caustic }

// slabScene has a specular surface at z=1 and a diffuse one at z=2, so
// every photon path is light -> specular -> diffuse deposit
type slabScene struct {
	lights   []core.Light
	specular *fakeMaterial
	diffuse  *fakeMaterial
}

func newSlabScene(lights ...core.Light) *slabScene {
	return &slabScene{
		lights:   lights,
		specular: &fakeMaterial{flags: core.BSDFSpecular | core.BSDFTransmit},
		diffuse:  &fakeMaterial{flags: core.BSDFDiffuse | core.BSDFReflect},
	}
}

func (s *slabScene) Intersect(ray core.Ray) (core.SurfacePoint, bool) {
	if ray.Direction.Z <= 0 {
		return core.SurfacePoint{}, false
	}
	for _, z := range []float64{1, 2} {
		t := (z - ray.Origin.Z) / ray.Direction.Z
		if t > ray.TMin && t < ray.TMax {
			mat := core.Material(s.specular)
			if z == 2 {
				mat = s.diffuse
			}
			return core.SurfacePoint{
				Point:      ray.At(t),
				Normal:     core.NewVec3(0, 0, -1),
				GeomNormal: core.NewVec3(0, 0, -1),
				T:          t,
				Material:   mat,
				FrontFace:  true,
			}, true
		}
	}
	return core.SurfacePoint{}, false
}

func (s *slabScene) IsShadowed(ray core.Ray, maxDist float64) bool { return false }
func (s *slabScene) ShadowAttenuation(ray core.Ray, maxDist float64, maxDepth int, arena *core.Arena) (core.Vec3, bool) {
	return core.NewVec3(1, 1, 1), false
}
func (s *slabScene) Lights() []core.Light       { return s.lights }
func (s *slabScene) Background() core.Background { return nil }

func TestBuildCausticsDepositsThroughSpecular(t *testing.T) {
	scene := newSlabScene(&fakeLight{caustic: true, power: 3})
	params := BuildParams{Count: 100, Depth: 4, Threads: 2, Seed: 1}

	m, err := BuildCaustics(context.Background(), scene, nopLogger{}, params)
	if err != nil {
		t.Fatalf("BuildCaustics: %v", err)
	}

	if !m.Ready() {
		t.Fatal("map not built")
	}
	// concurrent workers may overshoot by at most one deposit each
	if m.NumPhotons() < params.Count || m.NumPhotons() > params.Count+params.Threads {
		t.Fatalf("stored %d photons, expected ~%d", m.NumPhotons(), params.Count)
	}

	found, _ := m.Gather(core.NewVec3(0, 0, 2), m.NumPhotons(), 0.01)
	if len(found) != m.NumPhotons() {
		t.Fatalf("gathered %d photons at the deposit point, expected all %d", len(found), m.NumPhotons())
	}

	// total flux approximates the light power: each photon carries
	// power/shots and roughly every shot deposits
	total := 0.0
	for _, f := range found {
		total += f.Photon.Flux.X
	}
	if math.Abs(total-3.0) > 0.5 {
		t.Errorf("total gathered flux = %v, expected near light power 3", total)
	}

	// photons arrive travelling +z, stored direction points back
	if d := found[0].Photon.Dir; d.Z >= 0 {
		t.Errorf("stored photon direction %v, expected to point toward the light", d)
	}
}

func TestBuildCausticsSkipsNonCausticLights(t *testing.T) {
	scene := newSlabScene(&fakeLight{caustic: false, power: 1})

	m, err := BuildCaustics(context.Background(), scene, nopLogger{}, BuildParams{Count: 10, Depth: 4, Threads: 1})
	if err != nil {
		t.Fatalf("BuildCaustics: %v", err)
	}
	if m.NumPhotons() != 0 {
		t.Errorf("stored %d photons from a non-caustic light", m.NumPhotons())
	}
	if !m.Ready() {
		t.Error("empty map must still be query-ready")
	}
}

func TestBuildCausticsStopsWithoutCausticPaths(t *testing.T) {
	// diffuse-only scene: first hit is never specular, no deposits
	scene := newSlabScene(&fakeLight{caustic: true, power: 1})
	scene.specular = scene.diffuse

	params := BuildParams{Count: 50, Depth: 4, Threads: 2, Seed: 1}
	m, err := BuildCaustics(context.Background(), scene, nopLogger{}, params)
	if err != nil {
		t.Fatalf("BuildCaustics: %v", err)
	}
	if m.NumPhotons() != 0 {
		t.Errorf("stored %d photons without any specular surface", m.NumPhotons())
	}
}

func TestBuildCausticsHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scene := newSlabScene(&fakeLight{caustic: true, power: 1})
	if _, err := BuildCaustics(ctx, scene, nopLogger{}, BuildParams{Count: 1000, Depth: 4, Threads: 2}); err == nil {
		t.Error("BuildCaustics ignored a cancelled context")
	}
}
