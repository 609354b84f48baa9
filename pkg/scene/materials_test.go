package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

func testSurfacePoint() core.SurfacePoint {
	n := core.NewVec3(0, 1, 0)
	tangent, bitangent := core.CreateOrthonormalBasis(n)
	return core.SurfacePoint{
		Point:      core.NewVec3(0, 0, 0),
		Normal:     n,
		GeomNormal: n,
		Tangent:    tangent,
		Bitangent:  bitangent,
		FrontFace:  true,
	}
}

func TestLambertianSampleMatchesPdfAndEval(t *testing.T) {
	mat := NewLambertian(core.NewVec3(0.7, 0.5, 0.3))
	sp := testSurfacePoint()
	arena := core.NewArena(16)
	wo := core.NewVec3(0, 1, 0)

	state := core.MaterialState{}
	flags := mat.InitState(&state, &sp, arena)
	if !flags.Has(core.BSDFDiffuse | core.BSDFReflect) {
		t.Fatalf("flags = %v", flags)
	}

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		bs := core.BSDFSample{Types: core.BSDFAll}
		wi, col := mat.Sample(&state, &sp, wo, &bs, core.NewVec2(rng.Float64(), rng.Float64()))

		if wi.Dot(sp.Normal) < 0 {
			t.Fatal("sampled direction below the surface")
		}
		wantPdf := wi.Dot(sp.Normal) / math.Pi
		if math.Abs(bs.Pdf-wantPdf) > 1e-9 {
			t.Fatalf("pdf = %v, expected cos/pi = %v", bs.Pdf, wantPdf)
		}
		if pdf := mat.Pdf(&state, &sp, wo, wi, core.BSDFAll); math.Abs(pdf-bs.Pdf) > 1e-9 {
			t.Fatalf("Pdf() = %v disagrees with Sample pdf %v", pdf, bs.Pdf)
		}
		if eval := mat.Eval(&state, &sp, wo, wi, core.BSDFAll); eval.Subtract(col).Length() > 1e-9 {
			t.Fatalf("Eval = %v disagrees with Sample color %v", eval, col)
		}
	}
}

func TestLambertianRejectsWrongLobes(t *testing.T) {
	mat := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	sp := testSurfacePoint()
	arena := core.NewArena(16)
	state := core.MaterialState{}
	mat.InitState(&state, &sp, arena)

	bs := core.BSDFSample{Types: core.BSDFSpecular}
	if _, _ = mat.Sample(&state, &sp, core.NewVec3(0, 1, 0), &bs, core.NewVec2(0.5, 0.5)); bs.Pdf != 0 {
		t.Error("lambertian sampled a specular lobe")
	}
	if c := mat.Eval(&state, &sp, core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0), core.BSDFGlossy); c != (core.Vec3{}) {
		t.Error("lambertian evaluated a glossy lobe")
	}
}

func TestShinyDiffuseWeightsConserveEnergy(t *testing.T) {
	mat := &ShinyDiffuse{
		Diffuse:        core.NewVec3(0.6, 0.6, 0.6),
		MirrorColor:    core.NewVec3(1, 1, 1),
		MirrorStrength: 0.3,
		Transp:         0.4,
		FilterColor:    core.NewVec3(1, 1, 1),
	}
	sp := testSurfacePoint()
	wo := core.NewVec3(0, 1, 0)

	mirror, transp, diffuse := mat.weights(&sp, wo)
	if mirror != 0.3 {
		t.Errorf("mirror = %v", mirror)
	}
	if sum := mirror + transp + diffuse; sum > 1+1e-9 {
		t.Errorf("lobe weights sum to %v > 1", sum)
	}
}

func TestShinyDiffuseTransparencyCapability(t *testing.T) {
	var mat core.Material = &ShinyDiffuse{
		Transp:      0.8,
		FilterColor: core.NewVec3(1, 0.5, 0.5),
	}
	sp := testSurfacePoint()
	state := core.MaterialState{}
	flags := mat.InitState(&state, &sp, core.NewArena(16))
	if !flags.Has(core.BSDFFilter) {
		t.Fatal("transparent material missing the filter lobe")
	}

	filter := mat.Transparency(&state, &sp, core.NewVec3(0, 1, 0))
	want := core.NewVec3(0.8, 0.4, 0.4)
	if filter.Subtract(want).Length() > 1e-9 {
		t.Errorf("filter = %v, expected %v", filter, want)
	}
}

func TestShinyDiffuseFresnelGrazing(t *testing.T) {
	mat := &ShinyDiffuse{
		Diffuse:        core.NewVec3(0.6, 0.6, 0.6),
		MirrorColor:    core.NewVec3(1, 1, 1),
		MirrorStrength: 1.0,
		FresnelEffect:  true,
		IOR:            1.5,
	}
	sp := testSurfacePoint()

	head, _, _ := mat.weights(&sp, core.NewVec3(0, 1, 0))
	grazeDir := core.NewVec3(1, 0.05, 0).Normalize()
	graze, _, _ := mat.weights(&sp, grazeDir)
	if graze <= head {
		t.Errorf("fresnel mirror at grazing %v not stronger than head-on %v", graze, head)
	}
}

func TestShinyDiffuseSpecularDirections(t *testing.T) {
	mat := &ShinyDiffuse{
		Diffuse:        core.NewVec3(0.2, 0.2, 0.2),
		MirrorColor:    core.NewVec3(0.9, 0.9, 0.9),
		MirrorStrength: 0.5,
		Transp:         0.5,
		FilterColor:    core.NewVec3(0.8, 0.8, 0.8),
	}
	sp := testSurfacePoint()
	state := core.MaterialState{}
	mat.InitState(&state, &sp, core.NewArena(16))

	wo := core.NewVec3(1, 1, 0).Normalize()
	spec := mat.Specular(&state, &sp, wo)

	if !spec.Reflect {
		t.Fatal("no reflection from a mirrored material")
	}
	want := core.NewVec3(-1, 1, 0).Normalize()
	if spec.ReflectDir.Subtract(want).Length() > 1e-9 {
		t.Errorf("reflect dir = %v, expected %v", spec.ReflectDir, want)
	}

	if !spec.Refract || !spec.RefractThrough {
		t.Fatal("transparency did not produce a pass-through continuation")
	}
	if spec.RefractDir.Subtract(wo.Negate()).Length() > 1e-9 {
		t.Errorf("pass-through dir = %v, expected straight continuation", spec.RefractDir)
	}
}

func TestEmissiveFrontFaceOnly(t *testing.T) {
	mat := NewEmissive(core.NewVec3(2, 2, 2))
	sp := testSurfacePoint()
	state := core.MaterialState{}
	flags := mat.InitState(&state, &sp, core.NewArena(16))
	if !flags.Has(core.BSDFEmit) {
		t.Errorf("flags = %v", flags)
	}

	if e := mat.Emit(&state, &sp, core.NewVec3(0, 1, 0)); e != core.NewVec3(2, 2, 2) {
		t.Errorf("front emit = %v", e)
	}
	sp.FrontFace = false
	if e := mat.Emit(&state, &sp, core.NewVec3(0, 1, 0)); e != (core.Vec3{}) {
		t.Errorf("back emit = %v, expected zero", e)
	}
}
