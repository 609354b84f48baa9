package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
	"github.com/df07/go-montecarlo-raytracer/pkg/film"
	"github.com/df07/go-montecarlo-raytracer/pkg/integrator"
	"github.com/df07/go-montecarlo-raytracer/pkg/renderer"
	"github.com/df07/go-montecarlo-raytracer/pkg/scene"
)

func main() {
	sceneType := flag.String("scene", "cornell", "Scene type: 'cornell' or 'default'")
	width := flag.Int("width", 400, "Image width in pixels")
	height := flag.Int("height", 400, "Image height in pixels")
	strategy := flag.String("strategy", "directlight", "Integrator strategy: 'directlight' or 'pathtrace'")
	passes := flag.Int("passes", 4, "Progressive pass budget")
	samples := flag.Int("samples", 4, "Samples per pixel in the first pass")
	incSamples := flag.Int("inc-samples", 2, "Samples per flagged pixel in later passes")
	threshold := flag.Float64("threshold", 0.05, "Noise threshold for adaptive sampling (0 disables)")
	threads := flag.Int("threads", -1, "Worker count (-1 = CPU count)")
	caustics := flag.Bool("caustics", true, "Build the caustic photon map")
	causticPhotons := flag.Int("caustic-photons", 200000, "Caustic photon budget")
	filmPath := flag.String("film-path", "", "Base path for the film checkpoint (empty disables)")
	filmLoad := flag.Bool("film-load", false, "Resume from existing film checkpoints before rendering")
	saveLayers := flag.Bool("save-layers", false, "Also save the per-layer decomposition images")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Monte Carlo Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		fmt.Println("  cornell - Cornell box with a mirror sphere, a glass sphere and a caustic light")
		fmt.Println("  default - Open scene with spheres, a ground plane and a sky gradient")
		fmt.Println()
		fmt.Println("Output is saved to output/<scene_type>/render_<timestamp>.png")
		return
	}

	// glog stays quiet unless routed somewhere; default to stderr so the
	// render log is visible without extra flags
	if f := flag.Lookup("logtostderr"); f != nil && f.Value.String() == "false" {
		f.Value.Set("true")
	}
	logger := renderer.NewGlogLogger()

	var sc *scene.Scene
	var camera *renderer.Camera
	switch *sceneType {
	case "cornell":
		sc = scene.NewCornellScene()
		camera = renderer.NewCamera(renderer.CameraConfig{
			Center: core.NewVec3(0, 0, 3.6),
			LookAt: core.NewVec3(0, 0, 0),
			Up:     core.NewVec3(0, 1, 0),
			Width:  *width,
			Height: *height,
			VFov:   32,
		})
	case "default":
		sc = scene.NewDefaultScene()
		camera = renderer.NewCamera(renderer.CameraConfig{
			Center:        core.NewVec3(0, 1.6, 6),
			LookAt:        core.NewVec3(0, 1, 0),
			Up:            core.NewVec3(0, 1, 0),
			Width:         *width,
			Height:        *height,
			VFov:          40,
			Aperture:      0.05,
			FocusDistance: 6,
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown scene type: %s\n", *sceneType)
		os.Exit(1)
	}

	cfg := renderer.DefaultConfig(*width, *height)
	cfg.Strategy = integrator.Strategy(*strategy)
	cfg.AAPasses = *passes
	cfg.AASamples = *samples
	cfg.AAIncSamples = *incSamples
	cfg.Threads = *threads
	cfg.Film.Noise.Threshold = *threshold
	cfg.Film.Layers = []core.Layer{
		core.LayerCombined, core.LayerDiffuse, core.LayerShadow,
		core.LayerCaustic, core.LayerZDepth,
	}
	cfg.Integrator.Caustics = *caustics
	cfg.Integrator.CausticPhotons = *causticPhotons
	if *filmPath != "" {
		cfg.Film.FilmPath = *filmPath
		cfg.Film.SaveMode = film.SaveModeSave
		if *filmLoad {
			cfg.Film.SaveMode = film.SaveModeLoadAndSave
		}
	}

	r, err := renderer.New(cfg, sc, camera, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %v\n", err)
		os.Exit(1)
	}

	combined := renderer.NewImageOutput(*width, *height, core.LayerCombined)
	r.AddOutput(combined)

	layerOutputs := map[core.Layer]*renderer.ImageOutput{}
	if *saveLayers {
		for _, l := range []core.Layer{core.LayerDiffuse, core.LayerShadow, core.LayerCaustic} {
			out := renderer.NewImageOutput(*width, *height, l)
			layerOutputs[l] = out
			r.AddOutput(out)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := r.Render(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "render error: %v\n", err)
		os.Exit(1)
	}

	outputDir := filepath.Join("output", *sceneType)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := combined.SavePNG(path); err != nil {
		fmt.Fprintf(os.Stderr, "error saving image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Image saved: %s\n", path)

	for l, out := range layerOutputs {
		layerPath := filepath.Join(outputDir, fmt.Sprintf("render_%s_%s.png", timestamp, l))
		if err := out.SavePNG(layerPath); err != nil {
			fmt.Fprintf(os.Stderr, "error saving layer image: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Layer saved: %s\n", layerPath)
	}
}
