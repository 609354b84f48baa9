package film

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// AutoSaveInterval selects how periodic autosaving is triggered
type AutoSaveInterval string

const (
	AutoSaveNone AutoSaveInterval = "none"
	AutoSavePass AutoSaveInterval = "pass-interval"
	AutoSaveTime AutoSaveInterval = "time-interval"
)

// AutoSaveParams configures one autosave channel (images or film file)
type AutoSaveParams struct {
	Interval        AutoSaveInterval
	IntervalPasses  int
	IntervalSeconds float64
}

type autoSaveState struct {
	params      AutoSaveParams
	passCounter int
	lastSave    time.Time
}

func (s *autoSaveState) reset() {
	s.passCounter = 0
	s.lastSave = time.Now()
}

// SaveMode selects the film checkpoint behavior
type SaveMode string

const (
	SaveModeNone        SaveMode = "none"
	SaveModeSave        SaveMode = "save"
	SaveModeLoadAndSave SaveMode = "load-save"
)

// Config is the image film configuration surface
type Config struct {
	Width, Height  int
	CropX0, CropY0 int // offsets for cropped rendering

	Layers      []core.Layer // Combined is always included
	FilterType  FilterType
	FilterWidth float64 // nominal filter pixel width

	Split      bool // false = one area covering the whole image
	TileSize   int
	TilesOrder TilesOrder
	TileSeed   int64 // seed for random/centre tile ordering

	Noise NoiseParams

	EstimateDensity bool

	ImagesAutoSave AutoSaveParams
	FilmAutoSave   AutoSaveParams
	SaveMode       SaveMode
	FilmPath       string // base path of the .film checkpoint
	ComputerNode   uint32 // distinguishes films rendered on different machines
}

// DefaultConfig returns the film defaults
func DefaultConfig(width, height int) Config {
	return Config{
		Width:       width,
		Height:      height,
		Layers:      []core.Layer{core.LayerCombined},
		FilterType:  FilterBox,
		FilterWidth: 1.5,
		Split:       true,
		TileSize:    32,
		TilesOrder:  TilesOrderCentre,
		Noise:       DefaultNoiseParams(),
	}
}

// Film owns the per-layer accumulation buffers of a render view. Worker
// goroutines pull render areas from it, splat filtered samples into it,
// and hand completed areas back; between passes it recomputes the
// adaptive resample flags. All accumulation goes through two mutexes
// (image and density); normalization reads happen either behind the pass
// barrier or as explicitly best-effort autosave flushes.
type Film struct {
	cfg      Config
	logger   core.Logger
	w, h     int
	cx0, cy0 int
	cx1, cy1 int

	filter *FilterTable

	layers []core.Layer  // defined layers in enum order, Combined first
	images [][]core.Rgba // parallel to layers, w*h each, row-major
	weights []float64    // w*h accumulated filter weights

	flags *bitmap // pixels needing more samples next pass

	splitter     *Splitter
	nextArea     int64 // atomic index into the splitter order
	areaCnt      int
	completedCnt int

	nPass   int
	nPasses int

	// sampling offsets let resumed/merged films continue their
	// low-discrepancy sequences past the already-taken samples
	baseSamplingOffset uint32
	samplingOffset     uint32
	resumed            bool

	density           []core.Vec3
	numDensitySamples int

	imageMu   sync.Mutex
	densityMu sync.Mutex
	outMu     sync.Mutex

	aborted atomic.Bool

	outputs []core.Output

	imagesAutoSave autoSaveState
	filmAutoSave   autoSaveState
}

// New creates a film for the given configuration
func New(cfg Config, logger core.Logger) *Film {
	defined := map[core.Layer]bool{core.LayerCombined: true}
	for _, l := range cfg.Layers {
		defined[l] = true
	}
	layers := make([]core.Layer, 0, len(defined))
	for l := range defined {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })

	f := &Film{
		cfg:     cfg,
		logger:  logger,
		w:       cfg.Width,
		h:       cfg.Height,
		cx0:     cfg.CropX0,
		cy0:     cfg.CropY0,
		cx1:     cfg.CropX0 + cfg.Width,
		cy1:     cfg.CropY0 + cfg.Height,
		filter:  NewFilterTable(cfg.FilterType, cfg.FilterWidth),
		layers:  layers,
		weights: make([]float64, cfg.Width*cfg.Height),
		flags:   newBitmap(cfg.Width, cfg.Height),
	}
	f.images = make([][]core.Rgba, len(layers))
	for i := range f.images {
		f.images[i] = make([]core.Rgba, cfg.Width*cfg.Height)
	}
	if cfg.EstimateDensity {
		f.density = make([]core.Vec3, cfg.Width*cfg.Height)
	}
	f.imagesAutoSave.params = cfg.ImagesAutoSave
	f.filmAutoSave.params = cfg.FilmAutoSave
	return f
}

// AddOutput registers an output collaborator
func (f *Film) AddOutput(out core.Output) {
	f.outputs = append(f.outputs, out)
}

// Layers returns the defined layers in buffer order
func (f *Film) Layers() []core.Layer {
	return f.layers
}

// NewColorLayers creates a per-sample layer set matching this film
func (f *Film) NewColorLayers() *core.ColorLayers {
	return core.NewColorLayers(f.layers)
}

// FilterWidth returns the effective filter half-width in pixels
func (f *Film) FilterWidth() float64 {
	return f.filter.Width()
}

// Pass returns the current 1-based pass number
func (f *Film) Pass() int {
	return f.nPass
}

// Resumed reports whether a checkpoint was merged in during Init
func (f *Film) Resumed() bool {
	return f.resumed
}

// SamplingOffset returns the number of samples per pixel already
// accumulated by loaded films
func (f *Film) SamplingOffset() uint32 {
	return f.samplingOffset
}

// AddSamplingOffset advances the sampling offset after a pass
func (f *Film) AddSamplingOffset(n uint32) {
	f.samplingOffset += n
}

// Init prepares the film for a render of numPasses passes: clears all
// buffers, sets up the tile splitter and, when configured, merges
// previously saved film checkpoints from the film path's directory.
func (f *Film) Init(numPasses int) {
	for _, img := range f.images {
		clear(img)
	}
	clear(f.weights)
	if f.cfg.EstimateDensity {
		if f.density == nil {
			f.density = make([]core.Vec3, f.w*f.h)
		}
		clear(f.density)
		f.numDensitySamples = 0
	}

	if f.cfg.Split {
		atomic.StoreInt64(&f.nextArea, 0)
		f.splitter = NewSplitter(f.w, f.h, f.cx0, f.cy0, f.cfg.TileSize, f.cfg.TilesOrder, f.cfg.TileSeed)
		f.areaCnt = f.splitter.Size()
	} else {
		atomic.StoreInt64(&f.nextArea, 0)
		f.splitter = nil
		f.areaCnt = 1
	}

	f.aborted.Store(false)
	f.completedCnt = 0
	f.nPass = 1
	f.nPasses = numPasses
	f.flags.fill(true)

	f.imagesAutoSave.reset()
	f.filmAutoSave.reset()

	if f.cfg.SaveMode == SaveModeLoadAndSave {
		f.loadAllInDir()
	}
	if f.cfg.SaveMode == SaveModeLoadAndSave || f.cfg.SaveMode == SaveModeSave {
		f.backupFilmFile()
	}
}

// NextArea hands out the next render area, or ok=false when the pass is
// exhausted or the render was aborted. Safe for concurrent callers.
func (f *Film) NextArea() (RenderArea, bool) {
	if f.aborted.Load() {
		return RenderArea{}, false
	}

	ifilterw := int(math.Ceil(f.filter.Width()))
	n := int(atomic.AddInt64(&f.nextArea, 1)) - 1

	var a RenderArea
	if f.splitter != nil {
		var ok bool
		if a, ok = f.splitter.Area(n); !ok {
			return RenderArea{}, false
		}
	} else {
		if n > 0 {
			return RenderArea{}, false
		}
		a = RenderArea{X: f.cx0, Y: f.cy0, W: f.w, H: f.h}
	}

	a.SX0 = a.X + ifilterw
	a.SX1 = a.X + a.W - ifilterw
	a.SY0 = a.Y + ifilterw
	a.SY1 = a.Y + a.H - ifilterw
	return a, true
}

// DoMoreSamples reports whether the pixel still needs samples this pass
func (f *Film) DoMoreSamples(x, y int) bool {
	return f.cfg.Noise.Threshold <= 0 || f.flags.get(x-f.cx0, y-f.cy0)
}

// roundToInt matches the original filter footprint rounding
func roundToInt(d float64) int {
	return int(math.Floor(d + 0.5))
}

// AddSample splats one sample into every layer buffer. (x, y) is the
// pixel, (dx, dy) the sub-pixel offset in [0,1). The filter footprint
// may reach into neighboring tiles, which is exactly why accumulation is
// serialized on the image mutex rather than per-area.
func (f *Film) AddSample(x, y int, dx, dy float64, layers *core.ColorLayers) {
	filterw := f.filter.Width()

	// filter extent clamped to the image area
	dx0 := max(f.cx0-x, roundToInt(dx-filterw))
	dx1 := min(f.cx1-x-1, roundToInt(dx+filterw-1.0))
	dy0 := max(f.cy0-y, roundToInt(dy-filterw))
	dy1 := min(f.cy1-y-1, roundToInt(dy+filterw-1.0))
	if dx1 < dx0 || dy1 < dy0 {
		return
	}

	xOffs := dx - 0.5
	yOffs := dy - 0.5

	f.imageMu.Lock()
	defer f.imageMu.Unlock()

	for j := y + dy0; j <= y+dy1; j++ {
		fy := math.Abs(float64(j-y) - yOffs)
		for i := x + dx0; i <= x+dx1; i++ {
			fx := math.Abs(float64(i-x) - xOffs)
			wt := f.filter.Weight(fx, fy)

			px := i - f.cx0
			py := j - f.cy0
			idx := py*f.w + px
			f.weights[idx] += wt

			for li := range f.layers {
				col := layers.Get(f.layers[li]).ClampProportional(f.cfg.Noise.ClampSamples)
				f.images[li][idx] = f.images[li][idx].Add(col.Scale(wt))
			}
		}
	}
}

// AddDensitySample splats into the separate density buffer, used for
// light-transport density visualizations. Disjoint lock from AddSample.
func (f *Film) AddDensitySample(c core.Vec3, x, y int, dx, dy float64) {
	if !f.cfg.EstimateDensity {
		return
	}
	filterw := f.filter.Width()

	dx0 := max(f.cx0-x, roundToInt(dx-filterw))
	dx1 := min(f.cx1-x-1, roundToInt(dx+filterw-1.0))
	dy0 := max(f.cy0-y, roundToInt(dy-filterw))
	dy1 := min(f.cy1-y-1, roundToInt(dy+filterw-1.0))
	if dx1 < dx0 || dy1 < dy0 {
		return
	}

	xOffs := dx - 0.5
	yOffs := dy - 0.5

	f.densityMu.Lock()
	defer f.densityMu.Unlock()

	for j := y + dy0; j <= y+dy1; j++ {
		fy := math.Abs(float64(j-y) - yOffs)
		for i := x + dx0; i <= x+dx1; i++ {
			fx := math.Abs(float64(i-x) - xOffs)
			wt := f.filter.Weight(fx, fy)
			idx := (j-f.cy0)*f.w + (i - f.cx0)
			f.density[idx] = f.density[idx].Add(c.Multiply(wt))
		}
	}
	f.numDensitySamples++
}

// FinishArea normalizes the completed area's pixels and forwards them to
// the outputs, then runs the time-based autosave checks. A failed pixel
// write sets the cooperative abort flag.
//
// It reads the accumulators under outMu only: a neighbouring area's
// border splat can still land under imageMu while this runs, so a pixel
// on the area edge may show a torn preview value. The pass barrier
// settles it before anything final is read.
func (f *Film) FinishArea(a RenderArea) {
	f.outMu.Lock()
	defer f.outMu.Unlock()

	endX := a.X + a.W - f.cx0
	endY := a.Y + a.H - f.cy0

	cl := f.NewColorLayers()
	for j := a.Y - f.cy0; j < endY; j++ {
		for i := a.X - f.cx0; i < endX; i++ {
			idx := j*f.w + i
			weight := f.weights[idx]
			for li, l := range f.layers {
				cl.Set(l, f.images[li][idx].Normalized(weight))
			}
			for _, out := range f.outputs {
				if !out.PutPixel(i, j, cl) {
					f.aborted.Store(true)
				}
			}
		}
	}
	for _, out := range f.outputs {
		out.FlushArea(a.X-f.cx0, a.Y-f.cy0, endX, endY)
	}

	f.checkTimeAutoSave()

	f.completedCnt++
	if f.completedCnt == f.areaCnt {
		f.logger.Printf("film: pass %d of %d complete\n", f.nPass, f.nPasses)
	}
}

// checkTimeAutoSave flushes images and/or the film checkpoint when a
// time-based autosave interval elapsed. Best effort: runs while a pass
// is in flight and tolerates torn reads of in-progress data.
func (f *Film) checkTimeAutoSave() {
	if f.imagesAutoSave.params.Interval == AutoSaveTime &&
		time.Since(f.imagesAutoSave.lastSave).Seconds() > f.imagesAutoSave.params.IntervalSeconds {
		f.flushLocked(FlushAll)
		f.imagesAutoSave.lastSave = time.Now()
	}
	if (f.cfg.SaveMode == SaveModeSave || f.cfg.SaveMode == SaveModeLoadAndSave) &&
		f.filmAutoSave.params.Interval == AutoSaveTime &&
		time.Since(f.filmAutoSave.lastSave).Seconds() > f.filmAutoSave.params.IntervalSeconds {
		if err := f.SaveFilm(f.FilmPath()); err != nil {
			f.logger.Printf("film: autosave failed: %v\n", err)
		}
		f.filmAutoSave.lastSave = time.Now()
	}
}

// NextPass advances to the next pass: resets the area counter, runs
// pass-interval autosaves, recomputes the resample flags and returns the
// number of pixels that need further sampling. Must only be called at
// the pass barrier, with no samples in flight.
func (f *Film) NextPass(adaptive bool) int {
	atomic.StoreInt64(&f.nextArea, 0)
	f.nPass++
	f.imagesAutoSave.passCounter++
	f.filmAutoSave.passCounter++

	if f.imagesAutoSave.params.Interval == AutoSavePass &&
		f.imagesAutoSave.passCounter >= f.imagesAutoSave.params.IntervalPasses {
		f.Flush(FlushAll)
		f.imagesAutoSave.passCounter = 0
	}
	if (f.cfg.SaveMode == SaveModeSave || f.cfg.SaveMode == SaveModeLoadAndSave) &&
		f.filmAutoSave.params.Interval == AutoSavePass &&
		f.filmAutoSave.passCounter >= f.filmAutoSave.params.IntervalPasses {
		if err := f.SaveFilm(f.FilmPath()); err != nil {
			f.logger.Printf("film: autosave failed: %v\n", err)
		}
		f.filmAutoSave.passCounter = 0
	}

	nResample := f.recomputeResampleFlags(adaptive)

	if f.resumed {
		f.logger.Printf("film: film loaded + rendering pass %d of %d, resampling %d pixels\n", f.nPass, f.nPasses, nResample)
	} else {
		f.logger.Printf("film: rendering pass %d of %d, resampling %d pixels\n", f.nPass, f.nPasses, nResample)
	}
	f.completedCnt = 0

	return nResample
}

// FlushFlags selects what Flush writes to the outputs
type FlushFlags int

const (
	FlushRegular FlushFlags = 1 << iota
	FlushDensity

	FlushAll = FlushRegular | FlushDensity
)

// Flush performs the final (or periodic) normalization of every pixel of
// every layer and forwards the result to all outputs. It only reads the
// accumulators, so calling it repeatedly is safe and idempotent.
func (f *Film) Flush(flags FlushFlags) {
	f.outMu.Lock()
	defer f.outMu.Unlock()
	f.flushLocked(flags)
}

func (f *Film) flushLocked(flags FlushFlags) {
	densityFactor := 0.0
	if f.cfg.EstimateDensity && f.numDensitySamples > 0 {
		densityFactor = float64(f.w*f.h) / float64(f.numDensitySamples)
	}

	cl := f.NewColorLayers()
	for j := 0; j < f.h; j++ {
		for i := 0; i < f.w; i++ {
			idx := j*f.w + i
			weight := f.weights[idx]
			for li, l := range f.layers {
				var col core.Rgba
				if flags&FlushRegular != 0 {
					col = f.images[li][idx].Normalized(weight)
				}
				if l == core.LayerCombined && flags&FlushDensity != 0 && densityFactor > 0 {
					d := f.density[idx].Multiply(densityFactor)
					col.R += d.X
					col.G += d.Y
					col.B += d.Z
				}
				cl.Set(l, col)
			}
			for _, out := range f.outputs {
				if !out.PutPixel(i, j, cl) {
					f.aborted.Store(true)
				}
			}
		}
	}

	for _, out := range f.outputs {
		if err := out.Flush(); err != nil {
			f.logger.Printf("film: output flush failed: %v\n", err)
			f.aborted.Store(true)
		}
	}
}

// Finish saves the film checkpoint if configured. Called once after the
// final flush.
func (f *Film) Finish() {
	if f.cfg.SaveMode == SaveModeSave || f.cfg.SaveMode == SaveModeLoadAndSave {
		if err := f.SaveFilm(f.FilmPath()); err != nil {
			f.logger.Printf("film: save failed: %v\n", err)
		}
	}
}

// Abort requests a cooperative stop: no further areas are handed out
func (f *Film) Abort() {
	f.aborted.Store(true)
}

// IsAborted reports whether the render was aborted
func (f *Film) IsAborted() bool {
	return f.aborted.Load()
}

// WeightAt returns the accumulated filter weight of a pixel
func (f *Film) WeightAt(x, y int) float64 {
	return f.weights[y*f.w+x]
}

// NormalizedColor returns a pixel's normalized color in the given layer
func (f *Film) NormalizedColor(l core.Layer, x, y int) core.Rgba {
	li := f.layerIndex(l)
	if li < 0 {
		return core.Rgba{}
	}
	idx := y*f.w + x
	return f.images[li][idx].Normalized(f.weights[idx])
}

func (f *Film) layerIndex(l core.Layer) int {
	for i, fl := range f.layers {
		if fl == l {
			return i
		}
	}
	return -1
}
