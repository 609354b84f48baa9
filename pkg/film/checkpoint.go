package film

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// filmHeader is the checkpoint format magic. The layout is the legacy
// binary film format: NUL-terminated header string, then little-endian
// u32 computerNode, u32 baseSamplingOffset, u32 samplingOffset, i32
// width/height/cx0/cx1/cy0/cy1, i32 layerCount, the weight buffer as
// h*w f32 row-major, then per layer h*w RGBA f32. The in-memory
// accumulators are float64, so a save/load round trip is exact only to
// float32 precision.
const filmHeader = "YAF_FILMv4_0_0"

const filmExt = ".film"

// FilmPath returns the checkpoint path for this film's computer node
func (f *Film) FilmPath() string {
	return fmt.Sprintf("%s - node %04d%s", f.cfg.FilmPath, f.cfg.ComputerNode, filmExt)
}

// SaveFilm writes the film's accumulation state to path. It only reads
// the accumulators; periodic autosaves can therefore run mid-pass at
// the cost of a torn (best-effort) snapshot.
func (f *Film) SaveFilm(path string) error {
	f.logger.Printf("film: saving film to %q\n", path)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("film: create %q: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	if _, err := w.WriteString(filmHeader); err != nil {
		return fmt.Errorf("film: write header: %w", err)
	}
	if err := w.WriteByte(0); err != nil {
		return fmt.Errorf("film: write header: %w", err)
	}

	for _, v := range []uint32{f.cfg.ComputerNode, f.baseSamplingOffset, f.samplingOffset} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("film: write offsets: %w", err)
		}
	}
	for _, v := range []int32{int32(f.w), int32(f.h), int32(f.cx0), int32(f.cx1), int32(f.cy0), int32(f.cy1), int32(len(f.layers))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("film: write dimensions: %w", err)
		}
	}

	buf := make([]byte, 4)
	putF32 := func(v float64) error {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		_, err := w.Write(buf)
		return err
	}

	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			if err := putF32(f.weights[y*f.w+x]); err != nil {
				return fmt.Errorf("film: write weights: %w", err)
			}
		}
	}

	for li := range f.layers {
		img := f.images[li]
		for y := 0; y < f.h; y++ {
			for x := 0; x < f.w; x++ {
				c := img[y*f.w+x]
				for _, v := range [4]float64{c.R, c.G, c.B, c.A} {
					if err := putF32(v); err != nil {
						return fmt.Errorf("film: write layer: %w", err)
					}
				}
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("film: flush %q: %w", path, err)
	}
	return nil
}

// LoadFilm reads a checkpoint from path and replaces the film's
// accumulation state with it. Every dimension field must match this
// film's configuration exactly; on any mismatch the load fails and the
// film is left untouched.
func (f *Film) LoadFilm(path string) error {
	f.logger.Printf("film: loading film from %q\n", path)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("film: open %q: %w", path, err)
	}
	defer file.Close()

	r := bufio.NewReader(file)

	header, err := r.ReadString(0)
	if err != nil {
		return fmt.Errorf("film: read header: %w", err)
	}
	if strings.TrimRight(header, "\x00") != filmHeader {
		return fmt.Errorf("film: %q is not a valid film file", path)
	}

	var computerNode, baseSamplingOffset, samplingOffset uint32
	for _, p := range []*uint32{&computerNode, &baseSamplingOffset, &samplingOffset} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("film: read offsets: %w", err)
		}
	}

	var dims [7]int32
	for i := range dims {
		if err := binary.Read(r, binary.LittleEndian, &dims[i]); err != nil {
			return fmt.Errorf("film: read dimensions: %w", err)
		}
	}

	checks := []struct {
		name     string
		expected int
		loaded   int32
	}{
		{"width", f.w, dims[0]},
		{"height", f.h, dims[1]},
		{"cx0", f.cx0, dims[2]},
		{"cx1", f.cx1, dims[3]},
		{"cy0", f.cy0, dims[4]},
		{"cy1", f.cy1, dims[5]},
		{"layer count", len(f.layers), dims[6]},
	}
	for _, c := range checks {
		if int32(c.expected) != c.loaded {
			return fmt.Errorf("film: load check failed: %s expected=%d loaded=%d", c.name, c.expected, c.loaded)
		}
	}

	// read everything into fresh buffers first so a truncated file
	// cannot leave the film partially overwritten
	buf := make([]byte, 4)
	getF32 := func() (float64, error) {
		if _, err := readFull(r, buf); err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
	}

	weights := make([]float64, f.w*f.h)
	for i := range weights {
		v, err := getF32()
		if err != nil {
			return fmt.Errorf("film: read weights: %w", err)
		}
		weights[i] = v
	}

	images := make([][]core.Rgba, len(f.layers))
	for li := range images {
		images[li] = make([]core.Rgba, f.w*f.h)
		for i := range images[li] {
			var c core.Rgba
			for _, p := range []*float64{&c.R, &c.G, &c.B, &c.A} {
				v, err := getF32()
				if err != nil {
					return fmt.Errorf("film: read layer: %w", err)
				}
				*p = v
			}
			images[li][i] = c
		}
	}

	f.weights = weights
	f.images = images
	f.baseSamplingOffset = baseSamplingOffset
	f.samplingOffset = samplingOffset
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// loadAllInDir merges every sibling checkpoint whose name starts with
// this film's base name into the accumulators, additively, so films
// rendered on several nodes combine into one image. Load failures are
// logged and skipped; the render continues from whatever loaded.
func (f *Film) loadAllInDir() {
	dir := filepath.Dir(f.cfg.FilmPath)
	base := filepath.Base(f.cfg.FilmPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		f.logger.Printf("film: cannot list %q: %v\n", dir, err)
		return
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, filmExt) && strings.HasPrefix(name, base) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		loaded := New(f.cfg, f.logger)
		if err := loaded.LoadFilm(path); err != nil {
			f.logger.Printf("film: could not load %q: %v\n", path, err)
			continue
		}

		for i := range f.weights {
			f.weights[i] += loaded.weights[i]
		}
		for li := range f.images {
			for i := range f.images[li] {
				f.images[li][i] = f.images[li][i].Add(loaded.images[li][i])
			}
		}
		if f.samplingOffset < loaded.samplingOffset {
			f.samplingOffset = loaded.samplingOffset
		}
		if f.baseSamplingOffset < loaded.baseSamplingOffset {
			f.baseSamplingOffset = loaded.baseSamplingOffset
		}
		f.resumed = true
		f.logger.Printf("film: loaded film %q\n", path)
	}
}

// backupFilmFile renames an existing checkpoint out of the way before it
// is overwritten, in case the user wants the previous film back
func (f *Film) backupFilmFile() {
	path := f.FilmPath()
	if _, err := os.Stat(path); err != nil {
		return
	}
	backup := path + "-previous.bak"
	if err := os.Rename(path, backup); err != nil {
		f.logger.Printf("film: film file backup failed: %v\n", err)
	}
}
