package renderer

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// ImageOutput accumulates normalized pixels of one layer into an RGBA
// image, with gamma 2.0 for display. The film serializes PutPixel calls,
// so no locking is needed here.
type ImageOutput struct {
	layer core.Layer
	img   *image.RGBA
}

// NewImageOutput creates an image output for the given layer
func NewImageOutput(width, height int, layer core.Layer) *ImageOutput {
	return &ImageOutput{
		layer: layer,
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func toByte(v float64) uint8 {
	// sqrt approximates the display gamma of 2.2 closely enough
	v = math.Sqrt(math.Max(0, v))
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

// PutPixel stores a normalized pixel
func (o *ImageOutput) PutPixel(x, y int, layers *core.ColorLayers) bool {
	c := layers.Get(o.layer)
	o.img.SetRGBA(x, y, color.RGBA{
		R: toByte(c.R),
		G: toByte(c.G),
		B: toByte(c.B),
		A: uint8(math.Min(math.Max(c.A, 0), 1)*255 + 0.5),
	})
	return true
}

// FlushArea is a no-op; the image is always up to date
func (o *ImageOutput) FlushArea(x0, y0, x1, y1 int) {}

// Flush is a no-op; use SavePNG to persist
func (o *ImageOutput) Flush() error { return nil }

// Image returns the backing image
func (o *ImageOutput) Image() *image.RGBA {
	return o.img
}

// SavePNG writes the current image to path
func (o *ImageOutput) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, o.img)
}
