package core

import "math"

// Rgba is a linear RGB color with coverage alpha, the accumulation unit
// of the image film. Unpremultiplied while accumulating; normalization
// divides all four channels by the pixel weight.
type Rgba struct {
	R, G, B, A float64
}

// NewRgba creates a color from components
func NewRgba(r, g, b, a float64) Rgba {
	return Rgba{R: r, G: g, B: b, A: a}
}

// NewRgbaFromVec3 creates an opaque color from an RGB vector
func NewRgbaFromVec3(v Vec3) Rgba {
	return Rgba{R: v.X, G: v.Y, B: v.Z, A: 1}
}

// Vec3 returns the RGB part as a vector
func (c Rgba) Vec3() Vec3 {
	return Vec3{X: c.R, Y: c.G, Z: c.B}
}

// Add returns the channel-wise sum of two colors
func (c Rgba) Add(other Rgba) Rgba {
	return Rgba{c.R + other.R, c.G + other.G, c.B + other.B, c.A + other.A}
}

// Scale returns the color with all channels multiplied by s
func (c Rgba) Scale(s float64) Rgba {
	return Rgba{c.R * s, c.G * s, c.B * s, c.A * s}
}

// MultiplyVec modulates the RGB channels by a vector, leaving alpha
func (c Rgba) MultiplyVec(v Vec3) Rgba {
	return Rgba{c.R * v.X, c.G * v.Y, c.B * v.Z, c.A}
}

// Normalized divides by the accumulated weight; zero weight yields black
func (c Rgba) Normalized(weight float64) Rgba {
	if weight <= 0 {
		return Rgba{}
	}
	inv := 1.0 / weight
	return Rgba{c.R * inv, c.G * inv, c.B * inv, c.A * inv}
}

// Brightness returns the average of the absolute RGB channels
func (c Rgba) Brightness() float64 {
	return (math.Abs(c.R) + math.Abs(c.G) + math.Abs(c.B)) / 3.0
}

// ColorDifference measures the perceptual difference between two colors
// as used by the adaptive sampling noise detection. The base metric is
// the brightness difference; with detectColorNoise the red-green and
// blue-violet opponent channel differences are considered as well, which
// catches chroma noise that brightness differencing misses.
func (c Rgba) ColorDifference(other Rgba, detectColorNoise bool) float64 {
	diff := math.Abs(other.Brightness() - c.Brightness())
	if detectColorNoise {
		rgDiff := math.Abs((other.R - other.G) - (c.R - c.G))
		bvDiff := math.Abs((other.B - (other.G+other.R)*0.5) - (c.B - (c.G+c.R)*0.5))
		if rgDiff > diff {
			diff = rgDiff
		}
		if bvDiff > diff {
			diff = bvDiff
		}
	}
	return diff
}

// ClampProportional limits the largest RGB channel to maxValue, scaling
// the other channels by the same factor to preserve hue. A maxValue <= 0
// disables clamping. Alpha is clamped to [0,1] independently.
func (c Rgba) ClampProportional(maxValue float64) Rgba {
	out := c
	if maxValue > 0 {
		maxComponent := max(c.R, max(c.G, c.B))
		if maxComponent > maxValue {
			s := maxValue / maxComponent
			out.R *= s
			out.G *= s
			out.B *= s
		}
	}
	out.A = max(0, min(1, out.A))
	return out
}

// Layer identifies one render layer of the image film
type Layer int

// Render layers. Combined is always present; the rest are optional
// decompositions of the same estimate.
const (
	LayerCombined Layer = iota
	LayerDiffuse
	LayerDiffuseNoShadow
	LayerGlossy
	LayerShadow
	LayerAO
	LayerAOClay
	LayerCaustic
	LayerZDepth
	LayerDebugSamplingFactor
	numLayers
)

var layerNames = map[Layer]string{
	LayerCombined:            "combined",
	LayerDiffuse:             "diffuse",
	LayerDiffuseNoShadow:     "diffuse-no-shadow",
	LayerGlossy:              "glossy",
	LayerShadow:              "shadow",
	LayerAO:                  "ao",
	LayerAOClay:              "ao-clay",
	LayerCaustic:             "caustic",
	LayerZDepth:              "z-depth",
	LayerDebugSamplingFactor: "debug-sampling-factor",
}

// String returns the layer's parameter name
func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return "unknown"
}

// ColorLayers holds the per-layer color contributions of a single camera
// sample. One instance lives per estimator invocation and is merged into
// the film once the full recursive estimate for that ray is complete.
// Writes to layers that were not requested are dropped, so the estimator
// can record decompositions unconditionally.
type ColorLayers struct {
	colors  [numLayers]Rgba
	defined [numLayers]bool
}

// NewColorLayers creates a set accepting contributions for the given layers.
// Combined is always included.
func NewColorLayers(layers []Layer) *ColorLayers {
	cl := &ColorLayers{}
	cl.defined[LayerCombined] = true
	for _, l := range layers {
		cl.defined[l] = true
	}
	return cl
}

// Defined reports whether the layer accepts contributions
func (cl *ColorLayers) Defined(l Layer) bool {
	return cl.defined[l]
}

// List returns the defined layers in declaration order
func (cl *ColorLayers) List() []Layer {
	layers := make([]Layer, 0, numLayers)
	for l := Layer(0); l < numLayers; l++ {
		if cl.defined[l] {
			layers = append(layers, l)
		}
	}
	return layers
}

// Set overwrites the layer's color if the layer is defined
func (cl *ColorLayers) Set(l Layer, c Rgba) {
	if cl.defined[l] {
		cl.colors[l] = c
	}
}

// AddVec3 adds an RGB contribution to the layer if it is defined
func (cl *ColorLayers) AddVec3(l Layer, v Vec3) {
	if cl.defined[l] {
		cl.colors[l].R += v.X
		cl.colors[l].G += v.Y
		cl.colors[l].B += v.Z
	}
}

// Get returns the layer's accumulated color
func (cl *ColorLayers) Get(l Layer) Rgba {
	return cl.colors[l]
}

// SetAlpha stores the coverage alpha on every defined layer
func (cl *ColorLayers) SetAlpha(alpha float64) {
	for l := Layer(0); l < numLayers; l++ {
		if cl.defined[l] {
			cl.colors[l].A = alpha
		}
	}
}

// Reset clears all colors, keeping the defined set
func (cl *ColorLayers) Reset() {
	cl.colors = [numLayers]Rgba{}
}
