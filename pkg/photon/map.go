package photon

import (
	"container/heap"
	"sort"

	"github.com/df07/go-montecarlo-raytracer/pkg/core"
)

// Photon is one stored light-transport sample. Dir is the direction the
// photon arrived from, as needed for BSDF evaluation at gather time.
type Photon struct {
	Pos    core.Vec3
	Dir    core.Vec3
	Flux   core.Vec3
	Normal core.Vec3 // surface normal at the deposit point
}

// Found is one photon returned by a gather, with its squared distance to
// the query point.
type Found struct {
	Photon *Photon
	Dist2  float64
}

type kdNode struct {
	photon      int32
	axis        int8 // -1 for leaf
	left, right int32
}

// Map stores photons and answers range queries over them. It has two
// phases: an unordered build phase (AddPhoton, merging) and a query
// phase entered by Build. Queries before Build or additions after it are
// programming errors.
type Map struct {
	photons []Photon
	nodes   []kdNode
	root    int32
	ready   bool
}

// NewMap creates an empty photon map with capacity for n photons
func NewMap(n int) *Map {
	return &Map{photons: make([]Photon, 0, n), root: -1}
}

// NumPhotons returns the number of stored photons
func (m *Map) NumPhotons() int {
	return len(m.photons)
}

// Ready reports whether Build has run
func (m *Map) Ready() bool {
	return m.ready
}

// AddPhoton appends a photon. Not safe for concurrent use; workers
// collect locally and merge through Merge.
func (m *Map) AddPhoton(p Photon) {
	m.photons = append(m.photons, p)
}

// Merge appends a batch of photons
func (m *Map) Merge(batch []Photon) {
	m.photons = append(m.photons, batch...)
}

// Scale multiplies every stored flux by s. Used to fold the emitted
// photon count into the stored power once shooting is done.
func (m *Map) Scale(s float64) {
	for i := range m.photons {
		m.photons[i].Flux = m.photons[i].Flux.Multiply(s)
	}
}

// Build constructs the kd-tree over the stored photons and switches the
// map into the query phase
func (m *Map) Build() {
	m.nodes = m.nodes[:0]
	indices := make([]int32, len(m.photons))
	for i := range indices {
		indices[i] = int32(i)
	}
	m.root = m.build(indices)
	m.ready = true
}

func (m *Map) build(indices []int32) int32 {
	if len(indices) == 0 {
		return -1
	}
	if len(indices) == 1 {
		m.nodes = append(m.nodes, kdNode{photon: indices[0], axis: -1, left: -1, right: -1})
		return int32(len(m.nodes) - 1)
	}

	// split on the axis of greatest extent
	lo := m.photons[indices[0]].Pos
	hi := lo
	for _, i := range indices[1:] {
		p := m.photons[i].Pos
		lo = core.NewVec3(min(lo.X, p.X), min(lo.Y, p.Y), min(lo.Z, p.Z))
		hi = core.NewVec3(max(hi.X, p.X), max(hi.Y, p.Y), max(hi.Z, p.Z))
	}
	ext := hi.Subtract(lo)
	axis := int8(0)
	if ext.Y > ext.X && ext.Y >= ext.Z {
		axis = 1
	} else if ext.Z > ext.X && ext.Z > ext.Y {
		axis = 2
	}

	sort.Slice(indices, func(a, b int) bool {
		return axisValue(m.photons[indices[a]].Pos, axis) < axisValue(m.photons[indices[b]].Pos, axis)
	})
	median := len(indices) / 2

	node := int32(len(m.nodes))
	m.nodes = append(m.nodes, kdNode{photon: indices[median], axis: axis})
	left := m.build(indices[:median])
	right := m.build(indices[median+1:])
	m.nodes[node].left = left
	m.nodes[node].right = right
	return node
}

func axisValue(v core.Vec3, axis int8) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// foundHeap is a max-heap on Dist2 so the farthest candidate is evicted
// first once the gather is full
type foundHeap []Found

func (h foundHeap) Len() int            { return len(h) }
func (h foundHeap) Less(i, j int) bool  { return h[i].Dist2 > h[j].Dist2 }
func (h foundHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *foundHeap) Push(x interface{}) { *h = append(*h, x.(Found)) }
func (h *foundHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Gather returns up to maxPhotons photons nearest to p within maxDist2
// squared distance, and the squared distance of the farthest one
// returned. The result underlies the density estimate: gathered flux
// over the disc of the returned radius.
func (m *Map) Gather(p core.Vec3, maxPhotons int, maxDist2 float64) ([]Found, float64) {
	if !m.ready || m.root < 0 || maxPhotons <= 0 {
		return nil, 0
	}

	h := make(foundHeap, 0, maxPhotons)
	m.gather(m.root, p, maxPhotons, &maxDist2, &h)

	if len(h) == 0 {
		return nil, 0
	}
	sort.Slice(h, func(a, b int) bool { return h[a].Dist2 < h[b].Dist2 })
	return h, h[len(h)-1].Dist2
}

func (m *Map) gather(node int32, p core.Vec3, maxPhotons int, maxDist2 *float64, h *foundHeap) {
	n := &m.nodes[node]
	ph := &m.photons[n.photon]

	d := ph.Pos.Subtract(p)
	dist2 := d.LengthSquared()
	if dist2 < *maxDist2 {
		if len(*h) < maxPhotons {
			heap.Push(h, Found{Photon: ph, Dist2: dist2})
		} else if dist2 < (*h)[0].Dist2 {
			(*h)[0] = Found{Photon: ph, Dist2: dist2}
			heap.Fix(h, 0)
			// once full, the search radius shrinks to the worst kept photon
			*maxDist2 = (*h)[0].Dist2
		}
	}

	if n.axis < 0 {
		return
	}

	split := axisValue(ph.Pos, n.axis) - axisValue(p, n.axis)
	near, far := n.left, n.right
	if split < 0 {
		near, far = far, near
	}
	if near >= 0 {
		m.gather(near, p, maxPhotons, maxDist2, h)
	}
	if far >= 0 && split*split < *maxDist2 {
		m.gather(far, p, maxPhotons, maxDist2, h)
	}
}
