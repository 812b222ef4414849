// Package tree maintains an octree over the particle set, organized as one
// subtree per root box. Gravity evaluation consumes aggregated mass moments
// through ForMassNodes; collision search consumes neighbor queries through
// ForNeighbors; the distributed coordinator consumes the prepared essential
// cells.
package tree

import (
	"errors"
	"math"

	"github.com/lokhorst/rebound/internal/sim"
)

// ErrOutsideDomain is returned when a particle falls outside the root-box
// grid of a bounded simulation.
var ErrOutsideDomain = errors.New("tree: particle outside the root box domain")

// ErrCoincident is returned when two particles occupy positions too close
// to separate within the maximum tree depth.
var ErrCoincident = errors.New("tree: coincident particles exceed maximum tree depth")

const maxDepth = 64

// essentialDepth bounds how deep PrepareEssential descends when summarizing
// a root box for remote partitions.
const essentialDepth = 2

type cell struct {
	children [8]*cell
	particle int // particle index when leaf; -1 otherwise
	leaf     bool

	m             float64
	cmx, cmy, cmz float64

	x, y, z float64 // geometric center
	w       float64 // edge length
}

// EssentialCell is a monopole summary of a tree cell, the unit of the
// essential-tree exchange between partitions.
type EssentialCell struct {
	M       float64
	X, Y, Z float64
	W       float64
}

// Tree implements sim.SpatialIndex.
type Tree struct {
	roots []*cell

	// Local reports whether a root box index belongs to this partition.
	// Nil means every box is local (single-process runs).
	Local func(root int) bool

	essential []EssentialCell
	remote    []EssentialCell
}

func New() *Tree { return &Tree{} }

// Update builds the tree on first invocation and rebuilds it for the
// current particle positions afterwards.
func (t *Tree) Update(s *sim.Simulation) error {
	n := s.RootN()
	if cap(t.roots) < n {
		t.roots = make([]*cell, n)
	}
	t.roots = t.roots[:n]
	t.remote = t.remote[:0]

	bounded := s.BoxSize > 0
	var cx, cy, cz, w float64
	if !bounded {
		cx, cy, cz, w = boundingCube(s)
	}

	for i := range t.roots {
		if bounded {
			cx, cy, cz = t.rootCenter(s, i)
			w = s.BoxSize
		}
		t.roots[i] = &cell{particle: -1, x: cx, y: cy, z: cz, w: w}
	}

	// Shadow particles carry variation vectors, not positions, and are
	// excluded from the index.
	for i := 0; i < s.NReal(); i++ {
		root := 0
		if bounded {
			root = t.RootIndexOf(s, s.Particles[i])
			if root < 0 {
				return ErrOutsideDomain
			}
		}
		if err := t.insert(t.roots[root], s, i, 0); err != nil {
			return err
		}
	}
	return nil
}

// UpdateGravityData recomputes the mass and center-of-mass moments of every
// cell, bottom up.
func (t *Tree) UpdateGravityData(s *sim.Simulation) {
	for _, root := range t.roots {
		aggregate(root, s)
	}
}

// PrepareEssential extracts monopole summaries of the locally-owned root
// boxes, shallow enough to keep the exchange small but sufficient for remote
// far-field evaluation. The result is read by the coordinator via Essential.
func (t *Tree) PrepareEssential(s *sim.Simulation) {
	t.essential = t.essential[:0]
	for i, root := range t.roots {
		if t.Local != nil && !t.Local(i) {
			continue
		}
		t.collectEssential(root, 0)
	}
}

// Essential returns the cells prepared by the last PrepareEssential call.
func (t *Tree) Essential() []EssentialCell { return t.essential }

// SetRemote installs the essential cells received from other partitions.
// They contribute to gravity as far-field monopoles until the next Update.
func (t *Tree) SetRemote(cells []EssentialCell) { t.remote = cells }

// ForMassNodes walks the tree for an evaluation point, emitting a monopole
// for every cell that satisfies the opening-angle criterion and for every
// leaf. Remote essential cells are always emitted as monopoles.
func (t *Tree) ForMassNodes(s *sim.Simulation, theta, x, y, z float64, fn func(m, mx, my, mz float64)) {
	for _, root := range t.roots {
		walkMass(s, root, theta, x, y, z, fn)
	}
	for _, c := range t.remote {
		if c.M != 0 {
			fn(c.M, c.X, c.Y, c.Z)
		}
	}
}

// ForNeighbors calls fn for every particle other than i within distance r of
// particle i.
func (t *Tree) ForNeighbors(s *sim.Simulation, i int, r float64, fn func(j int)) {
	p := s.Particles[i]
	r2 := r * r
	for _, root := range t.roots {
		walkNeighbors(s, root, i, p, r, r2, fn)
	}
}

// RootIndexOf returns the index of the root box containing p, or -1 when p
// lies outside the grid. Unbounded simulations always map to box 0.
func (t *Tree) RootIndexOf(s *sim.Simulation, p sim.Particle) int {
	if s.BoxSize <= 0 {
		return 0
	}
	ix := int(math.Floor((p.X + s.BoxSizeX()/2) / s.BoxSize))
	iy := int(math.Floor((p.Y + s.BoxSizeY()/2) / s.BoxSize))
	iz := int(math.Floor((p.Z + s.BoxSizeZ()/2) / s.BoxSize))
	if ix < 0 || ix >= s.RootNX || iy < 0 || iy >= s.RootNY || iz < 0 || iz >= s.RootNZ {
		return -1
	}
	return ix + s.RootNX*iy + s.RootNX*s.RootNY*iz
}

func (t *Tree) rootCenter(s *sim.Simulation, root int) (cx, cy, cz float64) {
	ix := root % s.RootNX
	iy := (root / s.RootNX) % s.RootNY
	iz := root / (s.RootNX * s.RootNY)
	cx = -s.BoxSizeX()/2 + (float64(ix)+0.5)*s.BoxSize
	cy = -s.BoxSizeY()/2 + (float64(iy)+0.5)*s.BoxSize
	cz = -s.BoxSizeZ()/2 + (float64(iz)+0.5)*s.BoxSize
	return
}

func (t *Tree) insert(c *cell, s *sim.Simulation, i, depth int) error {
	if depth > maxDepth {
		return ErrCoincident
	}
	if c.leaf {
		// Split the occupied leaf and push both particles down.
		j := c.particle
		c.leaf = false
		c.particle = -1
		if err := t.insert(c.childFor(s.Particles[j]), s, j, depth+1); err != nil {
			return err
		}
		return t.insert(c.childFor(s.Particles[i]), s, i, depth+1)
	}
	if !hasChildren(c) {
		c.leaf = true
		c.particle = i
		return nil
	}
	return t.insert(c.childFor(s.Particles[i]), s, i, depth+1)
}

func hasChildren(c *cell) bool {
	for _, ch := range c.children {
		if ch != nil {
			return true
		}
	}
	return false
}

func (c *cell) childFor(p sim.Particle) *cell {
	octant := 0
	if p.X > c.x {
		octant |= 1
	}
	if p.Y > c.y {
		octant |= 2
	}
	if p.Z > c.z {
		octant |= 4
	}
	if c.children[octant] == nil {
		q := c.w / 4
		ch := &cell{particle: -1, w: c.w / 2, x: c.x - q, y: c.y - q, z: c.z - q}
		if octant&1 != 0 {
			ch.x = c.x + q
		}
		if octant&2 != 0 {
			ch.y = c.y + q
		}
		if octant&4 != 0 {
			ch.z = c.z + q
		}
		c.children[octant] = ch
	}
	return c.children[octant]
}

func aggregate(c *cell, s *sim.Simulation) {
	c.m, c.cmx, c.cmy, c.cmz = 0, 0, 0, 0
	if c.leaf {
		p := s.Particles[c.particle]
		c.m = p.M
		c.cmx, c.cmy, c.cmz = p.X, p.Y, p.Z
		return
	}
	for _, ch := range c.children {
		if ch == nil {
			continue
		}
		aggregate(ch, s)
		c.m += ch.m
		c.cmx += ch.m * ch.cmx
		c.cmy += ch.m * ch.cmy
		c.cmz += ch.m * ch.cmz
	}
	if c.m > 0 {
		c.cmx /= c.m
		c.cmy /= c.m
		c.cmz /= c.m
	}
}

func (t *Tree) collectEssential(c *cell, depth int) {
	if c == nil || c.m == 0 {
		return
	}
	if depth == essentialDepth || c.leaf {
		t.essential = append(t.essential, EssentialCell{M: c.m, X: c.cmx, Y: c.cmy, Z: c.cmz, W: c.w})
		return
	}
	for _, ch := range c.children {
		if ch != nil {
			t.collectEssential(ch, depth+1)
		}
	}
}

func walkMass(s *sim.Simulation, c *cell, theta, x, y, z float64, fn func(m, mx, my, mz float64)) {
	if c == nil || c.m == 0 {
		return
	}
	if c.leaf {
		fn(c.m, c.cmx, c.cmy, c.cmz)
		return
	}
	dx := c.cmx - x
	dy := c.cmy - y
	dz := c.cmz - z
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if d > 0 && c.w/d < theta {
		fn(c.m, c.cmx, c.cmy, c.cmz)
		return
	}
	for _, ch := range c.children {
		walkMass(s, ch, theta, x, y, z, fn)
	}
}

func walkNeighbors(s *sim.Simulation, c *cell, i int, p sim.Particle, r, r2 float64, fn func(j int)) {
	if c == nil {
		return
	}
	if c.leaf {
		if c.particle != i && p.DistanceSquared(s.Particles[c.particle]) < r2 {
			fn(c.particle)
		}
		return
	}
	// Prune cells whose bounding cube cannot intersect the search sphere.
	half := c.w / 2
	if math.Abs(p.X-c.x) > half+r || math.Abs(p.Y-c.y) > half+r || math.Abs(p.Z-c.z) > half+r {
		return
	}
	for _, ch := range c.children {
		walkNeighbors(s, ch, i, p, r, r2, fn)
	}
}

func boundingCube(s *sim.Simulation) (cx, cy, cz, w float64) {
	if s.NReal() == 0 {
		return 0, 0, 0, 1
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, p := range s.Particles[:s.NReal()] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}
	cx = (minX + maxX) / 2
	cy = (minY + maxY) / 2
	cz = (minZ + maxZ) / 2
	w = math.Max(maxX-minX, math.Max(maxY-minY, maxZ-minZ)) * 1.001
	if w == 0 {
		w = 1
	}
	return
}
