package gravity

import (
	"math"

	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/tree"
)

// DefaultTheta is the default opening angle of the hierarchical evaluator.
const DefaultTheta = 0.5

// BarnesHut approximates the force sum with the aggregated monopoles of the
// spatial index, opening cells wider than Theta. Remote essential cells
// installed on the index contribute as far-field monopoles, so distributed
// partitions see the full mass distribution.
type BarnesHut struct {
	Theta float64
	Index *tree.Tree
}

func NewBarnesHut(idx *tree.Tree, theta float64) *BarnesHut {
	if theta <= 0 {
		theta = DefaultTheta
	}
	return &BarnesHut{Theta: theta, Index: idx}
}

func (b *BarnesHut) Accelerate(s *sim.Simulation) error {
	eps2 := s.Softening * s.Softening
	g := s.G

	parallelFor(s.NReal(), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &s.Particles[i]
			var ax, ay, az float64
			b.Index.ForMassNodes(s, b.Theta, p.X, p.Y, p.Z, func(m, cx, cy, cz float64) {
				dx := cx - p.X
				dy := cy - p.Y
				dz := cz - p.Z
				r2 := dx*dx + dy*dy + dz*dz + eps2
				if r2 == 0 || (dx == 0 && dy == 0 && dz == 0) {
					return
				}
				f := g * m * invCube(r2)
				ax += f * dx
				ay += f * dy
				az += f * dz
			})
			p.AX = ax
			p.AY = ay
			p.AZ = az
		}
	})
	return nil
}

func (b *BarnesHut) AccelerateVariational(s *sim.Simulation) error {
	// Variational accelerations need exact pair geometry; the monopole
	// walk has nothing to offer here.
	return accelerateVariational(s)
}

func invCube(r2 float64) float64 {
	rinv := 1 / math.Sqrt(r2)
	return rinv * rinv * rinv
}
