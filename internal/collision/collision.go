// Package collision detects overlapping particle pairs and resolves them.
// Search produces candidates; Resolve mutates only particles owned by the
// local partition and may shrink the particle set.
package collision

import (
	"math"

	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/tree"
)

// A Resolver applies the collision physics to one validated candidate pair.
// It returns the index of a removed particle, or -1 when both survive.
type Resolver interface {
	Resolve(s *sim.Simulation, c sim.Collision) int
}

// Direct searches every physical pair. Quadratic, but exact and free of any
// index dependency.
type Direct struct {
	Resolver Resolver
}

func NewDirect(r Resolver) *Direct { return &Direct{Resolver: r} }

func (d *Direct) Search(s *sim.Simulation) []sim.Collision {
	var cs []sim.Collision
	n := s.NReal()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if overlapping(s, j, i) {
				cs = append(cs, sim.Collision{P1: j, P2: i})
			}
		}
	}
	return cs
}

func (d *Direct) Resolve(s *sim.Simulation, cs []sim.Collision) {
	resolveAll(s, cs, d.Resolver)
}

// TreeSearch finds candidates through neighbor queries on the spatial
// index, pruning pairs that cannot touch.
type TreeSearch struct {
	Index    *tree.Tree
	Resolver Resolver
}

func NewTreeSearch(idx *tree.Tree, r Resolver) *TreeSearch {
	return &TreeSearch{Index: idx, Resolver: r}
}

func (t *TreeSearch) Search(s *sim.Simulation) []sim.Collision {
	n := s.NReal()
	var maxR float64
	for i := 0; i < n; i++ {
		maxR = math.Max(maxR, s.Particles[i].R)
	}
	if maxR == 0 {
		return nil
	}

	var cs []sim.Collision
	for i := 0; i < n; i++ {
		p := s.Particles[i]
		if p.R == 0 {
			continue
		}
		t.Index.ForNeighbors(s, i, p.R+maxR, func(j int) {
			if j < i && overlapping(s, j, i) {
				cs = append(cs, sim.Collision{P1: j, P2: i})
			}
		})
	}
	return cs
}

func (t *TreeSearch) Resolve(s *sim.Simulation, cs []sim.Collision) {
	resolveAll(s, cs, t.Resolver)
}

// overlapping reports whether the pair physically touches and is closing
// in. Separating pairs are left alone so a resolved bounce is not resolved
// twice.
func overlapping(s *sim.Simulation, i, j int) bool {
	p, q := s.Particles[i], s.Particles[j]
	if p.R == 0 && q.R == 0 {
		return false
	}
	sum := p.R + q.R
	if p.DistanceSquared(q) >= sum*sum {
		return false
	}
	dx := q.X - p.X
	dy := q.Y - p.Y
	dz := q.Z - p.Z
	dvx := q.VX - p.VX
	dvy := q.VY - p.VY
	dvz := q.VZ - p.VZ
	return dx*dvx+dy*dvy+dz*dvz < 0
}

func resolveAll(s *sim.Simulation, cs []sim.Collision, r Resolver) {
	if r == nil {
		return
	}
	for k := 0; k < len(cs); k++ {
		c := cs[k]
		if c.P1 < 0 || c.P2 < 0 || c.P1 >= s.NReal() || c.P2 >= s.NReal() {
			continue
		}
		// Earlier resolutions may have separated the pair already.
		if !overlapping(s, c.P1, c.P2) {
			continue
		}
		removed := r.Resolve(s, c)
		if removed < 0 {
			continue
		}
		for m := k + 1; m < len(cs); m++ {
			if cs[m].P1 == removed || cs[m].P2 == removed {
				cs[m] = sim.Collision{P1: -1, P2: -1}
				continue
			}
			if cs[m].P1 > removed {
				cs[m].P1--
			}
			if cs[m].P2 > removed {
				cs[m].P2--
			}
		}
	}
}
