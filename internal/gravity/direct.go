// Package gravity computes particle accelerations: a direct-summation
// evaluator, a hierarchical evaluator over the spatial index, and the
// variational accelerations of shadow particles. Evaluators fan work out
// across worker goroutines and join them before returning.
package gravity

import "github.com/lokhorst/rebound/internal/sim"

// Work below this many particles is not worth fanning out.
const minChunk = 256

// None zeroes accelerations, for runs driven entirely by user forces.
type None struct{}

func (None) Accelerate(s *sim.Simulation) error {
	for i := range s.Particles {
		p := &s.Particles[i]
		p.AX, p.AY, p.AZ = 0, 0, 0
	}
	return nil
}

func (None) AccelerateVariational(s *sim.Simulation) error { return nil }

// Direct sums the softened pairwise interactions exactly.
type Direct struct{}

func NewDirect() *Direct { return &Direct{} }

func (d *Direct) Accelerate(s *sim.Simulation) error {
	nReal := s.NReal()
	nAct := s.NActive
	if nAct < 0 || nAct > nReal {
		nAct = nReal
	}
	eps2 := s.Softening * s.Softening
	g := s.G

	parallelFor(nReal, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &s.Particles[i]
			var ax, ay, az float64
			for j := 0; j < nAct; j++ {
				if j == i {
					continue
				}
				q := s.Particles[j]
				dx := q.X - p.X
				dy := q.Y - p.Y
				dz := q.Z - p.Z
				r2 := dx*dx + dy*dy + dz*dz + eps2
				if r2 == 0 {
					continue
				}
				r3inv := invCube(r2)
				f := g * q.M * r3inv
				ax += f * dx
				ay += f * dy
				az += f * dz
			}
			p.AX = ax
			p.AY = ay
			p.AZ = az
		}
	})
	return nil
}

// AccelerateVariational computes the first-order variational accelerations
// of the trailing shadow particles from the real particle geometry.
func (d *Direct) AccelerateVariational(s *sim.Simulation) error {
	return accelerateVariational(s)
}

func accelerateVariational(s *sim.Simulation) error {
	nReal := s.NReal()
	nAct := s.NActive
	if nAct < 0 || nAct > nReal {
		nAct = nReal
	}
	// Only sources that have a shadow counterpart carry a variation.
	if nAct > s.NMegno {
		nAct = s.NMegno
	}
	eps2 := s.Softening * s.Softening
	g := s.G

	for k := 0; k < s.NMegno; k++ {
		v := &s.Particles[nReal+k]
		pk := s.Particles[k]
		var ax, ay, az float64
		for j := 0; j < nAct; j++ {
			if j == k {
				continue
			}
			pj := s.Particles[j]
			vj := s.Particles[nReal+j]

			dx := pk.X - pj.X
			dy := pk.Y - pj.Y
			dz := pk.Z - pj.Z
			ddx := v.X - vj.X
			ddy := v.Y - vj.Y
			ddz := v.Z - vj.Z

			r2 := dx*dx + dy*dy + dz*dz + eps2
			if r2 == 0 {
				continue
			}
			r3inv := invCube(r2)
			dot := dx*ddx + dy*ddy + dz*ddz
			gm := g * pj.M

			ax += -gm * r3inv * (ddx - 3*dot*dx/r2)
			ay += -gm * r3inv * (ddy - 3*dot*dy/r2)
			az += -gm * r3inv * (ddz - 3*dot*dz/r2)
		}
		v.AX = ax
		v.AY = ay
		v.AZ = az
	}
	return nil
}
