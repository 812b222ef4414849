// Package boundary implements the domain boundary policies applied to
// particle positions after each drift.
package boundary

import "github.com/lokhorst/rebound/internal/sim"

// None leaves particles untouched; the domain is unbounded.
type None struct{}

func NewNone() *None { return &None{} }

func (*None) Check(s *sim.Simulation) {}

// Open removes particles that leave the box. Removal shrinks the particle
// set, matching the open-boundary convention that escapers are lost to the
// simulation.
type Open struct{}

func NewOpen() *Open { return &Open{} }

func (*Open) Check(s *sim.Simulation) {
	hx := s.BoxSizeX() / 2
	hy := s.BoxSizeY() / 2
	hz := s.BoxSizeZ() / 2
	if hx <= 0 {
		return
	}
	for i := s.N() - 1; i >= 0; i-- {
		p := s.Particles[i]
		if p.X < -hx || p.X > hx || p.Y < -hy || p.Y > hy || p.Z < -hz || p.Z > hz {
			if i >= s.NReal() {
				s.NMegno--
			}
			s.RemoveParticle(i)
		}
	}
}

// Periodic wraps positions back into the box, which is centered on the
// origin.
type Periodic struct{}

func NewPeriodic() *Periodic { return &Periodic{} }

func (*Periodic) Check(s *sim.Simulation) {
	bx := s.BoxSizeX()
	by := s.BoxSizeY()
	bz := s.BoxSizeZ()
	if bx <= 0 {
		return
	}
	for i := range s.Particles {
		p := &s.Particles[i]
		p.X = wrap(p.X, bx)
		p.Y = wrap(p.Y, by)
		p.Z = wrap(p.Z, bz)
	}
}

func wrap(x, size float64) float64 {
	half := size / 2
	for x < -half {
		x += size
	}
	for x > half {
		x -= size
	}
	return x
}
