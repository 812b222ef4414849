// Package integrator provides the splitting-method integrators consumed by
// the stepping core: each advances the state by a drift half-step (part 1)
// and a kick plus drift close-out (part 2), with force evaluation in
// between.
package integrator

import "github.com/lokhorst/rebound/internal/sim"

// Leapfrog is the second-order drift-kick-drift scheme. It keeps no internal
// coordinates, so its reported state is always synchronized.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog { return &Leapfrog{} }

func (l *Leapfrog) Part1(s *sim.Simulation) {
	half := s.Dt / 2
	for i := range s.Particles {
		p := &s.Particles[i]
		p.X += half * p.VX
		p.Y += half * p.VY
		p.Z += half * p.VZ
	}
	s.T += half
}

func (l *Leapfrog) Part2(s *sim.Simulation) {
	half := s.Dt / 2
	for i := range s.Particles {
		p := &s.Particles[i]
		p.VX += s.Dt * p.AX
		p.VY += s.Dt * p.AY
		p.VZ += s.Dt * p.AZ
		p.X += half * p.VX
		p.Y += half * p.VY
		p.Z += half * p.VZ
	}
	s.T += half
}

func (l *Leapfrog) Synchronize(s *sim.Simulation) {}
