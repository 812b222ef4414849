package integrator

import "github.com/lokhorst/rebound/internal/sim"

// OffsetLeapfrog is algebraically the same scheme as Leapfrog but merges the
// trailing drift of one step with the leading drift of the next whenever
// synchronization is not required. Between steps the positions then lag the
// reportable representation by half a drift; Synchronize applies the pending
// half-drift on demand.
//
// With SafeMode set (the default) every step ends synchronized and the
// integrator behaves exactly like Leapfrog. With SafeMode off, hooks and
// status reports that read positions must only run while
// Symplectic.IsSynchronized is true; the driver and orchestrator enforce
// this at their fixed synchronization points.
type OffsetLeapfrog struct{}

func NewOffsetLeapfrog() *OffsetLeapfrog { return &OffsetLeapfrog{} }

func (o *OffsetLeapfrog) Part1(s *sim.Simulation) {
	o.drift(s, s.Dt/2)
	if !s.Symplectic.IsSynchronized {
		// Pending half-drift from the previous step, merged here.
		o.drift(s, s.Dt/2)
	}
	s.Symplectic.RecalculateCoordinates = false
	s.T += s.Dt / 2
}

func (o *OffsetLeapfrog) Part2(s *sim.Simulation) {
	for i := range s.Particles {
		p := &s.Particles[i]
		p.VX += s.Dt * p.AX
		p.VY += s.Dt * p.AY
		p.VZ += s.Dt * p.AZ
	}
	s.Symplectic.IsSynchronized = false
	if s.Symplectic.SafeMode {
		o.Synchronize(s)
	}
	s.T += s.Dt / 2
}

func (o *OffsetLeapfrog) Synchronize(s *sim.Simulation) {
	if s.Symplectic.IsSynchronized {
		return
	}
	o.drift(s, s.Dt/2)
	s.Symplectic.IsSynchronized = true
}

func (o *OffsetLeapfrog) drift(s *sim.Simulation, h float64) {
	for i := range s.Particles {
		p := &s.Particles[i]
		p.X += h * p.VX
		p.Y += h * p.VY
		p.Z += h * p.VZ
	}
}
