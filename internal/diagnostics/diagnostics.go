// Package diagnostics computes conserved quantities of a simulation and
// tracks how well an integration preserves them over time.
package diagnostics

import (
	"math"

	"github.com/lokhorst/rebound/internal/sim"
)

// Energy returns the total mechanical energy of the physical particles,
// kinetic plus pairwise softened potential.
func Energy(s *sim.Simulation) float64 {
	var e float64
	n := s.NReal()
	eps2 := s.Softening * s.Softening
	for i := 0; i < n; i++ {
		p := s.Particles[i]
		e += 0.5 * p.M * (p.VX*p.VX + p.VY*p.VY + p.VZ*p.VZ)
		for j := i + 1; j < n; j++ {
			q := s.Particles[j]
			dx := p.X - q.X
			dy := p.Y - q.Y
			dz := p.Z - q.Z
			r := math.Sqrt(dx*dx + dy*dy + dz*dz + eps2)
			if r > 0 {
				e -= s.G * p.M * q.M / r
			}
		}
	}
	return e
}

// Momentum returns the total linear momentum of the physical particles.
func Momentum(s *sim.Simulation) (px, py, pz float64) {
	for i := 0; i < s.NReal(); i++ {
		p := s.Particles[i]
		px += p.M * p.VX
		py += p.M * p.VY
		pz += p.M * p.VZ
	}
	return
}

// AngularMomentum returns the total angular momentum of the physical
// particles about the origin.
func AngularMomentum(s *sim.Simulation) (lx, ly, lz float64) {
	for i := 0; i < s.NReal(); i++ {
		p := s.Particles[i]
		lx += p.M * (p.Y*p.VZ - p.Z*p.VY)
		ly += p.M * (p.Z*p.VX - p.X*p.VZ)
		lz += p.M * (p.X*p.VY - p.Y*p.VX)
	}
	return
}

// EnergyDrift records the worst relative deviation of total energy from its
// value at the first observation.
type EnergyDrift struct {
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{}
}

func (e *EnergyDrift) Observe(s *sim.Simulation) {
	energy := Energy(s)
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
