package collision

import (
	"math"

	"github.com/lokhorst/rebound/internal/sim"
)

// Bounce is a hard-sphere response: the normal component of the relative
// velocity is reflected and scaled by the coefficient of restitution.
type Bounce struct {
	Restitution float64
}

func NewBounce(restitution float64) *Bounce { return &Bounce{Restitution: restitution} }

func (b *Bounce) Resolve(s *sim.Simulation, c sim.Collision) int {
	p := &s.Particles[c.P1]
	q := &s.Particles[c.P2]

	dx := q.X - p.X
	dy := q.Y - p.Y
	dz := q.Z - p.Z
	d2 := dx*dx + dy*dy + dz*dz
	if d2 == 0 {
		return -1
	}
	dvx := q.VX - p.VX
	dvy := q.VY - p.VY
	dvz := q.VZ - p.VZ

	// Normal relative speed (negative while approaching).
	vn := (dx*dvx + dy*dvy + dz*dvz) / math.Sqrt(d2)
	if vn >= 0 {
		return -1
	}

	mu := p.M * q.M / (p.M + q.M)
	impulse := -(1 + b.Restitution) * mu * vn / math.Sqrt(d2)

	p.VX -= impulse / p.M * dx
	p.VY -= impulse / p.M * dy
	p.VZ -= impulse / p.M * dz
	q.VX += impulse / q.M * dx
	q.VY += impulse / q.M * dy
	q.VZ += impulse / q.M * dz
	return -1
}

// Merge combines the pair into the lower-index particle, conserving mass
// and momentum, and removes the other. Radii combine by volume.
type Merge struct{}

func NewMerge() *Merge { return &Merge{} }

func (m *Merge) Resolve(s *sim.Simulation, c sim.Collision) int {
	keep, drop := c.P1, c.P2
	if keep > drop {
		keep, drop = drop, keep
	}
	p := &s.Particles[keep]
	q := s.Particles[drop]

	total := p.M + q.M
	if total > 0 {
		p.X = (p.M*p.X + q.M*q.X) / total
		p.Y = (p.M*p.Y + q.M*q.Y) / total
		p.Z = (p.M*p.Z + q.M*q.Z) / total
		p.VX = (p.M*p.VX + q.M*q.VX) / total
		p.VY = (p.M*p.VY + q.M*q.VY) / total
		p.VZ = (p.M*p.VZ + q.M*q.VZ) / total
	}
	p.R = math.Cbrt(p.R*p.R*p.R + q.R*q.R*q.R)
	p.M = total

	s.RemoveParticle(drop)
	return drop
}
