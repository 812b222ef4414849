package sim

// Particle is a single point mass. Position, velocity and the most recently
// evaluated acceleration are stored inline; R is the physical radius used by
// collision detection (zero means the particle cannot collide).
type Particle struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	AX, AY, AZ float64
	M          float64
	R          float64
}

// DistanceSquared returns the squared separation between p and q.
func (p Particle) DistanceSquared(q Particle) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// RadiusSquared returns the squared distance of p from the origin.
func (p Particle) RadiusSquared() float64 {
	return p.X*p.X + p.Y*p.Y + p.Z*p.Z
}

// AddParticle appends a particle to the simulation. Index order is
// significant: shadow particles must stay at the tail, so physical particles
// are inserted just before them.
func (s *Simulation) AddParticle(p Particle) {
	if s.NMegno == 0 {
		s.Particles = append(s.Particles, p)
		return
	}
	i := len(s.Particles) - s.NMegno
	s.Particles = append(s.Particles, Particle{})
	copy(s.Particles[i+1:], s.Particles[i:])
	s.Particles[i] = p
}

// RemoveParticle deletes the particle at index i, preserving the order of the
// remaining particles.
func (s *Simulation) RemoveParticle(i int) {
	s.Particles = append(s.Particles[:i], s.Particles[i+1:]...)
}

// AddShadowParticles appends one variational shadow particle per physical
// particle and records their count in NMegno. Shadow records hold the
// variation vector itself, seeded as a displacement of delta*(i+1) along x
// so no two variations coincide. They are advanced by the integrator like
// any other particle but are excluded from escape and close-encounter scans.
func (s *Simulation) AddShadowParticles(delta float64) {
	n := s.NReal()
	for i := 0; i < n; i++ {
		v := s.Particles[i]
		v.X = delta * float64(i+1)
		v.Y = 0
		v.Z = 0
		v.VX = 0
		v.VY = 0
		v.VZ = 0
		s.Particles = append(s.Particles, v)
	}
	s.NMegno = n
}
