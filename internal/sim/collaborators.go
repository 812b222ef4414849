package sim

// The step orchestrator drives heterogeneous subsystems through these
// contracts. Every call receives the shared simulation state; collaborators
// mutate it in place. Absent optional collaborators are nil fields checked
// at each call site.

// Integrator advances the state by one splitting-method step, split into two
// halves so the orchestrator can interleave force evaluation between them.
// Part1 and Part2 each advance T by Dt/2 and are only meaningful when called
// in that alternating order.
type Integrator interface {
	Part1(s *Simulation)
	Part2(s *Simulation)

	// Synchronize brings the integrator's internal working coordinates and
	// the reportable positions/velocities into agreement. Safe to call
	// redundantly.
	Synchronize(s *Simulation)
}

// BoundaryEnforcer applies the configured boundary policy to all particle
// positions in place. Open boundaries may remove particles.
type BoundaryEnforcer interface {
	Check(s *Simulation)
}

// SpatialIndex maintains a hierarchical structure over the particles, shared
// by gravity evaluation and collision search.
type SpatialIndex interface {
	// Update builds the index on first invocation and refines it for the
	// current positions afterwards.
	Update(s *Simulation) error

	// UpdateGravityData recomputes the aggregated mass moments used by
	// hierarchical gravity evaluation.
	UpdateGravityData(s *Simulation)

	// PrepareEssential extracts the boundary-adjacent subset of the index
	// required by remote partitions.
	PrepareEssential(s *Simulation)
}

// GravityEvaluator writes accelerations into the particle records.
type GravityEvaluator interface {
	Accelerate(s *Simulation) error

	// AccelerateVariational computes accelerations for the trailing NMegno
	// shadow particles.
	AccelerateVariational(s *Simulation) error
}

// Collision is a candidate pair produced by collision search, identified by
// particle indices.
type Collision struct {
	P1, P2 int
}

// CollisionEngine detects and resolves collisions. Resolution mutates only
// locally-owned particles and may reduce the particle count.
type CollisionEngine interface {
	Search(s *Simulation) []Collision
	Resolve(s *Simulation, cs []Collision)
}

// Coordinator exchanges particle and aggregated tree data across cooperating
// processes. Both calls block until every peer has completed the exchange.
type Coordinator interface {
	DistributeParticles(s *Simulation) error
	DistributeEssentialTree(s *Simulation) error
}
