// Package sim is the time-stepping core of the engine: it owns the mutable
// simulation state and sequences one step at a time across the integrator,
// boundary, spatial index, gravity, collision and distributed-exchange
// subsystems, then drives whole runs to a target time.
//
// A Simulation is exclusively owned by the goroutine that created it and is
// not safe for concurrent use. Parallelism lives inside individual
// collaborator calls and is fully joined before they return.
package sim

import (
	"fmt"
	"sync"
)

// ShowBanner gates the one-time startup banner printed by the first call to
// New in a process. Process-wide; set it to false before constructing the
// first Simulation to silence it. There is no reset short of a new process.
var ShowBanner = true

var bannerOnce sync.Once

// SymplecticSettings configures the splitting-method integrators. The
// defaults are conservative: safe mode synchronizes after every step, which
// is slower but keeps reported coordinates always valid.
type SymplecticSettings struct {
	SafeMode  bool
	Corrector int

	// IsSynchronized reports whether positions and velocities are currently
	// in their reportable representation. Maintained by the integrator.
	IsSynchronized bool

	// RecalculateCoordinates is set after a hook mutates state outside the
	// integrator, marking any cached coordinate transform stale. Cleared by
	// the integrator on the next step.
	RecalculateCoordinates bool
}

// AdaptiveSettings carries error-control parameters for adaptive
// integrators. The core stores them but does not interpret them.
type AdaptiveSettings struct {
	Epsilon float64
	MinDt   float64
}

// Options are the construction-time parameters of a Simulation. Start from
// DefaultOptions and override.
type Options struct {
	Dt        float64
	G         float64
	Softening float64

	// BoxSize is the edge length of one root box; non-positive means the
	// domain is unbounded.
	BoxSize                float64
	RootNX, RootNY, RootNZ int

	ExactFinishTime bool
}

// DefaultOptions returns the documented defaults: unit gravitational
// constant, zero softening, dt of 0.001, an unbounded box and a single root
// box per axis.
func DefaultOptions() Options {
	return Options{
		Dt:      0.001,
		G:       1,
		BoxSize: -1,
		RootNX:  1,
		RootNY:  1,
		RootNZ:  1,
	}
}

// Simulation owns all mutable simulation data. It is constructed once,
// mutated in place by every step, and never reconstructed mid-run.
type Simulation struct {
	T         float64
	Dt        float64
	G         float64
	Softening float64

	BoxSize                float64
	RootNX, RootNY, RootNZ int

	// NActive is the number of massive particles; -1 means all particles
	// are massive.
	NActive int

	// NMegno counts the trailing variational shadow particles. They are
	// excluded from escape and close-encounter scans.
	NMegno int

	Particles []Particle

	Symplectic SymplecticSettings
	Adaptive   AdaptiveSettings

	// Optional hooks, each invoked at a fixed point of the step or run.
	// Nil means absent.
	AdditionalForces          func(*Simulation)
	PostTimestep              func(*Simulation)
	PostTimestepModifications func(*Simulation)
	Finished                  func(*Simulation)

	// ExitSimulation requests a cooperative stop; it is sampled once per
	// driver iteration.
	ExitSimulation bool

	ExactFinishTime bool

	// LastEscaped and LastEncounter record which particle or pair triggered
	// the most recent escape or close-encounter status.
	LastEscaped   int
	LastEncounter [2]int

	integrator  Integrator
	boundary    BoundaryEnforcer
	index       SpatialIndex
	gravity     GravityEvaluator
	collisions  CollisionEngine
	coordinator Coordinator
	treeGravity bool
}

// New constructs a Simulation with the given options. It fails with
// ErrConfiguration if any root-box count is below 1; no partial state is
// returned. Collaborators are attached afterwards via the Set methods.
func New(opts Options) (*Simulation, error) {
	if opts.RootNX < 1 || opts.RootNY < 1 || opts.RootNZ < 1 {
		return nil, fmt.Errorf("%w (got %d*%d*%d)", ErrConfiguration, opts.RootNX, opts.RootNY, opts.RootNZ)
	}
	if ShowBanner {
		bannerOnce.Do(func() {
			fmt.Printf("rebound: gravitational n-body engine\n")
			fmt.Printf("initialized %d*%d*%d root boxes\n", opts.RootNX, opts.RootNY, opts.RootNZ)
		})
	}
	return &Simulation{
		Dt:              opts.Dt,
		G:               opts.G,
		Softening:       opts.Softening,
		BoxSize:         opts.BoxSize,
		RootNX:          opts.RootNX,
		RootNY:          opts.RootNY,
		RootNZ:          opts.RootNZ,
		NActive:         -1,
		ExactFinishTime: opts.ExactFinishTime,
		Symplectic: SymplecticSettings{
			SafeMode:       true,
			IsSynchronized: true,
		},
		Adaptive: AdaptiveSettings{
			Epsilon: 1e-9,
		},
		LastEscaped:   -1,
		LastEncounter: [2]int{-1, -1},
	}, nil
}

// N returns the current particle count, shadow particles included.
func (s *Simulation) N() int { return len(s.Particles) }

// NReal returns the count of physical particles, excluding the trailing
// shadow particles.
func (s *Simulation) NReal() int { return len(s.Particles) - s.NMegno }

// RootN returns the total number of root boxes.
func (s *Simulation) RootN() int { return s.RootNX * s.RootNY * s.RootNZ }

// BoxSizeX returns the domain extent along x (negative when unbounded).
func (s *Simulation) BoxSizeX() float64 { return s.BoxSize * float64(s.RootNX) }

// BoxSizeY returns the domain extent along y (negative when unbounded).
func (s *Simulation) BoxSizeY() float64 { return s.BoxSize * float64(s.RootNY) }

// BoxSizeZ returns the domain extent along z (negative when unbounded).
func (s *Simulation) BoxSizeZ() float64 { return s.BoxSize * float64(s.RootNZ) }

func (s *Simulation) SetIntegrator(i Integrator)      { s.integrator = i }
func (s *Simulation) SetBoundary(b BoundaryEnforcer)  { s.boundary = b }
func (s *Simulation) SetCollisions(c CollisionEngine) { s.collisions = c }
func (s *Simulation) SetCoordinator(c Coordinator)    { s.coordinator = c }

// SetSpatialIndex attaches the spatial index maintained each step.
func (s *Simulation) SetSpatialIndex(idx SpatialIndex) { s.index = idx }

// SetGravity attaches the gravity evaluator. hierarchical declares that the
// evaluator consumes aggregated moments from the spatial index, enabling the
// gravity-data and essential-exchange phases of each step.
func (s *Simulation) SetGravity(g GravityEvaluator, hierarchical bool) {
	s.gravity = g
	s.treeGravity = hierarchical
}

// Synchronize forces the integrator to reconcile its internal coordinates
// with the reportable positions and velocities.
func (s *Simulation) Synchronize() {
	if s.integrator != nil {
		s.integrator.Synchronize(s)
	}
}
