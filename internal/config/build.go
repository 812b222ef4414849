package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lokhorst/rebound/internal/boundary"
	"github.com/lokhorst/rebound/internal/collision"
	"github.com/lokhorst/rebound/internal/comm"
	"github.com/lokhorst/rebound/internal/gravity"
	"github.com/lokhorst/rebound/internal/integrator"
	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/tree"
)

// Build assembles a fully wired simulation from the configuration: strategy
// objects first, then initial conditions.
func (c *Config) Build() (*sim.Simulation, error) {
	s, _, err := c.build()
	return s, err
}

// BuildDistributed builds the simulation plus a coordinator for one rank of
// a multi-process run. Every rank builds the same initial conditions from
// the shared seed; the coordinator keeps only the particles whose root box
// this rank owns.
func (c *Config) BuildDistributed(rank, size int) (*sim.Simulation, *comm.Coordinator, error) {
	if c.Gravity != "tree" {
		return nil, nil, fmt.Errorf("config: distributed runs require tree gravity, got %q", c.Gravity)
	}
	s, idx, err := c.build()
	if err != nil {
		return nil, nil, err
	}
	coord := comm.New(comm.Partition{Rank: rank, Size: size}, idx)
	coord.Prune(s)
	s.SetCoordinator(coord)
	return s, coord, nil
}

func (c *Config) build() (*sim.Simulation, *tree.Tree, error) {
	opts := sim.DefaultOptions()
	opts.Dt = c.Dt
	opts.G = c.G
	opts.Softening = c.Softening
	opts.BoxSize = c.Box.Size
	opts.RootNX = c.Box.RootX
	opts.RootNY = c.Box.RootY
	opts.RootNZ = c.Box.RootZ
	opts.ExactFinishTime = c.Stepping.ExactFinishTime

	s, err := sim.New(opts)
	if err != nil {
		return nil, nil, err
	}
	s.Symplectic.SafeMode = c.Stepping.SafeMode

	switch c.Integrator {
	case "", "leapfrog":
		s.SetIntegrator(integrator.NewLeapfrog())
	case "offset":
		s.SetIntegrator(integrator.NewOffsetLeapfrog())
	default:
		return nil, nil, fmt.Errorf("config: unknown integrator %q", c.Integrator)
	}

	switch c.Boundary {
	case "", "none":
		s.SetBoundary(boundary.NewNone())
	case "open":
		s.SetBoundary(boundary.NewOpen())
	case "periodic":
		s.SetBoundary(boundary.NewPeriodic())
	default:
		return nil, nil, fmt.Errorf("config: unknown boundary %q", c.Boundary)
	}

	var idx *tree.Tree
	needTree := c.Gravity == "tree" || c.Collision == "tree"
	if needTree {
		idx = tree.New()
		s.SetSpatialIndex(idx)
	}

	theta := c.Theta
	if theta <= 0 {
		theta = gravity.DefaultTheta
	}
	switch c.Gravity {
	case "none":
		s.SetGravity(gravity.None{}, false)
	case "", "direct":
		s.SetGravity(gravity.NewDirect(), false)
	case "tree":
		s.SetGravity(gravity.NewBarnesHut(idx, theta), true)
	default:
		return nil, nil, fmt.Errorf("config: unknown gravity %q", c.Gravity)
	}

	var resolver collision.Resolver
	switch c.Resolver {
	case "", "bounce":
		resolver = collision.NewBounce(c.Restitution)
	case "merge":
		resolver = collision.NewMerge()
	default:
		return nil, nil, fmt.Errorf("config: unknown resolver %q", c.Resolver)
	}
	switch c.Collision {
	case "", "none":
	case "direct":
		s.SetCollisions(collision.NewDirect(resolver))
	case "tree":
		s.SetCollisions(collision.NewTreeSearch(idx, resolver))
	default:
		return nil, nil, fmt.Errorf("config: unknown collision %q", c.Collision)
	}

	if err := c.populate(s); err != nil {
		return nil, nil, err
	}
	if c.Init.Megno {
		s.AddShadowParticles(1e-16)
	}
	return s, idx, nil
}

func (c *Config) populate(s *sim.Simulation) error {
	init := c.Init
	switch init.Setup {
	case "binary":
		// Equal-mass circular binary at unit separation.
		v := 0.5 * math.Sqrt(s.G*1.0/1.0)
		s.AddParticle(sim.Particle{X: -0.5, VY: -v, M: 0.5, R: init.Radius})
		s.AddParticle(sim.Particle{X: 0.5, VY: v, M: 0.5, R: init.Radius})
	case "figure_eight":
		// Chenciner-Montgomery three-body choreography.
		x, y := 0.97000436, -0.24308753
		vx, vy := -0.93240737, -0.86473146
		s.AddParticle(sim.Particle{X: x, Y: y, VX: -vx / 2, VY: -vy / 2, M: 1, R: init.Radius})
		s.AddParticle(sim.Particle{X: -x, Y: -y, VX: -vx / 2, VY: -vy / 2, M: 1, R: init.Radius})
		s.AddParticle(sim.Particle{VX: vx, VY: vy, M: 1, R: init.Radius})
	case "", "cluster":
		rng := rand.New(rand.NewSource(c.Seed))
		n := init.Bodies
		if n <= 0 {
			n = DefaultBodies
		}
		spread := init.Spread
		if spread <= 0 {
			spread = DefaultSpread
		}
		for i := 0; i < n; i++ {
			s.AddParticle(sim.Particle{
				X: spread * (2*rng.Float64() - 1),
				Y: spread * (2*rng.Float64() - 1),
				Z: spread * (2*rng.Float64() - 1),
				M: init.MaxMass * rng.Float64(),
				R: init.Radius,
			})
		}
	case "disc":
		// Massless test particles on circular orbits around a unit-mass
		// central body.
		rng := rand.New(rand.NewSource(c.Seed))
		n := init.Bodies
		if n <= 0 {
			n = DefaultBodies
		}
		s.AddParticle(sim.Particle{M: 1, R: init.Radius})
		for i := 0; i < n-1; i++ {
			r := 1.0 + 2.0*rng.Float64()
			phi := 2 * math.Pi * rng.Float64()
			v := math.Sqrt(s.G / r)
			s.AddParticle(sim.Particle{
				X: r * math.Cos(phi), Y: r * math.Sin(phi),
				VX: -v * math.Sin(phi), VY: v * math.Cos(phi),
				R: init.Radius,
			})
		}
	default:
		return fmt.Errorf("config: unknown setup %q", init.Setup)
	}
	return nil
}
