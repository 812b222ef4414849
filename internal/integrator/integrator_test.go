package integrator

import (
	"math"
	"testing"

	"github.com/lokhorst/rebound/internal/sim"
)

func init() {
	sim.ShowBanner = false
}

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	s, err := sim.New(sim.DefaultOptions())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return s
}

// step emulates the orchestrator: part 1, acceleration evaluation, part 2.
func step(s *sim.Simulation, integ sim.Integrator, accel func(*sim.Simulation)) {
	integ.Part1(s)
	accel(s)
	integ.Part2(s)
}

func constantAccel(ax float64) func(*sim.Simulation) {
	return func(s *sim.Simulation) {
		for i := range s.Particles {
			s.Particles[i].AX = ax
			s.Particles[i].AY = 0
			s.Particles[i].AZ = 0
		}
	}
}

func TestLeapfrogFreeDrift(t *testing.T) {
	s := newSim(t)
	s.Dt = 0.5
	s.Particles = []sim.Particle{{M: 1, VX: 2}}

	step(s, NewLeapfrog(), constantAccel(0))

	if math.Abs(s.Particles[0].X-1.0) > 1e-15 {
		t.Errorf("expected x of 1.0 after free drift, got %g", s.Particles[0].X)
	}
	if math.Abs(s.T-0.5) > 1e-15 {
		t.Errorf("expected t of 0.5, got %g", s.T)
	}
}

func TestLeapfrogUniformAcceleration(t *testing.T) {
	// Under constant acceleration leapfrog is exact: x = a t^2 / 2.
	s := newSim(t)
	s.Dt = 0.1
	s.Particles = []sim.Particle{{M: 1}}

	integ := NewLeapfrog()
	for i := 0; i < 10; i++ {
		step(s, integ, constantAccel(3))
	}

	want := 3 * 1.0 * 1.0 / 2
	if math.Abs(s.Particles[0].X-want) > 1e-12 {
		t.Errorf("expected x of %g, got %g", want, s.Particles[0].X)
	}
	if math.Abs(s.Particles[0].VX-3.0) > 1e-12 {
		t.Errorf("expected vx of 3.0, got %g", s.Particles[0].VX)
	}
}

func TestLeapfrogTimeReversal(t *testing.T) {
	s := newSim(t)
	s.Dt = 0.1
	s.Particles = []sim.Particle{{M: 1, X: 1, VX: 0.5}}

	integ := NewLeapfrog()
	for i := 0; i < 5; i++ {
		step(s, integ, constantAccel(-1))
	}
	s.Dt = -0.1
	for i := 0; i < 5; i++ {
		step(s, integ, constantAccel(-1))
	}

	if math.Abs(s.Particles[0].X-1) > 1e-12 {
		t.Errorf("expected x restored to 1, got %g", s.Particles[0].X)
	}
	if math.Abs(s.Particles[0].VX-0.5) > 1e-12 {
		t.Errorf("expected vx restored to 0.5, got %g", s.Particles[0].VX)
	}
	if math.Abs(s.T) > 1e-12 {
		t.Errorf("expected t restored to 0, got %g", s.T)
	}
}

func TestOffsetLeapfrogMatchesLeapfrogInSafeMode(t *testing.T) {
	a, b := newSim(t), newSim(t)
	for _, s := range []*sim.Simulation{a, b} {
		s.Dt = 0.05
		s.Particles = []sim.Particle{{M: 1, X: 1, VX: -0.3}, {M: 2, X: -1, VX: 0.4}}
	}

	lf, off := NewLeapfrog(), NewOffsetLeapfrog()
	for i := 0; i < 20; i++ {
		step(a, lf, constantAccel(0.7))
		step(b, off, constantAccel(0.7))
	}

	for i := range a.Particles {
		if math.Abs(a.Particles[i].X-b.Particles[i].X) > 1e-14 {
			t.Errorf("particle %d: safe-mode offset leapfrog diverged: %g vs %g", i, a.Particles[i].X, b.Particles[i].X)
		}
	}
	if !b.Symplectic.IsSynchronized {
		t.Error("safe mode should leave every step synchronized")
	}
}

func TestOffsetLeapfrogLazySynchronization(t *testing.T) {
	a, b := newSim(t), newSim(t)
	for _, s := range []*sim.Simulation{a, b} {
		s.Dt = 0.05
		s.Particles = []sim.Particle{{M: 1, X: 1, VX: -0.3}}
	}
	b.Symplectic.SafeMode = false

	lf, off := NewLeapfrog(), NewOffsetLeapfrog()
	for i := 0; i < 20; i++ {
		step(a, lf, constantAccel(0.7))
		step(b, off, constantAccel(0.7))
	}

	if b.Symplectic.IsSynchronized {
		t.Fatal("expected unsynchronized state between lazy steps")
	}
	off.Synchronize(b)

	if !b.Symplectic.IsSynchronized {
		t.Fatal("synchronize should mark the state synchronized")
	}
	if math.Abs(a.Particles[0].X-b.Particles[0].X) > 1e-13 {
		t.Errorf("lazy offset leapfrog diverged after synchronize: %g vs %g", a.Particles[0].X, b.Particles[0].X)
	}
}

func TestOffsetLeapfrogSynchronizeIdempotent(t *testing.T) {
	s := newSim(t)
	s.Dt = 0.1
	s.Symplectic.SafeMode = false
	s.Particles = []sim.Particle{{M: 1, VX: 1}}

	off := NewOffsetLeapfrog()
	step(s, off, constantAccel(0))

	off.Synchronize(s)
	x := s.Particles[0].X
	off.Synchronize(s)

	if s.Particles[0].X != x {
		t.Errorf("redundant synchronize moved the particle: %g vs %g", x, s.Particles[0].X)
	}
}

func TestOffsetLeapfrogClearsStaleCoordinateFlag(t *testing.T) {
	s := newSim(t)
	s.Dt = 0.1
	s.Particles = []sim.Particle{{M: 1, VX: 1}}
	s.Symplectic.RecalculateCoordinates = true

	off := NewOffsetLeapfrog()
	step(s, off, constantAccel(0))

	if s.Symplectic.RecalculateCoordinates {
		t.Error("stale-coordinate flag should be cleared by the next step")
	}
}
