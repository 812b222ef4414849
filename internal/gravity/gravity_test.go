package gravity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/tree"
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

func TestDirectTwoBody(t *testing.T) {
	s := newSim(t)
	s.Particles = []sim.Particle{
		{M: 1, X: -1},
		{M: 1, X: 1},
	}

	if err := NewDirect().Accelerate(s); err != nil {
		t.Fatalf("accelerate failed: %v", err)
	}

	// Separation 2, G=1: |a| = 1/4, directed at the partner.
	if math.Abs(s.Particles[0].AX-0.25) > 1e-15 {
		t.Errorf("expected ax of 0.25, got %g", s.Particles[0].AX)
	}
	if math.Abs(s.Particles[1].AX+0.25) > 1e-15 {
		t.Errorf("expected ax of -0.25, got %g", s.Particles[1].AX)
	}
	if s.Particles[0].AY != 0 || s.Particles[0].AZ != 0 {
		t.Error("expected acceleration along x only")
	}
}

func TestDirectRespectsNActive(t *testing.T) {
	s := newSim(t)
	s.NActive = 1
	s.Particles = []sim.Particle{
		{M: 1},
		{M: 1, X: 1},
	}

	if err := NewDirect().Accelerate(s); err != nil {
		t.Fatalf("accelerate failed: %v", err)
	}

	if s.Particles[0].AX != 0 {
		t.Errorf("the only massive source should feel nothing, got %g", s.Particles[0].AX)
	}
	if s.Particles[1].AX >= 0 {
		t.Errorf("test particle should be pulled toward the source, got %g", s.Particles[1].AX)
	}
}

func TestDirectSoftening(t *testing.T) {
	hard := newSim(t)
	soft := newSim(t)
	soft.Softening = 0.5
	for _, s := range []*sim.Simulation{hard, soft} {
		s.Particles = []sim.Particle{{M: 1}, {M: 1, X: 1}}
	}

	if err := NewDirect().Accelerate(hard); err != nil {
		t.Fatalf("accelerate failed: %v", err)
	}
	if err := NewDirect().Accelerate(soft); err != nil {
		t.Fatalf("accelerate failed: %v", err)
	}

	if soft.Particles[0].AX >= hard.Particles[0].AX {
		t.Errorf("softening should weaken the force: %g vs %g", soft.Particles[0].AX, hard.Particles[0].AX)
	}
}

func TestDirectCoincidentParticlesStayFinite(t *testing.T) {
	s := newSim(t)
	s.Particles = []sim.Particle{{M: 1, X: 1}, {M: 1, X: 1}}

	if err := NewDirect().Accelerate(s); err != nil {
		t.Fatalf("accelerate failed: %v", err)
	}
	for i, p := range s.Particles {
		if math.IsNaN(p.AX) || math.IsInf(p.AX, 0) {
			t.Errorf("particle %d acceleration is not finite: %g", i, p.AX)
		}
	}
}

func TestBarnesHutMatchesDirectForSmallTheta(t *testing.T) {
	a, b := newSim(t), newSim(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 30; i++ {
		p := sim.Particle{
			M: rng.Float64() + 0.1,
			X: rng.Float64()*10 - 5,
			Y: rng.Float64()*10 - 5,
			Z: rng.Float64()*10 - 5,
		}
		a.Particles = append(a.Particles, p)
		b.Particles = append(b.Particles, p)
	}

	if err := NewDirect().Accelerate(a); err != nil {
		t.Fatalf("direct accelerate failed: %v", err)
	}

	tr := tree.New()
	if err := tr.Update(b); err != nil {
		t.Fatalf("tree update failed: %v", err)
	}
	tr.UpdateGravityData(b)
	// Theta near zero opens every cell, so the walk degenerates to the
	// exact pairwise sum.
	if err := NewBarnesHut(tr, 1e-6).Accelerate(b); err != nil {
		t.Fatalf("barnes-hut accelerate failed: %v", err)
	}

	for i := range a.Particles {
		if math.Abs(a.Particles[i].AX-b.Particles[i].AX) > 1e-9 {
			t.Errorf("particle %d: ax %g vs %g", i, a.Particles[i].AX, b.Particles[i].AX)
		}
		if math.Abs(a.Particles[i].AY-b.Particles[i].AY) > 1e-9 {
			t.Errorf("particle %d: ay %g vs %g", i, a.Particles[i].AY, b.Particles[i].AY)
		}
	}
}

func TestBarnesHutApproximatesDirect(t *testing.T) {
	a, b := newSim(t), newSim(t)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		p := sim.Particle{
			M: rng.Float64(),
			X: rng.Float64()*20 - 10,
			Y: rng.Float64()*20 - 10,
			Z: rng.Float64()*20 - 10,
		}
		a.Particles = append(a.Particles, p)
		b.Particles = append(b.Particles, p)
	}

	if err := NewDirect().Accelerate(a); err != nil {
		t.Fatalf("direct accelerate failed: %v", err)
	}
	tr := tree.New()
	if err := tr.Update(b); err != nil {
		t.Fatalf("tree update failed: %v", err)
	}
	tr.UpdateGravityData(b)
	if err := NewBarnesHut(tr, 0.5).Accelerate(b); err != nil {
		t.Fatalf("barnes-hut accelerate failed: %v", err)
	}

	for i := range a.Particles {
		mag := math.Sqrt(a.Particles[i].AX*a.Particles[i].AX +
			a.Particles[i].AY*a.Particles[i].AY +
			a.Particles[i].AZ*a.Particles[i].AZ)
		diff := math.Sqrt(
			(a.Particles[i].AX-b.Particles[i].AX)*(a.Particles[i].AX-b.Particles[i].AX) +
				(a.Particles[i].AY-b.Particles[i].AY)*(a.Particles[i].AY-b.Particles[i].AY) +
				(a.Particles[i].AZ-b.Particles[i].AZ)*(a.Particles[i].AZ-b.Particles[i].AZ))
		if diff > 0.1*mag+1e-9 {
			t.Errorf("particle %d: approximation error %g exceeds 10%% of %g", i, diff, mag)
		}
	}
}

func TestVariationalLinearInVariation(t *testing.T) {
	small, big := newSim(t), newSim(t)
	for _, s := range []*sim.Simulation{small, big} {
		s.Particles = []sim.Particle{
			{M: 1, X: -1},
			{M: 1, X: 1},
		}
	}
	small.AddShadowParticles(1e-8)
	big.AddShadowParticles(2e-8)

	if err := NewDirect().AccelerateVariational(small); err != nil {
		t.Fatalf("variational failed: %v", err)
	}
	if err := NewDirect().AccelerateVariational(big); err != nil {
		t.Fatalf("variational failed: %v", err)
	}

	for k := 0; k < small.NMegno; k++ {
		i := small.NReal() + k
		if small.Particles[i].AX == 0 && small.Particles[i].AY == 0 && small.Particles[i].AZ == 0 {
			continue
		}
		ratio := big.Particles[i].AX / small.Particles[i].AX
		if math.Abs(ratio-2) > 1e-9 {
			t.Errorf("shadow %d: variational acceleration should scale linearly, ratio %g", k, ratio)
		}
	}
}

func TestVariationalNonzeroForSeparatedPair(t *testing.T) {
	s := newSim(t)
	s.Particles = []sim.Particle{
		{M: 1, X: -1},
		{M: 1, X: 1},
	}
	s.AddShadowParticles(1e-8)

	if err := NewDirect().AccelerateVariational(s); err != nil {
		t.Fatalf("variational failed: %v", err)
	}

	nonzero := false
	for i := s.NReal(); i < s.N(); i++ {
		if s.Particles[i].AX != 0 || s.Particles[i].AY != 0 || s.Particles[i].AZ != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Error("expected nonzero variational accelerations for an interacting pair")
	}
}
