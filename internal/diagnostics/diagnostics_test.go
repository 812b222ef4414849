package diagnostics

import (
	"math"
	"testing"

	"github.com/lokhorst/rebound/internal/sim"
)

func init() { sim.ShowBanner = false }

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	s, err := sim.New(sim.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestEnergyTwoBody(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{X: -1, M: 1})
	s.AddParticle(sim.Particle{X: 1, VY: 0.5, M: 1})

	ke := 0.5 * 0.5 * 0.5
	pe := -1.0 / 2.0
	expected := ke + pe
	if got := Energy(s); math.Abs(got-expected) > 1e-12 {
		t.Errorf("expected energy %f, got %f", expected, got)
	}
}

func TestEnergySofteningRaisesPotential(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{X: -1, M: 1})
	s.AddParticle(sim.Particle{X: 1, M: 1})
	hard := Energy(s)
	s.Softening = 0.5
	soft := Energy(s)
	if soft <= hard {
		t.Errorf("expected softened energy above %f, got %f", hard, soft)
	}
}

func TestEnergyExcludesShadows(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{X: -1, M: 1})
	s.AddParticle(sim.Particle{X: 1, M: 1})
	before := Energy(s)
	s.AddShadowParticles(1e-7)
	if got := Energy(s); got != before {
		t.Errorf("expected energy %f after adding shadows, got %f", before, got)
	}
}

func TestMomentum(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{VX: 1, M: 2})
	s.AddParticle(sim.Particle{X: 1, VX: -1, VY: 3, M: 1})

	px, py, pz := Momentum(s)
	if math.Abs(px-1) > 1e-12 || math.Abs(py-3) > 1e-12 || pz != 0 {
		t.Errorf("expected momentum (1, 3, 0), got (%f, %f, %f)", px, py, pz)
	}
}

func TestAngularMomentumCircular(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{X: 2, VY: 1, M: 3})

	lx, ly, lz := AngularMomentum(s)
	if lx != 0 || ly != 0 || math.Abs(lz-6) > 1e-12 {
		t.Errorf("expected angular momentum (0, 0, 6), got (%f, %f, %f)", lx, ly, lz)
	}
}

func TestEnergyDrift(t *testing.T) {
	s := newSim(t)
	s.AddParticle(sim.Particle{X: -1, M: 1})
	s.AddParticle(sim.Particle{X: 1, M: 1})

	d := NewEnergyDrift()
	d.Observe(s)
	if d.Value() != 0 {
		t.Errorf("expected zero drift initially, got %f", d.Value())
	}

	s.Particles[0].VX = 1
	d.Observe(s)
	if d.Value() <= 0 {
		t.Error("expected positive drift after perturbation")
	}
	peak := d.Value()

	s.Particles[0].VX = 0
	d.Observe(s)
	if d.Value() != peak {
		t.Errorf("expected drift to hold its maximum %f, got %f", peak, d.Value())
	}

	d.Reset()
	if d.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}
