package sim

import (
	"errors"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	s, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if s.G != 1 {
		t.Errorf("expected G of 1, got %g", s.G)
	}
	if s.Softening != 0 {
		t.Errorf("expected zero softening, got %g", s.Softening)
	}
	if s.Dt != 0.001 {
		t.Errorf("expected default dt of 0.001, got %g", s.Dt)
	}
	if s.BoxSize >= 0 {
		t.Errorf("expected unbounded box, got %g", s.BoxSize)
	}
	if s.NActive != -1 {
		t.Errorf("expected NActive of -1, got %d", s.NActive)
	}
	if !s.Symplectic.SafeMode || !s.Symplectic.IsSynchronized {
		t.Error("symplectic defaults should be safe and synchronized")
	}
	if s.Adaptive.Epsilon != 1e-9 {
		t.Errorf("expected adaptive epsilon of 1e-9, got %g", s.Adaptive.Epsilon)
	}
	if s.ExactFinishTime {
		t.Error("exact finish time should default to off")
	}
}

func TestNewValidatesRootBoxes(t *testing.T) {
	tests := []struct {
		name       string
		nx, ny, nz int
	}{
		{"zero x", 0, 1, 1},
		{"zero y", 1, 0, 1},
		{"zero z", 1, 1, 0},
		{"negative", -2, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.RootNX, opts.RootNY, opts.RootNZ = tt.nx, tt.ny, tt.nz
			s, err := New(opts)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if s != nil {
				t.Error("expected no partial state on configuration error")
			}
		})
	}
}

func TestBoxGeometry(t *testing.T) {
	opts := DefaultOptions()
	opts.BoxSize = 10
	opts.RootNX, opts.RootNY, opts.RootNZ = 2, 3, 4
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if s.RootN() != 24 {
		t.Errorf("expected 24 root boxes, got %d", s.RootN())
	}
	if s.BoxSizeX() != 20 || s.BoxSizeY() != 30 || s.BoxSizeZ() != 40 {
		t.Errorf("unexpected box extents: %g %g %g", s.BoxSizeX(), s.BoxSizeY(), s.BoxSizeZ())
	}
}

func TestAddParticleKeepsShadowsAtTail(t *testing.T) {
	s, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	s.Particles = []Particle{{M: 1, X: 1}, {M: 2, X: 2}}
	s.AddShadowParticles(1e-8)

	s.AddParticle(Particle{M: 3, X: 3})

	if s.N() != 5 {
		t.Fatalf("expected 5 particles, got %d", s.N())
	}
	if s.NReal() != 3 {
		t.Errorf("expected 3 physical particles, got %d", s.NReal())
	}
	if s.Particles[2].M != 3 {
		t.Errorf("new particle should be inserted before the shadows, got mass %g at index 2", s.Particles[2].M)
	}
	if s.Particles[3].M != 1 || s.Particles[4].M != 2 {
		t.Error("shadow particles should remain the trailing records")
	}
}

func TestRemoveParticlePreservesOrder(t *testing.T) {
	s, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	s.Particles = []Particle{{M: 1}, {M: 2}, {M: 3}}

	s.RemoveParticle(1)

	if s.N() != 2 {
		t.Fatalf("expected 2 particles, got %d", s.N())
	}
	if s.Particles[0].M != 1 || s.Particles[1].M != 3 {
		t.Errorf("unexpected order after removal: %v", s.Particles)
	}
}

func TestAddShadowParticles(t *testing.T) {
	s, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	s.Particles = []Particle{{M: 1, X: 4, VX: 2}, {M: 5, X: -4}}

	s.AddShadowParticles(1e-7)

	if s.NMegno != 2 {
		t.Fatalf("expected NMegno of 2, got %d", s.NMegno)
	}
	for k := 0; k < s.NMegno; k++ {
		p := s.Particles[s.NReal()+k]
		want := 1e-7 * float64(k+1)
		if p.X != want || p.Y != 0 || p.Z != 0 {
			t.Errorf("shadow %d should hold the seed variation %g, got (%g,%g,%g)", k, want, p.X, p.Y, p.Z)
		}
		if p.VX != 0 || p.VY != 0 || p.VZ != 0 {
			t.Errorf("shadow %d velocity variation should start at zero", k)
		}
	}
	if s.Particles[2].M != 1 || s.Particles[3].M != 5 {
		t.Error("shadows should inherit the mass of their physical counterparts")
	}
}
