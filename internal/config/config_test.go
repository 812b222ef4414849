package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lokhorst/rebound/internal/sim"
)

func init() { sim.ShowBanner = false }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "leapfrog" {
		t.Errorf("expected integrator leapfrog, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Integrator = "offset"
	cfg.Box.Size = 5
	cfg.Box.RootX = 2
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Integrator != "offset" {
		t.Errorf("expected integrator offset, got %s", loaded.Integrator)
	}
	if loaded.Box.Size != 5 || loaded.Box.RootX != 2 {
		t.Errorf("expected box 5 x 2 roots, got %v x %d", loaded.Box.Size, loaded.Box.RootX)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("integrator: offset\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Integrator != "offset" {
		t.Errorf("expected integrator offset, got %s", cfg.Integrator)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("expected default dt %v, got %v", DefaultDt, cfg.Dt)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("binary")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Init.Setup != "binary" {
		t.Errorf("expected binary setup, got %s", cfg.Init.Setup)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Error("expected presets")
	}
}

func TestBuildWiresStrategies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Init.Bodies = 10

	s, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.N() != 10 {
		t.Errorf("expected 10 particles, got %d", s.N())
	}
	if err := s.Step(); err != nil {
		t.Errorf("step failed: %v", err)
	}
}

func TestBuildTreePreset(t *testing.T) {
	cfg := GetPreset("cluster")
	s, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.N() != 500 {
		t.Errorf("expected 500 particles, got %d", s.N())
	}
	if err := s.Step(); err != nil {
		t.Errorf("step failed: %v", err)
	}
}

func TestBuildMegnoAddsShadows(t *testing.T) {
	cfg := GetPreset("chaos")
	s, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.NMegno != 3 {
		t.Errorf("expected 3 shadow particles, got %d", s.NMegno)
	}
	if s.N() != 6 {
		t.Errorf("expected 6 total records, got %d", s.N())
	}
}

func TestBuildRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"integrator", func(c *Config) { c.Integrator = "rk4" }},
		{"gravity", func(c *Config) { c.Gravity = "fmm" }},
		{"boundary", func(c *Config) { c.Boundary = "mirror" }},
		{"collision", func(c *Config) { c.Collision = "sweep" }},
		{"resolver", func(c *Config) { c.Resolver = "shatter" }},
		{"setup", func(c *Config) { c.Init.Setup = "galaxy" }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if _, err := cfg.Build(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestBuildInvalidRootBoxes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Box.RootX = 0
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for zero root boxes")
	}
}
