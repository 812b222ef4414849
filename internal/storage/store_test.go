package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lokhorst/rebound/internal/sim"
)

func sampleResult() *Result {
	return &Result{
		Times: []float64{0.0, 0.01},
		Frames: [][]sim.Particle{
			{{X: 1, M: 1}, {X: -1, M: 1}},
			{{X: 0.9, VX: -0.1, M: 1}, {X: -0.9, VX: 0.1, M: 1}},
		},
		Metrics: map[string]float64{
			"energy_drift": 1.5e-9,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{Preset: "binary", Seed: 42, Dt: 0.01, Duration: 1.0,
		Integrator: "leapfrog", Gravity: "direct", Bodies: 2, Status: "success"}
	runID, err := st.Save(meta, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Preset != "binary" {
		t.Errorf("expected preset 'binary', got '%s'", loaded.Preset)
	}
	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
	if loaded.Metrics["energy_drift"] != 1.5e-9 {
		t.Errorf("expected drift 1.5e-9, got %g", loaded.Metrics["energy_drift"])
	}

	times, frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(times) != 2 {
		t.Fatalf("expected 2 sample times, got %d", len(times))
	}
	if len(frames[0]) != 2 || len(frames[1]) != 2 {
		t.Errorf("expected 2 particles per frame, got %d and %d", len(frames[0]), len(frames[1]))
	}
	if frames[1][0].X != 0.9 || frames[1][0].VX != -0.1 {
		t.Errorf("frame round trip mismatch: %+v", frames[1][0])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(RunMetadata{Preset: "cluster"}, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Preset: "disc"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "particles.csv")); os.IsNotExist(err) {
		t.Error("particles.csv not created")
	}
}

func TestRecordSnapshotsPhysicalParticlesOnly(t *testing.T) {
	sim.ShowBanner = false
	s, err := sim.New(sim.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.AddParticle(sim.Particle{X: 1, M: 1})
	s.AddParticle(sim.Particle{X: -1, M: 1})
	s.AddShadowParticles(1e-7)
	s.T = 0.5

	var r Result
	r.Record(s)
	if len(r.Frames) != 1 || len(r.Frames[0]) != 2 {
		t.Fatalf("expected one frame of 2 particles, got %v", r.Frames)
	}
	if r.Times[0] != 0.5 {
		t.Errorf("expected sample time 0.5, got %v", r.Times[0])
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	meta := RunMetadata{Preset: "binary", Integrator: "leapfrog", Gravity: "direct", Dt: 0.01, Duration: 1.0}
	if err := ExportJSON(path, meta, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var out ExportData
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Preset != "binary" || out.Samples != 2 {
		t.Errorf("unexpected export: preset %s, samples %d", out.Preset, out.Samples)
	}
	if len(out.Frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(out.Frames))
	}
}
