// Package storage persists simulation runs: a metadata.json per run plus a
// particles.csv holding the sampled trajectories.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lokhorst/rebound/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Gravity    string             `json:"gravity"`
	Bodies     int                `json:"bodies"`
	Status     string             `json:"status"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Result holds the sampled output of a run: one frame of particle states per
// sample time.
type Result struct {
	Times   []float64
	Frames  [][]sim.Particle
	Metrics map[string]float64
}

// Record appends a snapshot of the physical particles at the current time.
func (r *Result) Record(s *sim.Simulation) {
	frame := make([]sim.Particle, s.NReal())
	copy(frame, s.Particles[:s.NReal()])
	r.Times = append(r.Times, s.T)
	r.Frames = append(r.Frames, frame)
}

func (s *Store) Save(meta RunMetadata, result *Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Metrics = result.Metrics

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "particles.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time", "particle", "x", "y", "z", "vx", "vy", "vz", "m", "r"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 17, 64) }
	for i, frame := range result.Frames {
		ts := f(result.Times[i])
		for j, p := range frame {
			row := []string{
				ts, strconv.Itoa(j),
				f(p.X), f(p.Y), f(p.Z),
				f(p.VX), f(p.VY), f(p.VZ),
				f(p.M), f(p.R),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadFrames reads a run's trajectories back into per-time frames.
func (s *Store) LoadFrames(runID string) ([]float64, [][]sim.Particle, error) {
	csvPath := filepath.Join(s.baseDir, runID, "particles.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]sim.Particle{}, nil
	}

	var times []float64
	var frames [][]sim.Particle
	for _, record := range records[1:] {
		if len(record) < 10 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 0, 8)
		ok := true
		for _, field := range record[2:10] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}
		p := sim.Particle{
			X: vals[0], Y: vals[1], Z: vals[2],
			VX: vals[3], VY: vals[4], VZ: vals[5],
			M: vals[6], R: vals[7],
		}
		if len(times) == 0 || t != times[len(times)-1] {
			times = append(times, t)
			frames = append(frames, nil)
		}
		frames[len(frames)-1] = append(frames[len(frames)-1], p)
	}

	return times, frames, nil
}
