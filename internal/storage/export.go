package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/lokhorst/rebound/internal/sim"
)

type ExportData struct {
	Preset     string             `json:"preset"`
	Integrator string             `json:"integrator"`
	Gravity    string             `json:"gravity"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Samples    int                `json:"samples"`
	Times      []float64          `json:"times"`
	Frames     [][]sim.Particle   `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
}

func ExportJSON(path string, meta RunMetadata, result *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportJSON(file, meta, result)
}

func ExportJSONStdout(meta RunMetadata, result *Result) error {
	return exportJSON(os.Stdout, meta, result)
}

func exportJSON(w io.Writer, meta RunMetadata, result *Result) error {
	data := ExportData{
		Preset:     meta.Preset,
		Integrator: meta.Integrator,
		Gravity:    meta.Gravity,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Samples:    len(result.Times),
		Times:      result.Times,
		Frames:     result.Frames,
		Metrics:    result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
