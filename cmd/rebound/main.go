package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/lokhorst/rebound/internal/analysis"
	"github.com/lokhorst/rebound/internal/config"
	"github.com/lokhorst/rebound/internal/diagnostics"
	"github.com/lokhorst/rebound/internal/sim"
	"github.com/lokhorst/rebound/internal/storage"
	"github.com/lokhorst/rebound/internal/tui"
)

var (
	dataDir     string
	dt          float64
	duration    float64
	numBodies   int
	seed        int64
	integrator  string
	gravityName string
	boundary    string
	collision   string
	theta       float64
	softening   float64
	maxDist     float64
	minDist     float64
	megno       bool
	configFile  string
	sampleEvery int
	frameRate   int
	// Distributed worker
	rank     int
	size     int
	listen   string
	peerList []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rebound",
		Short: "gravitational n-body simulation lab",
		Run: func(cmd *cobra.Command, args []string) {
			tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rebound", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "sample", 10, "record every n steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-16s %s\n", name, presetSummary(name))
			}
			return nil
		},
	}

	workerCmd := &cobra.Command{
		Use:   "worker [preset]",
		Short: "run one rank of a distributed simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWorker,
	}
	addRunFlags(workerCmd)
	workerCmd.Flags().IntVar(&rank, "rank", 0, "rank of this worker")
	workerCmd.Flags().IntVar(&size, "size", 1, "total number of ranks")
	workerCmd.Flags().StringVar(&listen, "listen", "127.0.0.1:0", "listen address")
	workerCmd.Flags().StringSliceVar(&peerList, "peer", nil, "peer address as rank=host:port (repeatable)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, analyzeCmd, benchCmd, liveCmd, tuiCmd, presetsCmd, workerCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration")
	cmd.Flags().IntVar(&numBodies, "bodies", 0, "number of bodies")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (leapfrog, offset)")
	cmd.Flags().StringVar(&gravityName, "gravity", "", "gravity (none, direct, tree)")
	cmd.Flags().StringVar(&boundary, "boundary", "", "boundary (none, open, periodic)")
	cmd.Flags().StringVar(&collision, "collision", "", "collision search (none, direct, tree)")
	cmd.Flags().Float64Var(&theta, "theta", 0, "tree opening angle")
	cmd.Flags().Float64Var(&softening, "softening", 0, "gravitational softening")
	cmd.Flags().Float64Var(&maxDist, "max-dist", 0, "stop when a particle escapes past this radius")
	cmd.Flags().Float64Var(&minDist, "min-dist", 0, "stop when a pair comes closer than this")
	cmd.Flags().BoolVar(&megno, "megno", false, "track chaos with shadow particles")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

// buildConfig resolves the run configuration: preset, then config file, then
// explicit flags on top.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	preset := ""
	if len(args) > 0 {
		preset = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		base := config.GetPreset(preset)
		if base == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		copied := *base
		cfg = &copied
	default:
		cfg = config.DefaultConfig()
		preset = "default"
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("bodies") {
		cfg.Init.Bodies = numBodies
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("gravity") {
		cfg.Gravity = gravityName
	}
	if cmd.Flags().Changed("boundary") {
		cfg.Boundary = boundary
	}
	if cmd.Flags().Changed("collision") {
		cfg.Collision = collision
	}
	if cmd.Flags().Changed("theta") {
		cfg.Theta = theta
	}
	if cmd.Flags().Changed("softening") {
		cfg.Softening = softening
	}
	if cmd.Flags().Changed("max-dist") {
		cfg.Halt.MaxDistance = maxDist
	}
	if cmd.Flags().Changed("min-dist") {
		cfg.Halt.MinDistance = minDist
	}
	if cmd.Flags().Changed("megno") {
		cfg.Init.Megno = megno
	}

	return cfg, preset, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, preset, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := cfg.Build()
	if err != nil {
		return err
	}

	result := &storage.Result{}
	drift := diagnostics.NewEnergyDrift()
	var shadowTimes, shadowNorms []float64
	steps := 0
	s.PostTimestep = func(s *sim.Simulation) {
		if sampleEvery > 0 && steps%sampleEvery == 0 {
			result.Record(s)
			drift.Observe(s)
			if s.NMegno > 0 {
				shadowTimes = append(shadowTimes, s.T)
				shadowNorms = append(shadowNorms, analysis.ShadowNorm(s))
			}
		}
		steps++
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("running %s...\n", preset)
	start := time.Now()
	status, err := s.Integrate(ctx, cfg.Duration, cfg.Halt.MaxDistance, cfg.Halt.MinDistance)
	if err != nil && err != context.Canceled {
		return err
	}
	elapsed := time.Since(start)

	px, py, pz := diagnostics.Momentum(s)
	result.Metrics = map[string]float64{
		"energy":       diagnostics.Energy(s),
		"energy_drift": drift.Value(),
		"momentum_x":   px,
		"momentum_y":   py,
		"momentum_z":   pz,
	}
	if len(shadowNorms) > 1 {
		result.Metrics["lyapunov"] = analysis.DivergenceRate(shadowTimes, shadowNorms)
	}

	meta := storage.RunMetadata{
		Preset:     preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Gravity:    cfg.Gravity,
		Bodies:     s.NReal(),
		Status:     status.String(),
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", status)
	fmt.Printf("t: %.6f  particles: %d  steps: %d\n", s.T, s.NReal(), steps-1)
	if status == sim.StatusEscape {
		fmt.Printf("escaped particle: %d\n", s.LastEscaped)
	}
	if status == sim.StatusEncounter {
		fmt.Printf("encounter pair: %d, %d\n", s.LastEncounter[0], s.LastEncounter[1])
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tGRAVITY\tBODIES\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4g\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Gravity,
			run.Bodies,
			run.Status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(frames))

	coords := []struct {
		name string
		get  func(p sim.Particle) float64
	}{
		{"particle 0 x", func(p sim.Particle) float64 { return p.X }},
		{"particle 0 y", func(p sim.Particle) float64 { return p.Y }},
		{"particle 0 speed", func(p sim.Particle) float64 {
			return p.VX*p.VX + p.VY*p.VY + p.VZ*p.VZ
		}},
	}
	for _, c := range coords {
		data := make([]float64, len(frames))
		for i, frame := range frames {
			if len(frame) > 0 {
				data[i] = c.get(frame[0])
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c.name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	result := &storage.Result{Times: times, Frames: frames, Metrics: meta.Metrics}
	return storage.ExportJSONStdout(*meta, result)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("preset: %s\n\n", meta.Preset)

	data := make([]float64, len(frames))
	for i, frame := range frames {
		if len(frame) > 0 {
			data[i] = frame[0].X
		}
	}

	ps := analysis.PowerSpectrum(data)
	plotData := ps[:len(ps)/4]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (particle 0 x)"),
	)
	fmt.Println(graph)
	fmt.Println()

	duration := times[len(times)-1] - times[0]
	freq := analysis.DominantFrequency(ps, len(data), duration)
	fmt.Printf("dominant frequency: %.3f\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f\n", 1.0/freq)
	}

	return nil
}

func benchPreset(cmd *cobra.Command, args []string) error {
	preset := "cluster"
	if len(args) > 0 {
		preset = args[0]
	}
	base := config.GetPreset(preset)
	if base == nil {
		return fmt.Errorf("unknown preset: %s", preset)
	}

	durations := []float64{0.5, 1.0}
	dts := []float64{0.005, 0.01, 0.05}

	fmt.Printf("benchmarking %s\n\n", preset)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, dt := range dts {
			cfg := *base
			cfg.Dt = dt
			cfg.Duration = dur
			cfg.Seed = 42

			s, err := cfg.Build()
			if err != nil {
				return err
			}

			steps := 0
			s.PostTimestep = func(*sim.Simulation) { steps++ }

			start := time.Now()
			if _, err := s.Integrate(context.Background(), dur, 0, 0); err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(steps) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1f\t%.4g\t%d\t%v\t%.0f\n", dur, dt, steps, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, preset, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	s, err := cfg.Build()
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(frameRate)
	renderer.Start()
	defer renderer.Stop()

	s.PostTimestep = func(s *sim.Simulation) { renderer.OnStep(s) }

	ctx, stop := signalContext()
	defer stop()

	status, err := s.Integrate(ctx, cfg.Duration, cfg.Halt.MaxDistance, cfg.Halt.MinDistance)
	if err != nil && err != context.Canceled {
		return err
	}
	fmt.Printf("\n%s finished: %s at t=%.4f\n", preset, status, s.T)
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, preset, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	peers := make(map[int]string)
	for _, entry := range peerList {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid peer %q, want rank=host:port", entry)
		}
		r, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid peer rank in %q: %w", entry, err)
		}
		peers[r] = parts[1]
	}

	s, coord, err := cfg.BuildDistributed(rank, size)
	if err != nil {
		return err
	}

	addr, err := coord.Listen(listen)
	if err != nil {
		return err
	}
	defer coord.Close()
	fmt.Printf("rank %d/%d listening on %s\n", rank, size, addr)

	ctx, stop := signalContext()
	defer stop()

	if err := coord.Connect(ctx, peers); err != nil {
		return err
	}

	fmt.Printf("running %s on rank %d...\n", preset, rank)
	status, err := s.Integrate(ctx, cfg.Duration, cfg.Halt.MaxDistance, cfg.Halt.MinDistance)
	if err != nil && err != context.Canceled {
		return err
	}
	fmt.Printf("rank %d finished: %s at t=%.4f with %d particles\n", rank, status, s.T, s.NReal())
	return nil
}

func presetSummary(name string) string {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return ""
	}
	return fmt.Sprintf("%s gravity, dt=%g, t=%g", orDefault(cfg.Gravity, "direct"), cfg.Dt, cfg.Duration)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
