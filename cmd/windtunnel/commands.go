package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/config"
	"github.com/san-kum/windtunnel/internal/export"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/metrics"
	"github.com/san-kum/windtunnel/internal/scenario"
	"github.com/san-kum/windtunnel/internal/store"
	"github.com/san-kum/windtunnel/internal/tunnel"
	"github.com/san-kum/windtunnel/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	t, err := cfg.Build(log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(warmup) {
		t.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%dx%d, tau %.3f, inlet %.3f) for %d ticks...\n",
		cfg.Name, cfg.Width, cfg.Height, cfg.Tau, cfg.InletSpeed, cfg.Ticks)
	result, runErr := t.Run(ctx, tunnel.RunConfig{
		Ticks:      cfg.Ticks,
		InletSpeed: cfg.InletSpeed,
		Ramp:       ramp,
		LogEvery:   logEvery,
	})
	if result == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, lbm.ErrDiverged) {
		log.WithError(runErr).Warn("run interrupted")
	}

	runID := "-"
	if !noSave {
		st, err := store.Open(dataDir)
		if err != nil {
			return err
		}
		defer st.Close()

		meta := &store.RunMetadata{
			Preset:     cfg.Name,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Tau:        cfg.Tau,
			InletSpeed: cfg.InletSpeed,
			RefLength:  cfg.ReferenceLength,
			Ticks:      result.TicksTaken,
			Diverged:   result.Diverged,
			Metrics:    result.Metrics,
		}
		if runID, err = st.Save(meta, result.Forces); err != nil {
			return err
		}
		log.WithField("run_id", runID).Debug("run saved")
	}

	fmt.Printf("completed %d ticks in %v\n", result.TicksTaken, result.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	if result.Diverged {
		fmt.Printf("diverged: %v\n", runErr)
	}
	if n := len(result.Forces); n > 0 {
		last := result.Forces[n-1]
		cd, cl := aero.Coefficients(last, cfg.InletSpeed, cfg.ReferenceLength)
		fmt.Printf("drag: %.6f  lift: %.6f  (Cd %.3f, Cl %.3f)\n", last.Drag, last.Lift, cd, cl)
	}
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, m := range metrics.Standard(warmup) {
		fmt.Fprintf(w, "  %s\t%.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if result.Diverged {
		return runErr
	}
	return nil
}

func openStore() (*store.Store, error) {
	return store.Open(dataDir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tGRID\tTAU\tINLET\tTICKS\tMEAN DRAG\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.3f\t%.3f\t%d\t%.5f\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Tau,
			run.InletSpeed,
			run.Ticks,
			run.Metrics["mean_drag"],
			status,
		)
	}
	return w.Flush()
}

func loadRun(id string) (*store.RunMetadata, []aero.Sample, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	if outPath != "" {
		p, err := export.ForcePlot(samples, fmt.Sprintf("%s (%s)", meta.Preset, meta.ID))
		if err != nil {
			return err
		}
		if err := export.Save(p, outPath, 10*vg.Inch, 5*vg.Inch); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"drag vs tick", aero.Drags(samples)},
		{"lift vs tick", aero.Lifts(samples)},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(format) {
	case "csv":
		return store.ExportCSV(w, samples)
	case "json":
		return store.ExportJSON(w, meta, samples)
	}
	return fmt.Errorf("unknown format: %s (csv or json)", format)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(samples) <= warmup {
		return fmt.Errorf("run has %d samples, need more than the %d warm-up", len(samples), warmup)
	}
	settled := samples[warmup:]

	st := aero.Summarize(settled)
	fmt.Printf("analysis: %s (%s)\n\n", meta.ID, meta.Preset)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tMEAN\tSTD\tCOEFF")
	cd, cl := aero.Coefficients(aero.Sample{Drag: st.MeanDrag, Lift: st.MeanLift}, meta.InletSpeed, meta.RefLength)
	fmt.Fprintf(w, "drag\t%.6f\t%.6f\t%.4f\n", st.MeanDrag, st.StdDrag, cd)
	fmt.Fprintf(w, "lift\t%.6f\t%.6f\t%.4f\n", st.MeanLift, st.StdLift, cl)
	if err := w.Flush(); err != nil {
		return err
	}

	spec := aero.Shedding(aero.Lifts(settled))
	fmt.Println()
	if spec.Frequency == 0 {
		fmt.Println("no shedding detected")
		return nil
	}
	fmt.Printf("shedding frequency: %.5f cycles/tick (period %.0f ticks)\n", spec.Frequency, 1/spec.Frequency)
	if meta.RefLength > 0 {
		fmt.Printf("strouhal number: %.3f\n", aero.Strouhal(spec.Frequency, meta.RefLength, meta.InletSpeed))
	}
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mode, err := viz.ParseMode(fieldMode)
	if err != nil {
		return err
	}
	t, err := cfg.Build(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := t.Run(ctx, tunnel.RunConfig{Ticks: cfg.Ticks, InletSpeed: cfg.InletSpeed, LogEvery: logEvery}); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(outPath), ".json") {
		if err := writeSnapshotJSON(t, outPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s (fields after %d ticks)\n", outPath, cfg.Ticks)
		return nil
	}

	var writeErr error
	t.View(func(f *tunnel.Frame) {
		if mode == viz.ModeSmoke && strings.EqualFold(filepath.Ext(outPath), ".svg") {
			writeErr = writeBrailleSVG(f, outPath)
			return
		}
		p, err := export.FieldPlot(f.Solver, f.Smoke, mode)
		if err != nil {
			writeErr = err
			return
		}
		aspect := float64(cfg.Height) / float64(cfg.Width)
		writeErr = export.Save(p, outPath, 10*vg.Inch, vg.Length(10*aspect+1)*vg.Inch)
	})
	if writeErr != nil {
		return writeErr
	}
	fmt.Printf("wrote %s (%s after %d ticks)\n", outPath, mode, cfg.Ticks)
	return nil
}

// writeSnapshotJSON dumps the raw fields for external plotting.
func writeSnapshotJSON(t *tunnel.Tunnel, path string) error {
	var snap tunnel.Snapshot
	t.Snapshot(&snap)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	return enc.Encode(&snap)
}

func writeBrailleSVG(f *tunnel.Frame, path string) error {
	cols := f.Solver.Width() / 2
	rows := f.Solver.Height() / 4
	canvas := viz.Braille(f.Solver, f.Smoke, max(1, cols), max(1, rows), 0.05)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return export.CanvasSVG(out, canvas, 3, "#00ff88")
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	name := sc.Preset
	if usePreset != "" {
		name = usePreset
	}
	if name == "" {
		name = "empty"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	t, err := cfg.Build(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	results, runErr := scenario.Run(ctx, sc, t, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tTICKS\tDRAG\tLIFT\tMEAN DRAG\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%d\t%.6f\t%.6f\t%.6f\t%s\n", r.Name, r.TicksRun, r.Drag, r.Lift, r.MeanDrag, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	build := func() (*tunnel.Tunnel, error) {
		t, err := cfg.Build(log.WithField("sweep", true))
		if err != nil {
			return nil, err
		}
		t.AddMetric(metrics.NewMeanDrag(warmup))
		return t, nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	fmt.Printf("sweeping %s over %d inlet speeds...\n", cfg.Name, len(inlets))
	points, err := tunnel.Sweep(ctx, build, inlets, tunnel.RunConfig{Ticks: cfg.Ticks}, workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INLET\tMEAN DRAG\tCD\tTIME\tSTATUS")
	for _, p := range points {
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		if p.Result == nil {
			fmt.Fprintf(w, "%.3f\t-\t-\t-\t%s\n", p.Inlet, status)
			continue
		}
		mean := p.Result.Metrics["mean_drag"]
		cd, _ := aero.Coefficients(aero.Sample{Drag: mean}, p.Inlet, cfg.ReferenceLength)
		fmt.Fprintf(w, "%.3f\t%.6f\t%.4f\t%v\t%s\n", p.Inlet, mean, cd, p.Result.Elapsed.Round(time.Millisecond), status)
	}
	return w.Flush()
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name := "cylinder"
	if len(args) > 0 {
		name = args[0]
	}
	base := config.GetPreset(name)
	if base == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tTICKS\tTIME\tMLUPS")

	for _, scale := range []float64{0.5, 1, 2} {
		cfg := base.Clone()
		cfg.Width = int(float64(base.Width) * scale)
		cfg.Height = int(float64(base.Height) * scale)
		for i, o := range cfg.Obstacles {
			for k, v := range o.Params {
				cfg.Obstacles[i].Params[k] = scaleParam(k, v, scale)
			}
		}
		cfg.Smoke.Enabled = false

		t, err := cfg.Build(quiet)
		if err != nil {
			return err
		}
		start := time.Now()
		for i := 0; i < ticks; i++ {
			if err := t.Tick(cfg.InletSpeed); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)
		mlups := float64(cfg.Width*cfg.Height) * float64(ticks) / elapsed.Seconds() / 1e6
		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.1f\n", cfg.Width, cfg.Height, ticks, elapsed.Round(time.Millisecond), mlups)
	}
	return w.Flush()
}

// scaleParam scales lengths and positions; shape ratios and angles stay.
func scaleParam(key string, v, scale float64) float64 {
	switch key {
	case "angle", "camber", "camber_pos", "thickness":
		return v
	}
	return v * scale
}
