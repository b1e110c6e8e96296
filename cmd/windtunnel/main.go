package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/windtunnel/internal/config"
	"github.com/san-kum/windtunnel/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	ticks      int
	inlet      float64
	tau        float64
	ramp       int
	logEvery   int
	warmup     int
	noSave     bool

	fieldMode string
	outPath   string
	format    string
	inlets    []float64
	workers   int
	usePreset string
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "windtunnel",
		Short: "2D lattice Boltzmann wind tunnel",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, []string{"cylinder"})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".windtunnel", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a preset headless and record the forces",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addTunnelFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run")
	runCmd.Flags().IntVar(&ramp, "ramp", 0, "ramp the inlet up over this many ticks")
	runCmd.Flags().IntVar(&logEvery, "log-every", 500, "log progress every n ticks (0 disables)")
	runCmd.Flags().IntVar(&warmup, "warmup", 500, "ticks excluded from the mean drag")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive tunnel in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addTunnelFlags(liveCmd)
	liveCmd.Flags().StringVar(&fieldMode, "mode", "speed", "field mode (speed, vorticity, density, smoke)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot drag and lift of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outPath, "out", "", "write an image (png, svg, pdf) instead of a terminal graph")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as csv or json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "csv or json")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "force statistics and vortex shedding frequency",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&warmup, "warmup", 500, "samples skipped before analysis")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [preset]",
		Short: "run a preset and render a field to an image",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	addTunnelFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&ticks, "ticks", 2000, "ticks before the snapshot")
	snapshotCmd.Flags().StringVar(&fieldMode, "mode", "vorticity", "field mode (speed, vorticity, density, smoke)")
	snapshotCmd.Flags().StringVar(&outPath, "out", "snapshot.png", "output image; .svg with --mode smoke writes braille dots, .json dumps the raw fields")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&usePreset, "preset", "", "base preset (overrides the scenario's)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one tunnel per inlet speed in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addTunnelFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks per inlet speed")
	sweepCmd.Flags().Float64SliceVar(&inlets, "inlets", []float64{0.02, 0.04, 0.06, 0.08}, "inlet speeds")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel tunnels (0 = one per inlet)")
	sweepCmd.Flags().IntVar(&warmup, "warmup", 500, "ticks excluded from the mean drag")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure solver throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().IntVar(&ticks, "ticks", 500, "ticks per measurement")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd,
		snapshotCmd, presetsCmd, scenarioCmd, sweepCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTunnelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&inlet, "inlet", config.DefaultInletSpeed, "inlet speed (lattice units)")
	cmd.Flags().Float64Var(&tau, "tau", 0.6, "relaxation time")
}

// loadConfig resolves the preset or config file, then lets explicitly set
// flags override it.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.GetPreset("cylinder")
	}

	flags := cmd.Flags()
	if flags.Changed("inlet") {
		cfg.InletSpeed = inlet
	}
	if flags.Changed("tau") {
		cfg.Tau = tau
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		log.SetLevel(cfg.Level())
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mode, err := viz.ParseMode(fieldMode)
	if err != nil {
		mode = viz.ModeSpeed
	}
	// The terminal belongs to the TUI.
	log.SetOutput(io.Discard)

	t, err := cfg.Build(log)
	if err != nil {
		return err
	}
	return viz.RunLive(t, viz.LiveOptions{
		Name:            cfg.Name,
		Inlet:           cfg.InletSpeed,
		ReferenceLength: cfg.ReferenceLength,
		Mode:            mode,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", args[0])
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tTAU\tINLET\tOBSTACLES\tSMOKE")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		shapes := make([]string, len(p.Obstacles))
		for i, o := range p.Obstacles {
			shapes[i] = o.Shape
		}
		obstacles := strings.Join(shapes, ",")
		if obstacles == "" {
			obstacles = "-"
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%.2f\t%.3f\t%s\t%d sources\n",
			name, p.Width, p.Height, p.Tau, p.InletSpeed, obstacles, len(p.Smoke.Sources))
	}
	return w.Flush()
}
