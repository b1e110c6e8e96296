package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/geometry"
	"github.com/san-kum/windtunnel/internal/lattice"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
	"github.com/san-kum/windtunnel/internal/tunnel"
)

const (
	DefaultInletSpeed      = 0.08
	DefaultTicks           = 2000
	DefaultReferenceLength = 10.0
)

// MaxInletMach bounds the inlet speed relative to the lattice sound speed.
const MaxInletMach = 0.5

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Name            string           `yaml:"name"`
	Width           int              `yaml:"width"`
	Height          int              `yaml:"height"`
	Tau             float64          `yaml:"tau"`
	InletSpeed      float64          `yaml:"inlet_speed"`
	Substeps        int              `yaml:"substeps"`
	Ticks           int              `yaml:"ticks"`
	History         int              `yaml:"history"`
	ReferenceLength float64          `yaml:"reference_length"`
	Obstacles       []ObstacleConfig `yaml:"obstacles,omitempty"`
	Smoke           SmokeConfig      `yaml:"smoke"`
	LogLevel        string           `yaml:"log_level,omitempty"`
}

type ObstacleConfig struct {
	Shape  string          `yaml:"shape"`
	Params geometry.Params `yaml:"params"`
}

type SmokeConfig struct {
	Enabled bool           `yaml:"enabled"`
	Sources []smoke.Source `yaml:"sources,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:            "custom",
		Width:           lattice.DefaultWidth,
		Height:          lattice.DefaultHeight,
		Tau:             lattice.DefaultTau,
		InletSpeed:      DefaultInletSpeed,
		Substeps:        lattice.DefaultSubsteps,
		Ticks:           DefaultTicks,
		History:         aero.DefaultCapacity,
		ReferenceLength: DefaultReferenceLength,
		LogLevel:        "info",
	}
}

// Load reads a YAML file over DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return invalid("grid %dx%d", c.Width, c.Height)
	}
	if !(c.Tau > 0.5) || math.IsInf(c.Tau, 0) {
		return invalid("tau %g must exceed 0.5", c.Tau)
	}
	if limit := MaxInletMach * lattice.SoundSpeed; !(math.Abs(c.InletSpeed) < limit) {
		return invalid("inlet speed %g exceeds %.3f", c.InletSpeed, limit)
	}
	if c.Substeps < 1 {
		return invalid("substeps %d", c.Substeps)
	}
	if c.Ticks < 0 || c.History < 0 {
		return invalid("ticks %d history %d", c.Ticks, c.History)
	}
	for i, o := range c.Obstacles {
		if _, err := geometry.Build(o.Shape, o.Params); err != nil {
			return invalid("obstacle %d: %v", i, err)
		}
	}
	for i, src := range c.Smoke.Sources {
		if src.X < 0 || src.X >= c.Width || src.Y < 0 || src.Y >= c.Height {
			return invalid("smoke source %d at (%d,%d) outside grid", i, src.X, src.Y)
		}
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return invalid("%v", err)
		}
	}
	return nil
}

// Level is the configured log level, info when unset.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Build validates c and assembles a ready tunnel: solver, sensors, smoke
// when enabled, and the configured obstacles painted in.
func (c *Config) Build(log logrus.FieldLogger) (*tunnel.Tunnel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s, err := lbm.New(c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	if err := s.SetTau(c.Tau); err != nil {
		return nil, err
	}

	history := c.History
	if history == 0 {
		history = aero.DefaultCapacity
	}
	sensors := aero.NewSensors(s, history)

	var sm *smoke.Solver
	if c.Smoke.Enabled {
		sm = smoke.New(s)
		for _, src := range c.Smoke.Sources {
			sm.AddSource(src.X, src.Y, src.Intensity)
		}
	}

	t := tunnel.New(s, sensors, sm)
	t.SetSubsteps(c.Substeps)
	t.SetLogger(log.WithField("preset", c.Name))

	for _, o := range c.Obstacles {
		sh, err := geometry.Build(o.Shape, o.Params)
		if err != nil {
			return nil, err
		}
		n := t.PaintShape(sh, true)
		log.WithFields(logrus.Fields{"shape": o.Shape, "nodes": n}).Debug("obstacle painted")
	}
	return t, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Obstacles = make([]ObstacleConfig, len(c.Obstacles))
	for i, o := range c.Obstacles {
		params := make(geometry.Params, len(o.Params))
		for k, v := range o.Params {
			params[k] = v
		}
		out.Obstacles[i] = ObstacleConfig{Shape: o.Shape, Params: params}
	}
	out.Smoke.Sources = append([]smoke.Source(nil), c.Smoke.Sources...)
	return &out
}
