// Package scenario scripts a tunnel through a sequence of phases loaded
// from YAML: change the geometry, move the smoke, then run for a while.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/config"
	"github.com/san-kum/windtunnel/internal/geometry"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
	"github.com/san-kum/windtunnel/internal/tunnel"
)

var ErrInvalidScenario = errors.New("invalid scenario")

type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Phases      []Phase `yaml:"phases"`
}

// Stroke is one brush dab.
type Stroke struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
	Erase  bool    `yaml:"erase"`
}

// Phase edits the tunnel and then runs it. Edits apply in field order:
// reset, clear, strokes, shapes, smoke. A phase with zero ticks only edits.
type Phase struct {
	Name           string                  `yaml:"name"`
	Ticks          int                     `yaml:"ticks"`
	InletSpeed     float64                 `yaml:"inlet_speed"`
	Ramp           int                     `yaml:"ramp"`
	Reset          bool                    `yaml:"reset"`
	ClearObstacles bool                    `yaml:"clear_obstacles"`
	Strokes        []Stroke                `yaml:"strokes"`
	Shapes         []config.ObstacleConfig `yaml:"shapes"`
	ClearSources   bool                    `yaml:"clear_sources"`
	Sources        []smoke.Source          `yaml:"sources"`
	Smoke          *bool                   `yaml:"smoke"`
}

type PhaseResult struct {
	Name       string
	TicksRun   int
	Drag       float64
	Lift       float64
	MeanDrag   float64
	StdDrag    float64
	Diverged   bool
	Generation uint64
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if len(sc.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidScenario)
	}
	for i, p := range sc.Phases {
		if p.Ticks < 0 || p.Ramp < 0 {
			return fmt.Errorf("%w: phase %d: ticks %d ramp %d", ErrInvalidScenario, i+1, p.Ticks, p.Ramp)
		}
		for _, sh := range p.Shapes {
			if _, err := geometry.Build(sh.Shape, sh.Params); err != nil {
				return fmt.Errorf("%w: phase %d: %v", ErrInvalidScenario, i+1, err)
			}
		}
	}
	return nil
}

// Run plays every phase against t in order. It stops at the first phase
// that diverges, returning the results so far including that phase.
func Run(ctx context.Context, sc *Scenario, t *tunnel.Tunnel, log logrus.FieldLogger) ([]PhaseResult, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	results := make([]PhaseResult, 0, len(sc.Phases))

	for i, p := range sc.Phases {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("phase-%d", i+1)
		}
		plog := log.WithFields(logrus.Fields{"scenario": sc.Name, "phase": name})
		plog.Infof("running phase %d/%d", i+1, len(sc.Phases))

		if err := apply(t, p); err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}

		pr := PhaseResult{Name: name}
		if p.Ticks > 0 {
			res, err := t.Run(ctx, tunnel.RunConfig{Ticks: p.Ticks, InletSpeed: p.InletSpeed, Ramp: p.Ramp})
			if res != nil {
				pr.TicksRun = res.TicksTaken
				pr.Diverged = res.Diverged
				st := aero.Summarize(res.Forces)
				pr.MeanDrag, pr.StdDrag = st.MeanDrag, st.StdDrag
			}
			latest := t.Latest()
			pr.Drag, pr.Lift = latest.Drag, latest.Lift
			pr.Generation = t.Generation()

			if err != nil {
				results = append(results, pr)
				if errors.Is(err, lbm.ErrDiverged) {
					plog.WithError(err).Warn("phase diverged")
				}
				return results, fmt.Errorf("phase %d: %w", i+1, err)
			}
		}
		pr.Generation = t.Generation()
		results = append(results, pr)
	}
	return results, nil
}

func apply(t *tunnel.Tunnel, p Phase) error {
	if p.Reset {
		t.Reset()
	}
	if p.ClearObstacles {
		t.ClearObstacles()
	}
	for _, st := range p.Strokes {
		t.Paint(st.X, st.Y, st.Radius, !st.Erase)
	}
	for _, sh := range p.Shapes {
		shape, err := geometry.Build(sh.Shape, sh.Params)
		if err != nil {
			return err
		}
		t.PaintShape(shape, true)
	}
	if p.ClearSources {
		t.ClearSources()
	}
	for _, src := range p.Sources {
		t.AddSource(src.X, src.Y, src.Intensity)
	}
	if p.Smoke != nil {
		t.SetSmokeActive(*p.Smoke)
	}
	return nil
}
