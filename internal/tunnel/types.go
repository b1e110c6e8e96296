package tunnel

import (
	"time"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
)

// Frame is the read-only view handed to metrics and observers after a tick.
// Sensors and Smoke are nil when the tunnel runs without them.
type Frame struct {
	Tick       int
	Generation uint64
	Inlet      float64
	Force      aero.Sample

	Solver  *lbm.Solver
	Sensors *aero.Sensors
	Smoke   *smoke.Solver
}

type Metric interface {
	Name() string
	Observe(f *Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(f *Frame)
}

type RunConfig struct {
	Ticks      int
	InletSpeed float64
	// Ramp raises the inlet linearly from zero over this many ticks.
	Ramp int
	// LogEvery emits a progress line every n ticks; 0 disables it.
	LogEvery int
}

type Result struct {
	TicksTaken int
	Forces     []aero.Sample
	Metrics    map[string]float64
	Diverged   bool
	Elapsed    time.Duration
}

// Snapshot is a copy of the renderable state at one generation.
type Snapshot struct {
	Generation uint64      `json:"generation"`
	Tick       int         `json:"tick"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Rho        []float64   `json:"rho"`
	Ux         []float64   `json:"ux"`
	Uy         []float64   `json:"uy"`
	Obstacles  []bool      `json:"obstacles"`
	Smoke      []float64   `json:"smoke,omitempty"`
	Force      aero.Sample `json:"force"`
}
