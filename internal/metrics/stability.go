package metrics

import (
	"github.com/san-kum/windtunnel/internal/lattice"
	"github.com/san-kum/windtunnel/internal/tunnel"
)

// DefaultMach is the compressibility limit for low-Mach LBM.
const DefaultMach = 0.3

// Stability is the fraction of ticks whose peak speed stays below
// mach times the lattice sound speed.
type Stability struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewStability(mach float64) *Stability {
	return &Stability{
		name:  "stability",
		limit: mach * lattice.SoundSpeed,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *tunnel.Frame) {
	s.samples++
	if f.Solver.MaxSpeed() > s.limit {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard is the metric set the CLI attaches to every run.
func Standard(warmup int) []tunnel.Metric {
	return []tunnel.Metric{
		NewMassDrift(),
		NewMeanDrag(warmup),
		NewPeakSpeed(),
		NewStability(DefaultMach),
	}
}
