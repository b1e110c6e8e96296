package metrics

import (
	"math"

	"github.com/san-kum/windtunnel/internal/tunnel"
)

// MassDrift tracks the largest relative change of total mass against the
// first observed tick. Open edges and the inlet exchange mass, so a
// channel drifts a little; a sealed box should stay near zero.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(f *tunnel.Frame) {
	mass := f.Solver.TotalMass()
	if m.samples == 0 {
		m.initial = mass
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(mass-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(f *tunnel.Frame) {
	p.peak = math.Max(p.peak, f.Solver.MaxSpeed())
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }
