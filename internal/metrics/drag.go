package metrics

import "github.com/san-kum/windtunnel/internal/tunnel"

// MeanDrag averages the smoothed drag once the wake has had Warmup ticks to
// develop.
type MeanDrag struct {
	name    string
	warmup  int
	seen    int
	sum     float64
	samples int
}

func NewMeanDrag(warmup int) *MeanDrag {
	return &MeanDrag{
		name:   "mean_drag",
		warmup: warmup,
	}
}

func (m *MeanDrag) Name() string {
	return m.name
}

func (m *MeanDrag) Observe(f *tunnel.Frame) {
	m.seen++
	if m.seen <= m.warmup {
		return
	}
	m.sum += f.Force.Drag
	m.samples++
}

func (m *MeanDrag) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDrag) Reset() {
	m.seen = 0
	m.sum = 0
	m.samples = 0
}
