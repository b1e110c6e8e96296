// Package smoke advects a passive dye field through an lbm velocity field.
//
// The dye has no effect on the flow. Injection, decay and the exaggerated
// back-trace distance are visual choices, so the total amount of dye is not
// conserved.
package smoke

import (
	"math"

	"github.com/san-kum/windtunnel/internal/lbm"
)

const (
	injectRate = 0.1
	spreadRate = 0.05
	// TraceScale multiplies the lattice velocity for the back-trace.
	TraceScale = 3.0
	Decay      = 0.995
)

// Source emits dye at a grid cell every step.
type Source struct {
	X         int     `json:"x" yaml:"x"`
	Y         int     `json:"y" yaml:"y"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

type Solver struct {
	solver *lbm.Solver

	// Density is the concentration per node in [0,1], indexed y*width + x.
	Density []float64
	next    []float64

	sources []Source
	active  bool
}

// New sizes a dye field to s. The field starts empty and active.
func New(s *lbm.Solver) *Solver {
	return &Solver{
		solver:  s,
		Density: make([]float64, s.Size()),
		next:    make([]float64, s.Size()),
		active:  true,
	}
}

func (sm *Solver) AddSource(x, y int, intensity float64) {
	sm.sources = append(sm.sources, Source{X: x, Y: y, Intensity: intensity})
}

func (sm *Solver) ClearSources() { sm.sources = sm.sources[:0] }

// Sources returns a copy of the emitters.
func (sm *Solver) Sources() []Source {
	out := make([]Source, len(sm.sources))
	copy(out, sm.sources)
	return out
}

func (sm *Solver) SetActive(active bool) { sm.active = active }
func (sm *Solver) Active() bool          { return sm.active }

// Clear empties the field.
func (sm *Solver) Clear() {
	for i := range sm.Density {
		sm.Density[i] = 0
	}
}

// Step injects, advects and decays the field once. Call it after the
// solver step it should follow.
func (sm *Solver) Step() {
	if !sm.active {
		return
	}

	s := sm.solver
	w, h := s.Width(), s.Height()

	for _, src := range sm.sources {
		sm.inject(src.X, src.Y, src.Intensity*injectRate)
		sm.inject(src.X+1, src.Y, src.Intensity*spreadRate)
		sm.inject(src.X, src.Y+1, src.Intensity*spreadRate)
	}

	prev, next := sm.Density, sm.next
	maxX, maxY := float64(w-1), float64(h-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if s.Obstacles[idx] {
				next[idx] = 0
				continue
			}
			px := clamp(float64(x)-s.Ux[idx]*TraceScale, 0, maxX)
			py := clamp(float64(y)-s.Uy[idx]*TraceScale, 0, maxY)
			next[idx] = bilinear(prev, w, h, px, py) * Decay
		}
	}

	sm.Density, sm.next = next, prev
}

func (sm *Solver) inject(x, y int, amount float64) {
	s := sm.solver
	if !s.InBounds(x, y) {
		return
	}
	idx := s.Index(x, y)
	sm.Density[idx] = clamp(sm.Density[idx]+amount, 0, 1)
}

// At returns the concentration at (x, y), zero outside the grid.
func (sm *Solver) At(x, y int) float64 {
	if !sm.solver.InBounds(x, y) {
		return 0
	}
	return sm.Density[sm.solver.Index(x, y)]
}

// Total sums the field.
func (sm *Solver) Total() float64 {
	total := 0.0
	for _, v := range sm.Density {
		total += v
	}
	return total
}

func bilinear(field []float64, w, h int, x, y float64) float64 {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	tx, ty := x-float64(x0), y-float64(y0)

	top := field[y0*w+x0]*(1-tx) + field[y0*w+x1]*tx
	bottom := field[y1*w+x0]*(1-tx) + field[y1*w+x1]*tx
	return top*(1-ty) + bottom*ty
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
