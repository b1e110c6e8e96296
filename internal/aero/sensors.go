package aero

import (
	"github.com/san-kum/windtunnel/internal/lattice"
	"github.com/san-kum/windtunnel/internal/lbm"
)

const DefaultCapacity = 200

// Sample is one smoothed force reading in lattice units.
type Sample struct {
	Drag float64 `json:"drag"`
	Lift float64 `json:"lift"`
}

// Sensors estimates the net force on all obstacles of a solver by momentum
// exchange. It only reads the solver.
type Sensors struct {
	solver *lbm.Solver

	drag, lift float64

	history []Sample
	head    int
	count   int
}

// NewSensors binds a probe to s. A non-positive capacity uses DefaultCapacity.
func NewSensors(s *lbm.Solver, capacity int) *Sensors {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sensors{
		solver:  s,
		history: make([]Sample, capacity),
	}
}

// ComputeForces sweeps every fluid-solid link, smooths the raw force and
// appends the smoothed value to the history.
func (a *Sensors) ComputeForces() Sample {
	s := a.solver
	w, h := s.Width(), s.Height()
	obstacles := s.Obstacles

	var pop [lattice.Q][]float64
	for i := 0; i < lattice.Q; i++ {
		pop[i] = s.Population(i)
	}

	fx, fy := 0.0, 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if obstacles[idx] {
				continue
			}
			for i := 1; i < lattice.Q; i++ {
				nx, ny := x+lattice.EX[i], y+lattice.EY[i]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if !obstacles[ny*w+nx] {
					continue
				}
				// bounce-back reverses the population, hence twice its momentum
				fi := pop[i][idx]
				fx += 2 * fi * float64(lattice.EX[i])
				fy += 2 * fi * float64(lattice.EY[i])
			}
		}
	}

	a.drag = a.drag*0.9 + fx*0.1
	a.lift = a.lift*0.9 + fy*0.1

	sample := Sample{Drag: a.drag, Lift: a.lift}
	a.push(sample)
	return sample
}

func (a *Sensors) push(sample Sample) {
	a.history[a.head] = sample
	a.head = (a.head + 1) % len(a.history)
	if a.count < len(a.history) {
		a.count++
	}
}

func (a *Sensors) Drag() float64 { return a.drag }
func (a *Sensors) Lift() float64 { return a.lift }

// Latest returns the current smoothed pair.
func (a *Sensors) Latest() Sample { return Sample{Drag: a.drag, Lift: a.lift} }

func (a *Sensors) Len() int      { return a.count }
func (a *Sensors) Capacity() int { return len(a.history) }

// History returns a copy of the retained samples, oldest first.
func (a *Sensors) History() []Sample {
	out := make([]Sample, a.count)
	start := a.head - a.count
	if start < 0 {
		start += len(a.history)
	}
	for i := 0; i < a.count; i++ {
		out[i] = a.history[(start+i)%len(a.history)]
	}
	return out
}

// Reset clears the smoothing state and the history.
func (a *Sensors) Reset() {
	a.drag, a.lift = 0, 0
	a.head, a.count = 0, 0
}
