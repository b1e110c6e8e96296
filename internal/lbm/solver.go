package lbm

import (
	"fmt"
	"math"

	"github.com/san-kum/windtunnel/internal/lattice"
)

// Float copies of the direction vectors so the kernel never converts in the
// inner loop.
var cx, cy [lattice.Q]float64

func init() {
	for i := 0; i < lattice.Q; i++ {
		cx[i] = float64(lattice.EX[i])
		cy[i] = float64(lattice.EY[i])
	}
}

// Solver owns a D2Q9 grid. Rho, Ux, Uy and Obstacles are indexed
// y*width + x and may be read between steps.
type Solver struct {
	width, height, size int

	tau, omega float64

	Rho       []float64
	Ux        []float64
	Uy        []float64
	Obstacles []bool

	// f is the current generation, next the one being written by Step.
	f, next [lattice.Q][]float64

	tick     int
	diverged *DivergenceError
}

// New allocates a width x height solver in the quiescent equilibrium state.
func New(width, height int) (*Solver, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}

	size := width * height
	s := &Solver{
		width:     width,
		height:    height,
		size:      size,
		tau:       lattice.DefaultTau,
		omega:     1.0 / lattice.DefaultTau,
		Rho:       make([]float64, size),
		Ux:        make([]float64, size),
		Uy:        make([]float64, size),
		Obstacles: make([]bool, size),
	}
	for i := 0; i < lattice.Q; i++ {
		s.f[i] = make([]float64, size)
		s.next[i] = make([]float64, size)
	}

	s.Init()
	return s, nil
}

// Init resets every node to rest density, zero velocity and no obstacle,
// with both population generations at the matching equilibrium.
func (s *Solver) Init() {
	eq := Equilibrium(lattice.RestDensity, 0, 0)

	for idx := 0; idx < s.size; idx++ {
		s.Rho[idx] = lattice.RestDensity
		s.Ux[idx] = 0
		s.Uy[idx] = 0
		s.Obstacles[idx] = false
	}
	for i := 0; i < lattice.Q; i++ {
		fill(s.f[i], eq[i])
		fill(s.next[i], eq[i])
	}

	s.tick = 0
	s.diverged = nil
}

// Reset is Init.
func (s *Solver) Reset() { s.Init() }

// Equilibrium returns the BGK equilibrium populations for (rho, ux, uy).
func Equilibrium(rho, ux, uy float64) [lattice.Q]float64 {
	var out [lattice.Q]float64
	base := 1.0 - 1.5*(ux*ux+uy*uy)
	for i := 0; i < lattice.Q; i++ {
		eu := cx[i]*ux + cy[i]*uy
		out[i] = lattice.Weights[i] * rho * (base + 3.0*eu + 4.5*eu*eu)
	}
	return out
}

// SetViscosity sets the kinematic viscosity; tau = 3*nu + 0.5.
func (s *Solver) SetViscosity(nu float64) error {
	return s.SetTau(lattice.Tau(nu))
}

// SetTau sets the relaxation time directly.
func (s *Solver) SetTau(tau float64) error {
	omega := 1.0 / tau
	if !(omega > 0 && omega < 2) {
		return fmt.Errorf("%w: tau=%g", ErrParameterBounds, tau)
	}
	s.tau = tau
	s.omega = omega
	return nil
}

func (s *Solver) Tau() float64       { return s.tau }
func (s *Solver) Omega() float64     { return s.omega }
func (s *Solver) Viscosity() float64 { return lattice.Viscosity(s.tau) }

// Step advances one tick with the left column forced to (inletSpeed, 0).
// It returns a *DivergenceError once the populations become non-physical;
// after that every call returns the same error until Init or Reset.
func (s *Solver) Step(inletSpeed float64) error {
	if s.diverged != nil {
		return s.diverged
	}

	w, h := s.width, s.height
	omega := s.omega
	keep := 1.0 - omega
	f, next := &s.f, &s.next
	obstacles := s.Obstacles

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			idx := row + x
			if obstacles[idx] {
				continue
			}

			f0, f1, f2 := f[0][idx], f[1][idx], f[2][idx]
			f3, f4, f5 := f[3][idx], f[4][idx], f[5][idx]
			f6, f7, f8 := f[6][idx], f[7][idx], f[8][idx]

			rho := f0 + f1 + f2 + f3 + f4 + f5 + f6 + f7 + f8
			ux := ((f1 + f5 + f8) - (f3 + f6 + f7)) / rho
			uy := ((f2 + f5 + f6) - (f4 + f7 + f8)) / rho

			if x == 0 {
				ux = inletSpeed
				uy = 0
				rho = 1.0
			}

			s.Rho[idx] = rho
			s.Ux[idx] = ux
			s.Uy[idx] = uy

			base := 1.0 - 1.5*(ux*ux+uy*uy)
			for i := 0; i < lattice.Q; i++ {
				eu := cx[i]*ux + cy[i]*uy
				feq := lattice.Weights[i] * rho * (base + 3.0*eu + 4.5*eu*eu)
				post := f[i][idx]*keep + feq*omega

				nx, ny := x+lattice.EX[i], y+lattice.EY[i]
				switch {
				case ny < 0 || ny >= h:
					next[lattice.Opposite[i]][idx] = post
				case nx < 0 || nx >= w:
					// open inlet/outlet: leaves the domain. The edge slots
					// nothing streams into keep the equilibrium Init wrote
					// into both generations; they are never zeroed.
				default:
					n := ny*w + nx
					if obstacles[n] {
						next[lattice.Opposite[i]][idx] = post
					} else {
						next[i][n] = post
					}
				}
			}
		}
	}

	s.f, s.next = s.next, s.f
	s.tick++

	if d := s.checkStability(); d != nil {
		s.diverged = d
		return d
	}
	return nil
}

// checkStability scans the freshly written generation for non-physical
// fluid nodes.
func (s *Solver) checkStability() *DivergenceError {
	for idx := 0; idx < s.size; idx++ {
		if s.Obstacles[idx] {
			continue
		}
		rho := 0.0
		for i := 0; i < lattice.Q; i++ {
			rho += s.f[i][idx]
		}
		if !(rho > 0) || math.IsInf(rho, 0) || !finite(s.Ux[idx]) || !finite(s.Uy[idx]) {
			return &DivergenceError{Tick: s.tick, X: idx % s.width, Y: idx / s.width, Rho: rho}
		}
	}
	return nil
}

// Diverged reports the divergence recorded by Step, or nil.
func (s *Solver) Diverged() error {
	if s.diverged == nil {
		return nil
	}
	return s.diverged
}

func (s *Solver) Width() int  { return s.width }
func (s *Solver) Height() int { return s.height }
func (s *Solver) Size() int   { return s.size }

// Tick is the number of completed steps since the last Init.
func (s *Solver) Tick() int { return s.tick }

func (s *Solver) Index(x, y int) int { return y*s.width + x }

func (s *Solver) InBounds(x, y int) bool {
	return x >= 0 && x < s.width && y >= 0 && y < s.height
}

// Population returns direction i of the current generation. Entries at
// obstacle nodes are stale and must not be interpreted.
func (s *Solver) Population(i int) []float64 { return s.f[i] }

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
