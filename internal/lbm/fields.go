package lbm

import (
	"math"

	"github.com/san-kum/windtunnel/internal/lattice"
)

// TotalMass sums the current populations over all fluid nodes.
func (s *Solver) TotalMass() float64 {
	total := 0.0
	for idx := 0; idx < s.size; idx++ {
		if s.Obstacles[idx] {
			continue
		}
		for i := 0; i < lattice.Q; i++ {
			total += s.f[i][idx]
		}
	}
	return total
}

// MaxSpeed returns the largest |u| over fluid nodes.
func (s *Solver) MaxSpeed() float64 {
	peak := 0.0
	for idx := 0; idx < s.size; idx++ {
		if s.Obstacles[idx] {
			continue
		}
		u2 := s.Ux[idx]*s.Ux[idx] + s.Uy[idx]*s.Uy[idx]
		if u2 > peak {
			peak = u2
		}
	}
	return math.Sqrt(peak)
}

// Speed writes |u| per node into dst, reallocating when dst is too short.
func (s *Solver) Speed(dst []float64) []float64 {
	dst = ensure(dst, s.size)
	for idx := 0; idx < s.size; idx++ {
		if s.Obstacles[idx] {
			dst[idx] = 0
			continue
		}
		dst[idx] = math.Hypot(s.Ux[idx], s.Uy[idx])
	}
	return dst
}

// Vorticity writes the central-difference curl of u into dst. Edge and
// obstacle nodes get zero.
func (s *Solver) Vorticity(dst []float64) []float64 {
	dst = ensure(dst, s.size)
	w, h := s.width, s.height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if x == 0 || y == 0 || x == w-1 || y == h-1 || s.Obstacles[idx] {
				dst[idx] = 0
				continue
			}
			dvdx := s.Uy[idx+1] - s.Uy[idx-1]
			dudy := s.Ux[idx+w] - s.Ux[idx-w]
			dst[idx] = 0.5 * (dvdx - dudy)
		}
	}
	return dst
}

func ensure(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
