package lbm

import (
	"math"

	"github.com/san-kum/windtunnel/internal/lattice"
)

// SetObstacle marks (solid) or clears every node within radius of (x, y).
// The brush is clipped to the grid; centres and radii past the edges are
// tolerated.
func (s *Solver) SetObstacle(x, y, radius float64, solid bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(radius) || radius < 0 {
		return
	}
	x0, x1, ok := clipSpan(x-radius, x+radius, s.width)
	if !ok {
		return
	}
	y0, y1, ok := clipSpan(y-radius, y+radius, s.height)
	if !ok {
		return
	}

	r2 := radius * radius
	for j := y0; j <= y1; j++ {
		dy := float64(j) - y
		for i := x0; i <= x1; i++ {
			dx := float64(i) - x
			if dx*dx+dy*dy <= r2 {
				s.setCell(j*s.width+i, solid)
			}
		}
	}
}

// SetSolid marks or clears a single node. Out-of-range nodes are ignored.
func (s *Solver) SetSolid(x, y int, solid bool) {
	if !s.InBounds(x, y) {
		return
	}
	s.setCell(y*s.width+x, solid)
}

// ClearObstacles turns every node back into fluid.
func (s *Solver) ClearObstacles() {
	for idx := range s.Obstacles {
		if s.Obstacles[idx] {
			s.setCell(idx, false)
		}
	}
}

// SolidCount returns the number of obstacle nodes.
func (s *Solver) SolidCount() int {
	n := 0
	for _, solid := range s.Obstacles {
		if solid {
			n++
		}
	}
	return n
}

func (s *Solver) setCell(idx int, solid bool) {
	was := s.Obstacles[idx]
	s.Obstacles[idx] = solid
	if solid {
		s.Ux[idx] = 0
		s.Uy[idx] = 0
		return
	}
	if was {
		// A reopened node starts from rest instead of its stale populations.
		eq := Equilibrium(lattice.RestDensity, 0, 0)
		for i := 0; i < lattice.Q; i++ {
			s.f[i][idx] = eq[i]
			s.next[i][idx] = eq[i]
		}
		s.Rho[idx] = lattice.RestDensity
	}
}

// clipSpan converts the float interval [lo, hi] to the node range it
// covers inside [0, n).
func clipSpan(lo, hi float64, n int) (int, int, bool) {
	lo = math.Max(0, math.Ceil(lo))
	hi = math.Min(float64(n-1), math.Floor(hi))
	if lo > hi {
		return 0, 0, false
	}
	return int(lo), int(hi), true
}
