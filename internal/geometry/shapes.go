// Package geometry describes obstacle shapes and paints them onto a solver.
package geometry

import (
	"math"

	"github.com/san-kum/windtunnel/internal/lbm"
)

// Shape is a region of grid space. Bounds must enclose every point for
// which Contains is true.
type Shape interface {
	Contains(x, y float64) bool
	Bounds() (x0, y0, x1, y1 float64)
}

type Circle struct {
	X, Y, R float64
}

func (c Circle) Contains(x, y float64) bool {
	dx, dy := x-c.X, y-c.Y
	return dx*dx+dy*dy <= c.R*c.R
}

func (c Circle) Bounds() (float64, float64, float64, float64) {
	return c.X - c.R, c.Y - c.R, c.X + c.R, c.Y + c.R
}

// Rect is axis aligned with its top-left corner at (X, Y).
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) Bounds() (float64, float64, float64, float64) {
	return r.X, r.Y, r.X + r.W, r.Y + r.H
}

// Plate is a thin rectangle centred on (X, Y), rotated by Angle degrees.
type Plate struct {
	X, Y      float64
	Length    float64
	Thickness float64
	Angle     float64
}

func (p Plate) Contains(x, y float64) bool {
	u, v := rotate(x-p.X, y-p.Y, p.Angle)
	return math.Abs(u) <= p.Length/2 && math.Abs(v) <= p.Thickness/2
}

func (p Plate) Bounds() (float64, float64, float64, float64) {
	r := math.Hypot(p.Length, p.Thickness) / 2
	return p.X - r, p.Y - r, p.X + r, p.Y + r
}

// Airfoil is a NACA 4-digit section with its leading edge at (X, Y).
// Camber, CamberPos and Thickness are fractions of the chord (NACA 2412 is
// 0.02, 0.4, 0.12). Angle is the angle of attack in degrees; positive
// raises the nose against the flow.
type Airfoil struct {
	X, Y      float64
	Chord     float64
	Camber    float64
	CamberPos float64
	Thickness float64
	Angle     float64
}

func (a Airfoil) Contains(x, y float64) bool {
	// grid y points down, the section is defined with y up
	u, v := rotate(x-a.X, y-a.Y, a.Angle)
	xn := u / a.Chord
	yn := -v / a.Chord
	if xn < 0 || xn > 1 {
		return false
	}

	m, p := a.Camber, a.CamberPos
	var yc float64
	switch {
	case m == 0 || p <= 0 || p >= 1:
		yc = 0
	case xn < p:
		yc = m / (p * p) * (2*p*xn - xn*xn)
	default:
		yc = m / ((1 - p) * (1 - p)) * ((1 - 2*p) + 2*p*xn - xn*xn)
	}

	yt := 5 * a.Thickness * (0.2969*math.Sqrt(xn) -
		0.1260*xn -
		0.3516*xn*xn +
		0.2843*xn*xn*xn -
		0.1015*xn*xn*xn*xn)

	return math.Abs(yn-yc) <= yt
}

func (a Airfoil) Bounds() (float64, float64, float64, float64) {
	return a.X - a.Chord, a.Y - a.Chord, a.X + a.Chord, a.Y + a.Chord
}

// Paint marks (or clears) every node of s inside sh and returns how many
// nodes were touched. Nodes outside the grid are skipped.
func Paint(s *lbm.Solver, sh Shape, solid bool) int {
	bx0, by0, bx1, by1 := sh.Bounds()
	x0 := max(0, int(math.Floor(bx0)))
	y0 := max(0, int(math.Floor(by0)))
	x1 := min(s.Width()-1, int(math.Ceil(bx1)))
	y1 := min(s.Height()-1, int(math.Ceil(by1)))

	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if sh.Contains(float64(x), float64(y)) {
				s.SetSolid(x, y, solid)
				n++
			}
		}
	}
	return n
}

// rotate turns (x, y) by -deg degrees, i.e. into a frame rotated by deg.
func rotate(x, y, deg float64) (float64, float64) {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return x*cos + y*sin, -x*sin + y*cos
}
