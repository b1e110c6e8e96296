package geometry

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/san-kum/windtunnel/internal/lbm"
)

func TestPaintCounts(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"circle", Circle{X: 5, Y: 5, R: 2}, 13},
		{"rect", Rect{X: 2, Y: 3, W: 4, H: 2}, 8},
		{"plate", Plate{X: 10, Y: 10, Length: 10, Thickness: 2}, 33},
		{"clipped circle", Circle{X: 0, Y: 0, R: 3}, 11},
		{"off grid", Rect{X: 100, Y: 100, W: 5, H: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := lbm.New(30, 20)
			if err != nil {
				t.Fatal(err)
			}
			if got := Paint(s, tt.shape, true); got != tt.want {
				t.Errorf("Paint() = %d, want %d", got, tt.want)
			}
			if got := s.SolidCount(); got != tt.want {
				t.Errorf("SolidCount() = %d, want %d", got, tt.want)
			}

			Paint(s, tt.shape, false)
			if got := s.SolidCount(); got != 0 {
				t.Errorf("SolidCount() after erase = %d", got)
			}
		})
	}
}

func TestAirfoilContains(t *testing.T) {
	a := Airfoil{X: 10, Y: 25, Chord: 40, Camber: 0.02, CamberPos: 0.4, Thickness: 0.12}

	tests := []struct {
		x, y float64
		want bool
	}{
		{10, 25, true},   // leading edge
		{30, 25, true},   // mid chord
		{30, 15, false},  // well above
		{5, 25, false},   // upstream
		{55, 25, false},  // past the trailing edge
		{22, 22.5, true}, // upper surface near max thickness, camber lifts it
	}
	for _, tt := range tests {
		if got := a.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAirfoilAngleOfAttack(t *testing.T) {
	a := Airfoil{X: 10, Y: 25, Chord: 40, Thickness: 0.12, Angle: 10}
	rad := 10 * math.Pi / 180

	// a chord point moves down-stream and down the grid when the nose is raised
	x, y := 10+30*math.Cos(rad), 25+30*math.Sin(rad)
	if !a.Contains(x, y) {
		t.Errorf("rotated chord point (%.2f, %.2f) not inside", x, y)
	}
	if a.Contains(40, 25-3) {
		t.Error("unrotated upper point should be outside")
	}
}

func TestAirfoilPaintedNoseUp(t *testing.T) {
	s, err := lbm.New(80, 50)
	if err != nil {
		t.Fatal(err)
	}
	Paint(s, Airfoil{X: 10, Y: 25, Chord: 40, Thickness: 0.12, Angle: 10}, true)

	// mid-chord column: with the nose raised the section sits below the
	// leading edge in grid coordinates
	above, below := 0, 0
	for y := 0; y < s.Height(); y++ {
		if !s.Obstacles[s.Index(30, y)] {
			continue
		}
		if y < 25 {
			above++
		} else if y > 25 {
			below++
		}
	}
	if above != 0 || below == 0 {
		t.Errorf("column x=30: %d solid above leading edge, %d below", above, below)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	want := []string{"airfoil", "circle", "plate", "rect"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	sh, err := r.Build("circle", Params{"x": 3, "y": 4, "radius": 2})
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := sh.(Circle); !ok || c != (Circle{X: 3, Y: 4, R: 2}) {
		t.Errorf("Build(circle) = %#v", sh)
	}

	if _, err := r.Build("hexagon", nil); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("expected ErrUnknownShape, got %v", err)
	}

	invalid := []struct {
		name string
		p    Params
	}{
		{"circle", Params{"radius": -1}},
		{"rect", Params{"width": 0}},
		{"plate", Params{"thickness": -2}},
		{"airfoil", Params{"chord": 0}},
	}
	for _, tt := range invalid {
		if _, err := r.Build(tt.name, tt.p); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Build(%s, %v): expected ErrInvalidParams, got %v", tt.name, tt.p, err)
		}
	}

	r.Register("dot", func(p Params) (Shape, error) { return Circle{X: p["x"], Y: p["y"]}, nil })
	if _, err := r.Build("dot", Params{"x": 1}); err != nil {
		t.Errorf("custom shape: %v", err)
	}
}
