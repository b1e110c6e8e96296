package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
)

type Mode int

const (
	ModeSpeed Mode = iota
	ModeVorticity
	ModeDensity
	ModeSmoke
)

var modeNames = [...]string{"speed", "vorticity", "density", "smoke"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles through the modes in order.
func (m Mode) Next() Mode { return (m + 1) % Mode(len(modeNames)) }

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field mode %q", s)
}

const solidGlyph = '█'

var (
	ramp    = []rune(" .:-=+*#%@")
	posRamp = []rune(" .'^*#")
	negRamp = []rune(" .,~o0")
)

// Field extracts the scalar field for mode, one value per node. Density is
// reported as the deviation from rest. Smoke mode without a smoke solver
// yields zeros.
func Field(s *lbm.Solver, sm *smoke.Solver, mode Mode, dst []float64) []float64 {
	n := s.Size()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	switch mode {
	case ModeVorticity:
		return s.Vorticity(dst)
	case ModeDensity:
		for i, rho := range s.Rho {
			dst[i] = rho - 1
		}
	case ModeSmoke:
		if sm == nil {
			clear(dst)
			return dst
		}
		copy(dst, sm.Density)
	default:
		return s.Speed(dst)
	}
	return dst
}

// RenderField downsamples mode onto cols x rows characters. A cell is drawn
// solid when at least half of its nodes are obstacles; other cells average
// their fluid nodes and are shaded against the largest magnitude on screen.
func RenderField(s *lbm.Solver, sm *smoke.Solver, mode Mode, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	field := Field(s, sm, mode, nil)
	w, h := s.Width(), s.Height()

	values := make([]float64, cols*rows)
	solid := make([]bool, cols*rows)
	peak := 0.0

	for r := 0; r < rows; r++ {
		y0, y1 := span(r, rows, h)
		for c := 0; c < cols; c++ {
			x0, x1 := span(c, cols, w)
			sum, fluid, total := 0.0, 0, 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					idx := y*w + x
					total++
					if s.Obstacles[idx] {
						continue
					}
					sum += field[idx]
					fluid++
				}
			}
			cell := r*cols + c
			if total == 0 || 2*(total-fluid) >= total {
				solid[cell] = true
				continue
			}
			values[cell] = sum / float64(fluid)
			peak = math.Max(peak, math.Abs(values[cell]))
		}
	}

	lines := make([]string, rows)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		b.Reset()
		for c := 0; c < cols; c++ {
			cell := r*cols + c
			if solid[cell] {
				b.WriteRune(solidGlyph)
				continue
			}
			b.WriteRune(shade(values[cell], peak, mode))
		}
		lines[r] = b.String()
	}
	return lines
}

// span maps screen cell i of n onto a half-open node range of size, never
// empty.
func span(i, n, size int) (int, int) {
	lo := i * size / n
	hi := (i + 1) * size / n
	if hi <= lo {
		hi = lo + 1
	}
	if hi > size {
		hi = size
		if lo >= hi {
			lo = hi - 1
		}
	}
	return lo, hi
}

func shade(v, peak float64, mode Mode) rune {
	if peak == 0 || math.IsNaN(v) {
		return ' '
	}
	if mode == ModeVorticity || mode == ModeDensity {
		r := posRamp
		if v < 0 {
			r = negRamp
		}
		return r[level(math.Abs(v)/peak, len(r))]
	}
	return ramp[level(math.Abs(v)/peak, len(ramp))]
}

func level(norm float64, n int) int {
	idx := int(norm * float64(n-1))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
