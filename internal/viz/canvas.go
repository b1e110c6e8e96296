package viz

import (
	"strings"

	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y); the canvas is Width*2 by
// Height*4 dots.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

func (c *Canvas) Lines() []string {
	lines := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		lines[i] = string(row)
	}
	return lines
}

func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n") + "\n"
}

// Braille draws obstacles and every node whose smoke concentration exceeds
// threshold as dots, sampling the grid at the canvas dot resolution.
func Braille(s *lbm.Solver, sm *smoke.Solver, cols, rows int, threshold float64) *Canvas {
	c := NewCanvas(cols, rows)
	dw, dh := cols*2, rows*4
	w, h := s.Width(), s.Height()

	for py := 0; py < dh; py++ {
		y := py * h / dh
		for px := 0; px < dw; px++ {
			x := px * w / dw
			idx := y*w + x
			if s.Obstacles[idx] || (sm != nil && sm.Density[idx] > threshold) {
				c.Set(px, py)
			}
		}
	}
	return c
}
