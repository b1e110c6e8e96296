// Package export renders run results to image files with gonum/plot.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
	"github.com/san-kum/windtunnel/internal/viz"
)

var (
	ErrNoSamples         = errors.New("export: no samples")
	ErrUnsupportedFormat = errors.New("export: unsupported format")
)

var (
	dragColor = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	liftColor = color.RGBA{R: 40, G: 110, B: 220, A: 255}
)

// ForcePlot draws drag and lift against tick.
func ForcePlot(samples []aero.Sample, title string) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Force (lattice units)"

	drag := make(plotter.XYs, len(samples))
	lift := make(plotter.XYs, len(samples))
	for i, s := range samples {
		drag[i] = plotter.XY{X: float64(i + 1), Y: s.Drag}
		lift[i] = plotter.XY{X: float64(i + 1), Y: s.Lift}
	}

	dragLine, err := plotter.NewLine(drag)
	if err != nil {
		return nil, fmt.Errorf("drag line: %w", err)
	}
	dragLine.Color = dragColor
	dragLine.Width = vg.Points(1)

	liftLine, err := plotter.NewLine(lift)
	if err != nil {
		return nil, fmt.Errorf("lift line: %w", err)
	}
	liftLine.Color = liftColor
	liftLine.Width = vg.Points(1)

	p.Add(plotter.NewGrid(), dragLine, liftLine)
	p.Legend.Add("drag", dragLine)
	p.Legend.Add("lift", liftLine)
	p.Legend.Top = true
	return p, nil
}

// fieldGrid adapts a node field to plotter.GridXYZ with y pointing up.
// Obstacle nodes read as NaN.
type fieldGrid struct {
	w, h      int
	values    []float64
	obstacles []bool
}

func (g fieldGrid) Dims() (c, r int) { return g.w, g.h }
func (g fieldGrid) X(c int) float64  { return float64(c) }
func (g fieldGrid) Y(r int) float64  { return float64(r) }
func (g fieldGrid) Z(c, r int) float64 {
	idx := (g.h-1-r)*g.w + c
	if g.obstacles[idx] {
		return math.NaN()
	}
	return g.values[idx]
}

// FieldPlot draws one field of the solver as a heat map with obstacles
// in black.
func FieldPlot(s *lbm.Solver, sm *smoke.Solver, mode viz.Mode) (*plot.Plot, error) {
	grid := fieldGrid{
		w:         s.Width(),
		h:         s.Height(),
		values:    viz.Field(s, sm, mode, nil),
		obstacles: s.Obstacles,
	}

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	hm.NaN = color.Black
	lo, hi := fluidRange(grid)
	hm.Min, hm.Max = lo, hi

	p := plot.New()
	p.Title.Text = mode.String()
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(hm)
	p.X.Min, p.X.Max = -0.5, float64(grid.w)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(grid.h)-0.5
	return p, nil
}

// fluidRange is the value range over fluid nodes, widened when flat so the
// palette scale stays finite.
func fluidRange(g fieldGrid) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range g.values {
		if g.obstacles[i] || math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi-lo < 1e-12 {
		return lo - 0.5, lo + 0.5
	}
	return lo, hi
}

var formats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true,
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Save writes p to path; the format follows the file extension.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !formats[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return p.Save(width, height, path)
}
