package export

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
	"github.com/san-kum/windtunnel/internal/viz"
)

func newSolver(t *testing.T, w, h int) *lbm.Solver {
	t.Helper()
	s, err := lbm.New(w, h)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	return s
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func TestForcePlot(t *testing.T) {
	samples := make([]aero.Sample, 50)
	for i := range samples {
		samples[i] = aero.Sample{Drag: 0.1 + 0.001*float64(i), Lift: 0.01 * math.Sin(float64(i)/5)}
	}
	p, err := ForcePlot(samples, "cylinder")
	if err != nil {
		t.Fatalf("force plot: %v", err)
	}
	if p.Title.Text != "cylinder" {
		t.Errorf("unexpected title %q", p.Title.Text)
	}

	dir := t.TempDir()
	for _, name := range []string{"forces.png", "forces.svg"} {
		path := filepath.Join(dir, name)
		if err := Save(p, path, 6*vg.Inch, 4*vg.Inch); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		assertFile(t, path)
	}
}

func TestForcePlotEmpty(t *testing.T) {
	if _, err := ForcePlot(nil, "x"); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestSaveUnsupported(t *testing.T) {
	p, err := ForcePlot([]aero.Sample{{Drag: 1}, {Drag: 2}}, "x")
	if err != nil {
		t.Fatal(err)
	}
	err = Save(p, filepath.Join(t.TempDir(), "forces.bmp"), vg.Inch, vg.Inch)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFieldPlot(t *testing.T) {
	s := newSolver(t, 30, 15)
	s.SetObstacle(10, 7, 3, true)
	for i := 0; i < 20; i++ {
		if err := s.Step(0.05); err != nil {
			t.Fatal(err)
		}
	}
	sm := smoke.New(s)

	dir := t.TempDir()
	for _, mode := range []viz.Mode{viz.ModeSpeed, viz.ModeVorticity, viz.ModeDensity, viz.ModeSmoke} {
		p, err := FieldPlot(s, sm, mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		path := filepath.Join(dir, mode.String()+".png")
		if err := Save(p, path, 4*vg.Inch, 2*vg.Inch); err != nil {
			t.Fatalf("save %s: %v", mode, err)
		}
		assertFile(t, path)
	}
}

func TestFieldGridFlipsY(t *testing.T) {
	g := fieldGrid{
		w: 2, h: 2,
		values:    []float64{1, 2, 3, 4},
		obstacles: []bool{false, true, false, false},
	}
	if g.Z(0, 1) != 1 {
		t.Errorf("top-left node should be the top plot row, got %f", g.Z(0, 1))
	}
	if g.Z(1, 0) != 4 {
		t.Errorf("bottom-right node should be the bottom plot row, got %f", g.Z(1, 0))
	}
	if !math.IsNaN(g.Z(1, 1)) {
		t.Error("obstacle should read as NaN")
	}

	lo, hi := fluidRange(g)
	if lo != 1 || hi != 4 {
		t.Errorf("range [%f,%f], want [1,4]", lo, hi)
	}
	flat := fieldGrid{w: 1, h: 1, values: []float64{0}, obstacles: []bool{false}}
	if lo, hi := fluidRange(flat); hi <= lo {
		t.Error("flat field should get a non-empty range")
	}
}

func TestCanvasSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	var buf bytes.Buffer
	if err := CanvasSVG(&buf, c, 4, "#ffffff"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if n := strings.Count(out, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(out, `width="16" height="16"`) {
		t.Errorf("unexpected dimensions in %q", out[:120])
	}
	if err := CanvasSVG(&buf, nil, 1, "#fff"); err == nil {
		t.Error("expected error for nil canvas")
	}
}
