package tunnel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/geometry"
	"github.com/san-kum/windtunnel/internal/lattice"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
)

// Tunnel drives one solver and its consumers: step, then forces, then
// smoke, once per tick. Mutations hold the write lock; View and Snapshot
// hold the read lock, so readers only ever see completed ticks.
type Tunnel struct {
	mu sync.RWMutex

	solver  *lbm.Solver
	sensors *aero.Sensors
	smoke   *smoke.Solver

	substeps   int
	generation atomic.Uint64
	frame      Frame
	mask       []bool

	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

// New wires a tunnel around s. sensors and sm may be nil.
func New(s *lbm.Solver, sensors *aero.Sensors, sm *smoke.Solver) *Tunnel {
	return &Tunnel{
		solver:    s,
		sensors:   sensors,
		smoke:     sm,
		substeps:  lattice.DefaultSubsteps,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logrus.StandardLogger(),
	}
}

func (t *Tunnel) SetLogger(l logrus.FieldLogger) { t.log = l }
func (t *Tunnel) AddMetric(m Metric)             { t.metrics = append(t.metrics, m) }
func (t *Tunnel) AddObserver(o Observer)         { t.observers = append(t.observers, o) }

// SetSubsteps sets the ticks per Frame; values below 1 become 1.
func (t *Tunnel) SetSubsteps(n int) {
	if n < 1 {
		n = 1
	}
	t.substeps = n
}

func (t *Tunnel) Substeps() int { return t.substeps }

// Generation counts completed ticks and lifecycle changes. It can be read
// without the lock.
func (t *Tunnel) Generation() uint64 { return t.generation.Load() }

func (t *Tunnel) Solver() *lbm.Solver    { return t.solver }
func (t *Tunnel) Sensors() *aero.Sensors { return t.sensors }
func (t *Tunnel) Smoke() *smoke.Solver   { return t.smoke }

// Tick advances the tunnel by one solver step.
func (t *Tunnel) Tick(inlet float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickLocked(inlet)
}

func (t *Tunnel) tickLocked(inlet float64) error {
	if err := t.solver.Step(inlet); err != nil {
		return err
	}

	var force aero.Sample
	if t.sensors != nil {
		force = t.sensors.ComputeForces()
	}
	if t.smoke != nil {
		t.smoke.Step()
	}
	gen := t.generation.Add(1)

	t.frame = Frame{
		Tick:       t.solver.Tick(),
		Generation: gen,
		Inlet:      inlet,
		Force:      force,
		Solver:     t.solver,
		Sensors:    t.sensors,
		Smoke:      t.smoke,
	}
	for _, m := range t.metrics {
		m.Observe(&t.frame)
	}
	for _, o := range t.observers {
		o.OnTick(&t.frame)
	}
	return nil
}

// Frame runs Substeps ticks, the unit a renderer draws once.
func (t *Tunnel) Frame(inlet float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.substeps; i++ {
		if err := t.tickLocked(inlet); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks cfg.Ticks times, recording one force sample per tick. On
// divergence it returns the partial result together with the error.
func (t *Tunnel) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Forces:  make([]aero.Sample, 0, cfg.Ticks),
		Metrics: make(map[string]float64),
	}
	for _, m := range t.metrics {
		m.Reset()
	}

	log := t.log.WithFields(logrus.Fields{
		"ticks": cfg.Ticks,
		"inlet": cfg.InletSpeed,
		"grid":  fmt.Sprintf("%dx%d", t.solver.Width(), t.solver.Height()),
	})
	log.Debug("run started")
	start := time.Now()

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			t.collect(result)
			return result, ctx.Err()
		default:
		}

		inlet := cfg.InletSpeed
		if cfg.Ramp > 0 && i < cfg.Ramp {
			inlet *= float64(i+1) / float64(cfg.Ramp)
		}

		if err := t.Tick(inlet); err != nil {
			result.Diverged = true
			result.Elapsed = time.Since(start)
			t.collect(result)
			log.WithError(err).WithField("tick", i).Warn("run stopped")
			return result, err
		}

		result.TicksTaken++
		if t.sensors != nil {
			result.Forces = append(result.Forces, t.sensors.Latest())
		}
		if cfg.LogEvery > 0 && result.TicksTaken%cfg.LogEvery == 0 {
			f := t.Latest()
			log.WithFields(logrus.Fields{
				"tick": result.TicksTaken,
				"drag": f.Drag,
				"lift": f.Lift,
			}).Info("progress")
		}
	}

	result.Elapsed = time.Since(start)
	t.collect(result)
	log.WithField("elapsed", result.Elapsed).Debug("run finished")
	return result, nil
}

func (t *Tunnel) collect(result *Result) {
	for _, m := range t.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateRunConfig(cfg RunConfig) error {
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	if cfg.Ramp < 0 {
		return fmt.Errorf("ramp must not be negative, got %d", cfg.Ramp)
	}
	return nil
}

// Latest is the most recent smoothed force, zero without sensors.
func (t *Tunnel) Latest() aero.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.sensors == nil {
		return aero.Sample{}
	}
	return t.sensors.Latest()
}

// Paint applies the disk brush.
func (t *Tunnel) Paint(x, y, radius float64, solid bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.solver.SetObstacle(x, y, radius, solid)
	t.generation.Add(1)
}

// PaintShape stamps a geometry shape and returns the nodes touched.
func (t *Tunnel) PaintShape(sh geometry.Shape, solid bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := geometry.Paint(t.solver, sh, solid)
	t.generation.Add(1)
	return n
}

func (t *Tunnel) ClearObstacles() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.solver.ClearObstacles()
	t.generation.Add(1)
}

// Reset returns the flow to rest and clears force history and smoke.
// Obstacles and smoke sources are kept; use ClearObstacles to drop the
// geometry as well.
func (t *Tunnel) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.solver
	t.mask = append(t.mask[:0], s.Obstacles...)
	s.Reset()
	w := s.Width()
	for idx, solid := range t.mask {
		if solid {
			s.SetSolid(idx%w, idx/w, true)
		}
	}
	if t.sensors != nil {
		t.sensors.Reset()
	}
	if t.smoke != nil {
		t.smoke.Clear()
	}
	t.generation.Add(1)
	t.log.WithField("generation", t.generation.Load()).Debug("tunnel reset")
}

func (t *Tunnel) AddSource(x, y int, intensity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.smoke != nil {
		t.smoke.AddSource(x, y, intensity)
	}
}

func (t *Tunnel) ClearSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.smoke != nil {
		t.smoke.ClearSources()
	}
}

func (t *Tunnel) SetSmokeActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.smoke != nil {
		t.smoke.SetActive(active)
	}
}

// View calls fn with a frame of the current state under the read lock.
// fn must not retain the frame or mutate the solver.
func (t *Tunnel) View(fn func(f *Frame)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f := Frame{
		Tick:       t.solver.Tick(),
		Generation: t.generation.Load(),
		Inlet:      t.frame.Inlet,
		Solver:     t.solver,
		Sensors:    t.sensors,
		Smoke:      t.smoke,
	}
	if t.sensors != nil {
		f.Force = t.sensors.Latest()
	}
	fn(&f)
}

// Snapshot copies the renderable state into dst, reusing its buffers.
func (t *Tunnel) Snapshot(dst *Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.solver
	dst.Generation = t.generation.Load()
	dst.Tick = s.Tick()
	dst.Width, dst.Height = s.Width(), s.Height()
	dst.Rho = append(dst.Rho[:0], s.Rho...)
	dst.Ux = append(dst.Ux[:0], s.Ux...)
	dst.Uy = append(dst.Uy[:0], s.Uy...)
	dst.Obstacles = append(dst.Obstacles[:0], s.Obstacles...)
	if t.smoke != nil {
		dst.Smoke = append(dst.Smoke[:0], t.smoke.Density...)
	} else {
		dst.Smoke = dst.Smoke[:0]
	}
	dst.Force = aero.Sample{}
	if t.sensors != nil {
		dst.Force = t.sensors.Latest()
	}
}
