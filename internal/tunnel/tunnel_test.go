package tunnel_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/windtunnel/internal/aero"
	"github.com/san-kum/windtunnel/internal/geometry"
	"github.com/san-kum/windtunnel/internal/lbm"
	"github.com/san-kum/windtunnel/internal/smoke"
	"github.com/san-kum/windtunnel/internal/tunnel"
)

type countingMetric struct{ n int }

func (m *countingMetric) Name() string          { return "count" }
func (m *countingMetric) Observe(*tunnel.Frame) { m.n++ }
func (m *countingMetric) Value() float64        { return float64(m.n) }
func (m *countingMetric) Reset()                { m.n = 0 }

type recorder struct{ gens []uint64 }

func (r *recorder) OnTick(f *tunnel.Frame) { r.gens = append(r.gens, f.Generation) }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTunnel(w, h int, withCylinder bool) *tunnel.Tunnel {
	s, err := lbm.New(w, h)
	Expect(err).NotTo(HaveOccurred())
	t := tunnel.New(s, aero.NewSensors(s, aero.DefaultCapacity), smoke.New(s))
	t.SetLogger(quietLogger())
	if withCylinder {
		t.Paint(float64(w)/3, float64(h)/2, 4, true)
	}
	return t
}

var _ = Describe("Tunnel", func() {
	var tn *tunnel.Tunnel

	BeforeEach(func() {
		tn = newTunnel(60, 30, true)
	})

	Describe("Tick", func() {
		It("advances the solver and the generation together", func() {
			before := tn.Generation()
			Expect(tn.Tick(0.05)).To(Succeed())
			Expect(tn.Solver().Tick()).To(Equal(1))
			Expect(tn.Generation()).To(Equal(before + 1))
		})

		It("feeds metrics and observers once per tick", func() {
			m := &countingMetric{}
			r := &recorder{}
			tn.AddMetric(m)
			tn.AddObserver(r)

			for i := 0; i < 5; i++ {
				Expect(tn.Tick(0.05)).To(Succeed())
			}
			Expect(m.n).To(Equal(5))
			Expect(r.gens).To(HaveLen(5))
			for i := 1; i < len(r.gens); i++ {
				Expect(r.gens[i]).To(Equal(r.gens[i-1] + 1))
			}
		})

		It("records a force sample per tick", func() {
			for i := 0; i < 10; i++ {
				Expect(tn.Tick(0.08)).To(Succeed())
			}
			Expect(tn.Sensors().Len()).To(Equal(10))
		})
	})

	Describe("Frame", func() {
		It("runs the configured number of substeps", func() {
			tn.SetSubsteps(4)
			Expect(tn.Frame(0.05)).To(Succeed())
			Expect(tn.Solver().Tick()).To(Equal(4))
		})

		It("clamps substeps to at least one", func() {
			tn.SetSubsteps(0)
			Expect(tn.Substeps()).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("produces drag on a cylinder", func() {
			res, err := tn.Run(context.Background(), tunnel.RunConfig{Ticks: 300, InletSpeed: 0.08})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TicksTaken).To(Equal(300))
			Expect(res.Forces).To(HaveLen(300))
			Expect(res.Diverged).To(BeFalse())
			Expect(res.Forces[len(res.Forces)-1].Drag).To(BeNumerically(">", 0))
		})

		It("ramps the inlet", func() {
			r := &inletRecorder{}
			tn.AddObserver(r)
			_, err := tn.Run(context.Background(), tunnel.RunConfig{Ticks: 4, InletSpeed: 0.08, Ramp: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.inlets).To(HaveLen(4))
			Expect(r.inlets[0]).To(BeNumerically("~", 0.02, 1e-12))
			Expect(r.inlets[3]).To(BeNumerically("~", 0.08, 1e-12))
		})

		It("collects metric values", func() {
			tn.AddMetric(&countingMetric{})
			res, err := tn.Run(context.Background(), tunnel.RunConfig{Ticks: 7, InletSpeed: 0.05})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("count", 7.0))
		})

		It("rejects an empty run", func() {
			_, err := tn.Run(context.Background(), tunnel.RunConfig{Ticks: 0})
			Expect(err).To(HaveOccurred())
			_, err = tn.Run(context.Background(), tunnel.RunConfig{Ticks: 5, Ramp: -1})
			Expect(err).To(HaveOccurred())
		})

		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := tn.Run(ctx, tunnel.RunConfig{Ticks: 100, InletSpeed: 0.05})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res.TicksTaken).To(Equal(0))
		})

		It("reports divergence with a partial result", func() {
			s := tn.Solver()
			s.Population(0)[s.Index(30, 5)] = math.NaN()

			res, err := tn.Run(context.Background(), tunnel.RunConfig{Ticks: 10, InletSpeed: 0.05})
			Expect(err).To(MatchError(lbm.ErrDiverged))
			Expect(res.Diverged).To(BeTrue())
			Expect(res.TicksTaken).To(Equal(0))

			var de *lbm.DivergenceError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Tick).To(Equal(1))
		})
	})

	Describe("lifecycle", func() {
		It("resets flow, forces and smoke but keeps obstacles", func() {
			tn.AddSource(5, 15, 1)
			for i := 0; i < 20; i++ {
				Expect(tn.Tick(0.05)).To(Succeed())
			}
			solids := tn.Solver().SolidCount()
			gen := tn.Generation()

			tn.Reset()
			Expect(tn.Generation()).To(BeNumerically(">", gen))
			Expect(tn.Solver().Tick()).To(Equal(0))
			Expect(tn.Sensors().Len()).To(Equal(0))
			Expect(tn.Smoke().Total()).To(BeZero())
			Expect(tn.Solver().SolidCount()).To(Equal(solids))
			Expect(tn.Solver().Ux).To(HaveEach(BeZero()))
		})

		It("paints shapes and clears them", func() {
			tn.ClearObstacles()
			Expect(tn.Solver().SolidCount()).To(BeZero())

			n := tn.PaintShape(geometry.Rect{X: 10, Y: 10, W: 3, H: 2}, true)
			Expect(n).To(Equal(6))
			Expect(tn.Solver().SolidCount()).To(Equal(6))
		})

		It("toggles smoke sources", func() {
			tn.AddSource(5, 15, 1)
			Expect(tn.Smoke().Sources()).To(HaveLen(1))
			tn.ClearSources()
			Expect(tn.Smoke().Sources()).To(BeEmpty())
		})

		It("works without sensors or smoke", func() {
			s, err := lbm.New(20, 10)
			Expect(err).NotTo(HaveOccurred())
			bare := tunnel.New(s, nil, nil)
			bare.SetLogger(quietLogger())
			bare.AddSource(1, 1, 1)
			res, err := bare.Run(context.Background(), tunnel.RunConfig{Ticks: 3, InletSpeed: 0.05})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Forces).To(BeEmpty())
			Expect(bare.Latest()).To(Equal(aero.Sample{}))
		})
	})

	Describe("readers", func() {
		It("views the current state", func() {
			Expect(tn.Tick(0.05)).To(Succeed())
			tn.View(func(f *tunnel.Frame) {
				Expect(f.Tick).To(Equal(1))
				Expect(f.Generation).To(Equal(tn.Generation()))
				Expect(f.Solver.Width()).To(Equal(60))
			})
		})

		It("snapshots consistently while ticking", func() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := 0; i < 50; i++ {
					Expect(tn.Tick(0.05)).To(Succeed())
				}
			}()

			var snap tunnel.Snapshot
			for i := 0; i < 20; i++ {
				tn.Snapshot(&snap)
				Expect(snap.Rho).To(HaveLen(60 * 30))
				Expect(snap.Obstacles).To(HaveLen(60 * 30))
				Expect(snap.Smoke).To(HaveLen(60 * 30))
			}
			wg.Wait()

			tn.Snapshot(&snap)
			Expect(snap.Tick).To(Equal(50))
			Expect(snap.Width).To(Equal(60))
			Expect(snap.Height).To(Equal(30))
		})

		It("encodes a snapshot as json", func() {
			Expect(tn.Tick(0.05)).To(Succeed())
			var snap tunnel.Snapshot
			tn.Snapshot(&snap)

			data, err := json.Marshal(&snap)
			Expect(err).NotTo(HaveOccurred())
			var decoded map[string]any
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("tick", BeNumerically("==", 1)))
			Expect(decoded).To(HaveKeyWithValue("width", BeNumerically("==", 60)))
			Expect(decoded["rho"]).To(HaveLen(60 * 30))
			Expect(decoded).To(HaveKey("force"))
		})
	})
})

type inletRecorder struct{ inlets []float64 }

func (r *inletRecorder) OnTick(f *tunnel.Frame) { r.inlets = append(r.inlets, f.Inlet) }

var _ = Describe("Sweep", func() {
	It("runs one independent tunnel per inlet", func() {
		build := func() (*tunnel.Tunnel, error) {
			return newTunnel(40, 20, true), nil
		}
		inlets := []float64{0.02, 0.04, 0.06}
		points, err := tunnel.Sweep(context.Background(), build, inlets, tunnel.RunConfig{Ticks: 150}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))
		for i, p := range points {
			Expect(p.Inlet).To(Equal(inlets[i]))
			Expect(p.Err).NotTo(HaveOccurred())
			Expect(p.Result.TicksTaken).To(Equal(150))
		}
		last := func(p tunnel.SweepPoint) float64 { return p.Result.Forces[len(p.Result.Forces)-1].Drag }
		Expect(last(points[2])).To(BeNumerically(">", last(points[0])))
	})

	It("fails when a tunnel cannot be built", func() {
		boom := errors.New("boom")
		build := func() (*tunnel.Tunnel, error) { return nil, boom }
		_, err := tunnel.Sweep(context.Background(), build, []float64{0.05}, tunnel.RunConfig{Ticks: 1}, 0)
		Expect(err).To(MatchError(boom))
	})
})
