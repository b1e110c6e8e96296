package tunnel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Builder returns a fresh, independently owned tunnel for one sweep point.
type Builder func() (*Tunnel, error)

// SweepPoint is the outcome of one inlet speed in a Sweep.
type SweepPoint struct {
	Inlet  float64
	Result *Result
	Err    error
}

// Sweep runs one tunnel per inlet speed concurrently. Each point gets its
// own solver so no state is shared between goroutines. Divergence is
// reported per point; only build failures and cancellation abort the sweep.
func Sweep(ctx context.Context, build Builder, inlets []float64, cfg RunConfig, workers int) ([]SweepPoint, error) {
	points := make([]SweepPoint, len(inlets))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, inlet := range inlets {
		g.Go(func() error {
			t, err := build()
			if err != nil {
				return err
			}
			c := cfg
			c.InletSpeed = inlet
			res, err := t.Run(ctx, c)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			points[i] = SweepPoint{Inlet: inlet, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
