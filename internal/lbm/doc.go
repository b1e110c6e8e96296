// Package lbm implements a D2Q9 lattice Boltzmann solver with BGK collision.
//
// A [Solver] owns the grid: macroscopic density and velocity, two
// generations of the nine population arrays, and the obstacle mask. Each
// [Solver.Step] performs a fused collide-and-stream sweep into the idle
// generation and then swaps the two.
//
// # Boundaries
//
//   - Obstacles and the top/bottom walls use half-way bounce-back. Solid
//     nodes never emit populations; a fluid node that would stream into a
//     solid writes the post-collision value into its own opposite slot.
//   - The leftmost column is forced to (inletSpeed, 0) with rho = 1.
//   - Populations leaving through the left or right edge are dropped. The
//     slots they would have filled keep the value they were initialised with,
//     the quiescent equilibrium. Mass is not conserved across these edges.
//
// # Example
//
//	s, err := lbm.New(300, 150)
//	if err != nil {
//	    return err
//	}
//	s.SetObstacle(75, 75, 10, true)
//	for i := 0; i < 1000; i++ {
//	    if err := s.Step(0.08); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// Solver instances are NOT thread-safe. Readers of Rho, Ux, Uy and
// Obstacles must not run during Step; the tunnel package serializes this.
package lbm
