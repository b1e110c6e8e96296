// Package lattice holds the D2Q9 velocity set used by the solver.
//
// Direction indices, as (ex, ey) in grid coordinates where +y is the next
// row:
//
//	0 (0,0)  rest
//	1 (1,0)  2 (0,1)  3 (-1,0)  4 (0,-1)
//	5 (1,1)  6 (-1,1) 7 (-1,-1) 8 (1,-1)
//
// Everything here is read-only package data.
package lattice
