// Package aero measures forces on immersed obstacles of an [lbm.Solver].
//
// [Sensors.ComputeForces] applies the momentum-exchange method: every
// fluid-to-solid link contributes twice the momentum of the population
// about to bounce back. Readings are exponentially smoothed and kept in a
// fixed-size ring. Call it once per solver step, after the step.
package aero
