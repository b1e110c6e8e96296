package lattice

import "math"

// Q is the number of discrete velocities.
const Q = 9

const (
	RestDensity     = 1.0
	DefaultTau      = 0.6
	DefaultWidth    = 300
	DefaultHeight   = 150
	DefaultSubsteps = 10
)

// SoundSpeed is the lattice speed of sound, 1/sqrt(3).
var SoundSpeed = 1 / math.Sqrt(3)

var (
	Weights = [Q]float64{
		4.0 / 9,
		1.0 / 9, 1.0 / 9, 1.0 / 9, 1.0 / 9,
		1.0 / 36, 1.0 / 36, 1.0 / 36, 1.0 / 36,
	}

	EX = [Q]int{0, 1, 0, -1, 0, 1, -1, -1, 1}
	EY = [Q]int{0, 0, 1, 0, -1, 1, 1, -1, -1}

	// Opposite maps each direction to its reverse.
	Opposite = [Q]int{0, 3, 4, 1, 2, 7, 8, 5, 6}
)

// Viscosity returns the kinematic viscosity for relaxation time tau.
func Viscosity(tau float64) float64 {
	return (tau - 0.5) / 3.0
}

// Tau returns the relaxation time for kinematic viscosity nu.
func Tau(nu float64) float64 {
	return 3.0*nu + 0.5
}
