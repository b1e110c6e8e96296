package aero

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/windtunnel/internal/lattice"
)

// Coefficients converts a force sample into drag and lift coefficients,
// C = 2F / (rho0 U^2 L).
func Coefficients(s Sample, inletSpeed, refLength float64) (cd, cl float64) {
	q := 0.5 * lattice.RestDensity * inletSpeed * inletSpeed * refLength
	if q == 0 {
		return 0, 0
	}
	return s.Drag / q, s.Lift / q
}

// Stats summarises a force series.
type Stats struct {
	MeanDrag float64
	StdDrag  float64
	MeanLift float64
	StdLift  float64
}

func Summarize(samples []Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	var st Stats
	st.MeanDrag, st.StdDrag = stat.MeanStdDev(Drags(samples), nil)
	st.MeanLift, st.StdLift = stat.MeanStdDev(Lifts(samples), nil)
	if len(samples) == 1 {
		st.StdDrag, st.StdLift = 0, 0
	}
	return st
}

func Drags(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Drag
	}
	return out
}

func Lifts(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Lift
	}
	return out
}

// Spectrum is the dominant oscillation of a signal.
type Spectrum struct {
	Frequency float64 // cycles per sample
	Power     float64
	Samples   int
}

// Shedding finds the strongest non-DC frequency of signal, typically the
// lift history of a bluff body.
func Shedding(signal []float64) Spectrum {
	n := len(signal)
	if n < 4 {
		return Spectrum{Samples: n}
	}

	mean := stat.Mean(signal, nil)
	centered := make([]float64, n)
	for i, v := range signal {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	best, bestPower := 0, 0.0
	for k := 1; k <= n/2; k++ {
		p := cmplx.Abs(coeffs[k])
		p *= p
		if p > bestPower {
			best, bestPower = k, p
		}
	}

	return Spectrum{
		Frequency: float64(best) / float64(n),
		Power:     bestPower,
		Samples:   n,
	}
}

// Strouhal is f L / U for a frequency in cycles per tick.
func Strouhal(freq, refLength, inletSpeed float64) float64 {
	if inletSpeed == 0 {
		return 0
	}
	return freq * refLength / inletSpeed
}
