package lattice

import (
	"math"
	"testing"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

func TestOppositeInvolution(t *testing.T) {
	if Opposite[0] != 0 {
		t.Fatalf("Opposite[0] = %d, want 0", Opposite[0])
	}
	for i := 0; i < Q; i++ {
		if got := Opposite[Opposite[i]]; got != i {
			t.Errorf("Opposite[Opposite[%d]] = %d", i, got)
		}
		o := Opposite[i]
		if EX[o] != -EX[i] || EY[o] != -EY[i] {
			t.Errorf("direction %d and %d are not reversed: (%d,%d) vs (%d,%d)", i, o, EX[i], EY[i], EX[o], EY[o])
		}
	}
}

func TestVelocitySetIsSymmetric(t *testing.T) {
	sx, sy := 0.0, 0.0
	sxx, syy := 0.0, 0.0
	for i := 0; i < Q; i++ {
		sx += Weights[i] * float64(EX[i])
		sy += Weights[i] * float64(EY[i])
		sxx += Weights[i] * float64(EX[i]*EX[i])
		syy += Weights[i] * float64(EY[i]*EY[i])
	}
	if sx != 0 || sy != 0 {
		t.Errorf("first moment = (%v, %v), want 0", sx, sy)
	}
	cs2 := SoundSpeed * SoundSpeed
	if math.Abs(sxx-cs2) > 1e-12 || math.Abs(syy-cs2) > 1e-12 {
		t.Errorf("second moment = (%v, %v), want %v", sxx, syy, cs2)
	}
}

func TestViscosityTauRoundTrip(t *testing.T) {
	tests := []struct {
		tau float64
		nu  float64
	}{
		{0.5, 0},
		{DefaultTau, 0.1 / 3},
		{1.0, 1.0 / 6},
	}
	for _, tt := range tests {
		if got := Viscosity(tt.tau); math.Abs(got-tt.nu) > 1e-12 {
			t.Errorf("Viscosity(%v) = %v, want %v", tt.tau, got, tt.nu)
		}
		if got := Tau(tt.nu); math.Abs(got-tt.tau) > 1e-12 {
			t.Errorf("Tau(%v) = %v, want %v", tt.nu, got, tt.tau)
		}
	}
}
