package stats

import (
	"math"
	"math/rand"
	"testing"
)

func TestACF(t *testing.T) {
	// AR(1) process with deterministic pseudo-noise.
	n := 100
	phi := 0.8
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(values, 10)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.3 {
		t.Errorf("ACF at lag 1 seems low for AR(1) with phi=0.8: %f", acf[1])
	}
}

func TestACFConstantSeries(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	if acf := ACF(values, 3); acf != nil {
		t.Errorf("ACF of a constant series should be nil, got %v", acf)
	}
}

func TestPACF(t *testing.T) {
	n := 100
	phi := 0.7
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	pacf := PACF(values, 10)
	if pacf == nil {
		t.Fatal("PACF returned nil")
	}

	if math.Abs(pacf[0]-1.0) > 1e-10 {
		t.Errorf("PACF at lag 0 should be 1, got %f", pacf[0])
	}
	if math.Abs(pacf[1]) < 0.3 {
		t.Errorf("PACF at lag 1 seems low for AR(1) with phi=0.7: %f", pacf[1])
	}
}

func TestACFWithConfidenceSeasonalLag(t *testing.T) {
	// Strong weekly pattern: lag 7 must clear the significance band.
	n := 140
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, n)
	for i := range values {
		values[i] = 10*math.Sin(2*math.Pi*float64(i)/7) + rng.NormFloat64()
	}

	result := ACFWithConfidence(values, 14, 0.95)
	if result == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}

	wantBound := 1.96 / math.Sqrt(float64(n))
	if math.Abs(result.ConfBound-wantBound) > 1e-3 {
		t.Errorf("95%% band: expected about %f, got %f", wantBound, result.ConfBound)
	}

	found := false
	for _, lag := range result.SignificantLags {
		if lag == 7 {
			found = true
		}
	}
	if !found {
		t.Errorf("lag 7 should be significant for a weekly pattern, got %v", result.SignificantLags)
	}
}

func TestSignificantLags(t *testing.T) {
	values := []float64{1.0, 0.5, 0.05, -0.4, 0.01}
	got := SignificantLags(values, 0.2)

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected lags [1 3], got %v", got)
	}
}
