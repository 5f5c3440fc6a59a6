// Package transform implements the variance-stabilizing transform and
// differencing chain used by the forecasting pipeline, together with the
// exact inverse that re-integrates differenced values back to counts.
package transform

import (
	"fmt"
	"math"

	"github.com/sartorproj/bakeforecast/timeseries"
)

// DomainError reports a value outside the admissible domain of a transform,
// for example a negative sales count handed to log1p.
type DomainError struct {
	Index int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("transform domain: value %v at index %d is outside [0, +inf)", e.Value, e.Index)
}

// Log1p applies elementwise log(1+x) to a non-negative series.
func Log1p(s *timeseries.Series) (*timeseries.Series, error) {
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		if v < 0 {
			return nil, &DomainError{Index: i, Value: v}
		}
		values[i] = math.Log1p(v)
	}
	out := s.Copy()
	out.Values = values
	out.Name = s.Name + "_log1p"
	return out, nil
}

// Expm1 applies elementwise exp(x)-1, the inverse of Log1p.
func Expm1(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Expm1(v)
	}
	return out
}

// Spec describes the fixed forward chain applied to produce a stationary
// working series: log1p, then a seasonal difference at SeasonalLag, then a
// regular difference at lag 1. The chain shortens a series of length n to
// n - SeasonalLag - 1.
type Spec struct {
	SeasonalLag int
}

// Forward applies the full chain. The input must be non-negative.
func (sp Spec) Forward(s *timeseries.Series) (*timeseries.Series, error) {
	if sp.SeasonalLag <= 0 {
		return nil, fmt.Errorf("seasonal lag must be positive, got %d", sp.SeasonalLag)
	}
	if s.Len() <= sp.SeasonalLag+1 {
		return nil, fmt.Errorf("series of length %d too short for seasonal lag %d plus regular difference", s.Len(), sp.SeasonalLag)
	}

	logged, err := Log1p(s)
	if err != nil {
		return nil, err
	}
	return logged.SeasonalDiff(sp.SeasonalLag).Diff(), nil
}

// Reintegrate maps values on the doubly-differenced log scale back to the
// original count scale. The seed series supplies the boundary conditions: it
// must hold at least SeasonalLag+1 original-scale observations immediately
// preceding the first differenced value. Applied to the output of Forward
// with the first SeasonalLag+1 observations as seed, it reproduces the
// remainder of the input to floating-point precision.
func (sp Spec) Reintegrate(seed *timeseries.Series, diffed []float64) ([]float64, error) {
	if sp.SeasonalLag <= 0 {
		return nil, fmt.Errorf("seasonal lag must be positive, got %d", sp.SeasonalLag)
	}
	if seed.Len() < sp.SeasonalLag+1 {
		return nil, fmt.Errorf("seed of length %d too short: need at least %d observations", seed.Len(), sp.SeasonalLag+1)
	}

	logged, err := Log1p(seed)
	if err != nil {
		return nil, err
	}

	m := sp.SeasonalLag
	w := logged.Values // grows as values are reconstructed
	// Last value of the seasonally differenced log seed anchors the regular
	// integration.
	prev := w[len(w)-1] - w[len(w)-1-m]

	out := make([]float64, len(diffed))
	for h, z := range diffed {
		u := z + prev
		x := u + w[len(w)-m]
		w = append(w, x)
		prev = u
		out[h] = math.Expm1(x)
	}
	return out, nil
}
