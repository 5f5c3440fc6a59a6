package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/bakeforecast/timeseries"
)

// bakeryLike builds a daily series with a weekly pattern and mild trend,
// resembling the sales data the pipeline sees.
func bakeryLike(n int) *timeseries.Series {
	weekly := []float64{25, 21, 19, 24, 33, 55, 70}
	values := make([]float64, n)
	for i := range values {
		values[i] = weekly[i%7] + 0.01*float64(i) + float64(i%3)
	}
	return timeseries.New(values)
}

func TestForwardLength(t *testing.T) {
	n := 60
	s := bakeryLike(n)

	out, err := Spec{SeasonalLag: 7}.Forward(s)
	require.NoError(t, err)
	assert.Equal(t, n-8, out.Len(), "log1p + sdiff(7) + diff(1) drops 8 observations")
	assert.True(t, out.Dates[0].Equal(s.Dates[8]))
}

func TestRoundTrip(t *testing.T) {
	s := bakeryLike(90)
	spec := Spec{SeasonalLag: 7}

	diffed, err := spec.Forward(s)
	require.NoError(t, err)

	seed := s.Slice(0, 8)
	restored, err := spec.Reintegrate(seed, diffed.Values)
	require.NoError(t, err)
	require.Len(t, restored, s.Len()-8)

	for i, got := range restored {
		want := s.Values[i+8]
		assert.InEpsilonf(t, want, got, 1e-9, "index %d: want %v got %v", i, want, got)
	}
}

func TestRoundTripWithZeroCounts(t *testing.T) {
	// Closed days are explicit zeros; log1p must handle them.
	values := []float64{0, 21, 19, 24, 33, 55, 70, 0, 22, 18, 25, 31, 54, 72, 0, 20}
	s := timeseries.New(values)
	spec := Spec{SeasonalLag: 7}

	diffed, err := spec.Forward(s)
	require.NoError(t, err)

	restored, err := spec.Reintegrate(s.Slice(0, 8), diffed.Values)
	require.NoError(t, err)
	for i, got := range restored {
		assert.InDeltaf(t, s.Values[i+8], got, 1e-9, "index %d", i)
	}
}

func TestLog1pDomainError(t *testing.T) {
	s := timeseries.New([]float64{5, 3, -1, 4})

	_, err := Log1p(s)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Index)
	assert.Equal(t, -1.0, de.Value)
}

func TestForwardDomainError(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	values[13] = -4
	s := timeseries.New(values)

	_, err := Spec{SeasonalLag: 7}.Forward(s)
	var de *DomainError
	require.ErrorAs(t, err, &de)
}

func TestForwardTooShort(t *testing.T) {
	s := timeseries.New([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	_, err := Spec{SeasonalLag: 7}.Forward(s)
	require.Error(t, err)
}

func TestReintegrateSeedTooShort(t *testing.T) {
	s := timeseries.New([]float64{1, 2, 3, 4, 5, 6, 7})
	_, err := Spec{SeasonalLag: 7}.Reintegrate(s, []float64{0.1})
	require.Error(t, err)
}

func TestExpm1InvertsLog1p(t *testing.T) {
	s := timeseries.New([]float64{0, 1, 36, 70.5})
	logged, err := Log1p(s)
	require.NoError(t, err)

	back := Expm1(logged.Values)
	for i, v := range back {
		assert.InDelta(t, s.Values[i], v, 1e-12)
	}
	assert.Equal(t, 0.0, math.Round(back[0]))
}
