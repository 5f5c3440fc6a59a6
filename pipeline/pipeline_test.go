package pipeline

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/bakeforecast/sarima"
	"github.com/sartorproj/bakeforecast/timeseries"
)

// noisySales generates positive daily counts fluctuating around a flat mean,
// with no seasonal structure.
func noisySales(n int, seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Max(1, math.Round(37+rng.NormFloat64()*4))
	}
	return timeseries.New(values)
}

// bakerySales generates daily counts with weekend peaks, midweek troughs, a
// mild trend, and seeded noise, averaging around 37 a day.
func bakerySales(n int, seed int64) *timeseries.Series {
	weekly := []float64{33, 25, 19, 22, 30, 56, 68}
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		v := weekly[i%7] + 0.005*float64(i) + rng.NormFloat64()*1.5
		values[i] = math.Max(0, math.Round(v))
	}
	return timeseries.New(values)
}

// seasonalSales generates daily counts with a hard weekly cycle.
func seasonalSales(n int) *timeseries.Series {
	weekly := []float64{33, 25, 19, 22, 30, 56, 68}
	values := make([]float64, n)
	for i := range values {
		values[i] = weekly[i%7]
	}
	return timeseries.New(values)
}

func testParams() Params {
	p := DefaultParams()
	p.ForecastDays = 14
	p.SignificanceLevel = 0.01
	return p
}

func TestRunSelectsAndForecasts(t *testing.T) {
	series := noisySales(400, 42)
	orders := []sarima.Order{
		{P: 1, D: 0, Q: 0, M: 7},
		{P: 0, D: 0, Q: 1, M: 7},
	}
	p := testParams()

	report, err := Run(series, orders, p)
	require.NoError(t, err)

	assert.Equal(t, 400-p.HoldoutDays, report.TrainLen)
	assert.Equal(t, p.HoldoutDays, report.HoldoutLen)
	require.Len(t, report.Candidates, 2)

	selectedCount := 0
	for i, c := range report.Candidates {
		assert.Equal(t, orders[i], c.Order, "candidates must be reported in input order")
		require.True(t, c.Converged, "candidate %s should converge on well-behaved data", c.Order)
		assert.False(t, math.IsNaN(c.AIC), "candidate %s AIC", c.Order)
		assert.Greater(t, c.RMSE, 0.0)
		require.Len(t, c.Holdout, p.HoldoutDays)
		assert.Equal(t, series.Dates[report.TrainLen], c.Holdout[0].Date, "hold-out forecast starts where training ends")
		if c.Selected {
			selectedCount++
			assert.Equal(t, report.Selected, c.Order)
		}
	}
	assert.Equal(t, 1, selectedCount, "exactly one candidate is selected")

	require.NotNil(t, report.Final)
	assert.Equal(t, report.Selected, report.Final.Order)
	assert.Equal(t, 400, report.Final.NObs, "final refit covers the full series")

	require.Len(t, report.Forecast, p.ForecastDays)
	last := series.LastDate()
	for h, pt := range report.Forecast {
		assert.Equal(t, last.AddDate(0, 0, h+1), pt.Date, "forecast dates continue the observed calendar")
		assert.LessOrEqual(t, pt.Lower, pt.Mean, "step %d", h)
		assert.LessOrEqual(t, pt.Mean, pt.Upper, "step %d", h)
		assert.Greater(t, pt.Mean, 25.0, "forecast should stay near the observed level")
		assert.Less(t, pt.Mean, 50.0, "forecast should stay near the observed level")
	}

	require.NotNil(t, report.ACF)
	require.NotNil(t, report.PACF)
	assert.GreaterOrEqual(t, len(report.ACF.Lags), 2*p.SeasonalPeriod)
}

func TestRunBakeryDefaults(t *testing.T) {
	// 680 days of weekly-patterned sales with the default parameters and the
	// doubly-integrated candidate orders. The MA terms must absorb the
	// differencing-induced autocorrelation so a candidate survives the
	// whiteness gate, and the forecast must hold the observed level.
	series := bakerySales(680, 17)
	orders := []sarima.Order{
		{P: 0, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: 7},
		{P: 1, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: 7},
	}

	report, err := Run(series, orders, DefaultParams())
	require.NoError(t, err)

	var selected *CandidateResult
	for i := range report.Candidates {
		c := &report.Candidates[i]
		require.True(t, c.Converged, "candidate %s should converge: %s", c.Order, c.SkipReason)
		if c.Selected {
			selected = c
		}
	}
	require.NotNil(t, selected)
	assert.True(t, selected.White, "selected model must pass the whiteness gate (p=%v)", selected.LjungBox)
	assert.Less(t, selected.RMSE, 10.0, "hold-out RMSE should stay single-digit")
	require.Len(t, selected.Holdout, report.HoldoutLen)
	for h, pt := range selected.Holdout {
		assert.LessOrEqual(t, pt.Lower, pt.Mean, "hold-out step %d", h)
		assert.LessOrEqual(t, pt.Mean, pt.Upper, "hold-out step %d", h)
	}

	require.Len(t, report.Forecast, DefaultParams().ForecastDays)
	recent := series.Slice(series.Len()-28, series.Len()).Mean()
	sum := 0.0
	for _, pt := range report.Forecast {
		assert.LessOrEqual(t, pt.Lower, pt.Mean)
		assert.LessOrEqual(t, pt.Mean, pt.Upper)
		sum += pt.Mean
	}
	avg := sum / float64(len(report.Forecast))
	assert.InDelta(t, recent, avg, 0.15*recent, "forecast level should track the recent weekly average")
}

func TestRunDeterministic(t *testing.T) {
	series := noisySales(400, 7)
	orders := []sarima.Order{
		{P: 1, D: 0, Q: 0, M: 7},
		{P: 0, D: 0, Q: 1, M: 7},
	}
	p := testParams()

	first, err := Run(series, orders, p)
	require.NoError(t, err)
	second, err := Run(series, orders, p)
	require.NoError(t, err)

	assert.Equal(t, first.Selected, second.Selected)
	require.Len(t, second.Forecast, len(first.Forecast))
	for h := range first.Forecast {
		assert.Equal(t, first.Forecast[h].Mean, second.Forecast[h].Mean, "step %d", h)
	}
}

func TestRunNoSurvivors(t *testing.T) {
	// A mean-only model on hard weekly data leaves the whole cycle in the
	// residuals, so the whiteness gate disqualifies it.
	series := seasonalSales(400)
	orders := []sarima.Order{{M: 7}}
	p := testParams()

	report, err := Run(series, orders, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whiteness")
	require.NotNil(t, report, "diagnostics survive a failed selection")
	require.Len(t, report.Candidates, 1)
	assert.True(t, report.Candidates[0].Converged)
	assert.False(t, report.Candidates[0].White)
}

func TestRunRejectsMismatchedPeriod(t *testing.T) {
	series := noisySales(400, 1)
	orders := []sarima.Order{{P: 1, M: 12}}

	_, err := Run(series, orders, testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seasonal period")
}

func TestRunRejectsEmptyCandidates(t *testing.T) {
	_, err := Run(noisySales(400, 1), nil, testParams())
	require.Error(t, err)
}

func TestChoose(t *testing.T) {
	mk := func(aic, rmse float64, converged, whiteOK bool) CandidateResult {
		return CandidateResult{Converged: converged, White: whiteOK, AIC: aic, RMSE: rmse}
	}

	t.Run("lowest AIC wins outside the margin", func(t *testing.T) {
		idx, err := choose([]CandidateResult{
			mk(100, 1.0, true, true),
			mk(110, 0.5, true, true),
		}, 2.0)
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("close call broken by hold-out RMSE", func(t *testing.T) {
		idx, err := choose([]CandidateResult{
			mk(100.0, 1.0, true, true),
			mk(101.5, 0.5, true, true),
		}, 2.0)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	})

	t.Run("gate excludes the lowest AIC", func(t *testing.T) {
		idx, err := choose([]CandidateResult{
			mk(90, 0.1, true, false),
			mk(95, 0.2, false, true),
			mk(100, 1.0, true, true),
		}, 2.0)
		require.NoError(t, err)
		assert.Equal(t, 2, idx)
	})

	t.Run("exact tie goes to the earliest candidate", func(t *testing.T) {
		idx, err := choose([]CandidateResult{
			mk(100, 0.5, true, true),
			mk(100, 0.5, true, true),
		}, 2.0)
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("no survivors is an error", func(t *testing.T) {
		_, err := choose([]CandidateResult{
			mk(90, 0.1, true, false),
			mk(95, 0.2, false, true),
		}, 2.0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no candidate survived")
	})
}

func TestWriteForecastCSV(t *testing.T) {
	report := &Report{
		Params: Params{Confidence: 0.95},
		Forecast: Forecast{
			{Date: timeseries.New([]float64{1}).LastDate(), Mean: 37.5, Lower: 30.1, Upper: 45.9},
		},
	}

	var sb strings.Builder
	require.NoError(t, report.WriteForecastCSV(&sb))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,mean,lower95,upper95", lines[0])
	assert.Equal(t, "2000-01-01,37.5000,30.1000,45.9000", lines[1])
}
