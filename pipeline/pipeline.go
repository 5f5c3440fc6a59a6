package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/bakeforecast/sarima"
	"github.com/sartorproj/bakeforecast/stats"
	"github.com/sartorproj/bakeforecast/timeseries"
	"github.com/sartorproj/bakeforecast/transform"
)

// ForecastPoint is one forecast day on the original count scale.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Mean  float64   `json:"mean"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Forecast is an ordered sequence of forecast days covering the horizon
// immediately following the last observed date.
type Forecast []ForecastPoint

// CandidateResult records the evaluation of one hand-specified order.
type CandidateResult struct {
	Order      sarima.Order          `json:"order"`
	Converged  bool                  `json:"converged"`
	SkipReason string                `json:"skip_reason,omitempty"`
	LogLik     float64               `json:"log_lik,omitempty"`
	AIC        float64               `json:"aic,omitempty"`
	AICc       float64               `json:"aicc,omitempty"`
	BIC        float64               `json:"bic,omitempty"`
	LjungBox   *stats.LjungBoxResult `json:"ljung_box,omitempty"`
	White      bool                  `json:"white"`
	RMSE       float64               `json:"rmse,omitempty"`
	Selected   bool                  `json:"selected"`

	// Holdout is the candidate's forecast over the hold-out window on the
	// count scale, with interval bounds.
	Holdout Forecast `json:"holdout,omitempty"`
}

// Report is the complete output of one pipeline run.
type Report struct {
	Params     Params             `json:"params"`
	TrainLen   int                `json:"train_len"`
	HoldoutLen int                `json:"holdout_len"`
	ACF        *stats.Correlogram `json:"acf"`
	PACF       *stats.Correlogram `json:"pacf"`
	Candidates []CandidateResult  `json:"candidates"`
	Selected   sarima.Order       `json:"selected"`
	Final      *sarima.Summary    `json:"final"`
	Forecast   Forecast           `json:"forecast"`
}

// Run executes the full analysis over the loaded sales series with the
// caller's hand-specified candidate orders. Candidates are evaluated in the
// given order and results are reported in that same order, so repeated runs
// over the same inputs select the same model.
func Run(series *timeseries.Series, orders []sarima.Order, p Params) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, errors.New("no candidate orders supplied")
	}
	for _, o := range orders {
		if o.M != p.SeasonalPeriod {
			return nil, fmt.Errorf("candidate %s: seasonal period differs from pipeline period %d", o, p.SeasonalPeriod)
		}
	}

	train, holdout, err := series.Split(p.HoldoutDays)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Params:     p,
		TrainLen:   train.Len(),
		HoldoutLen: holdout.Len(),
	}

	// Order-selection diagnostics over the stationary working series. These
	// inform the human-chosen candidate set; they never pick an order.
	spec := transform.Spec{SeasonalLag: p.SeasonalPeriod}
	stationary, err := spec.Forward(train)
	if err != nil {
		return nil, fmt.Errorf("transform training series: %w", err)
	}
	maxLag := p.LjungBoxLags
	if maxLag < 2*p.SeasonalPeriod {
		maxLag = 2 * p.SeasonalPeriod
	}
	report.ACF = stats.ACFWithConfidence(stationary.Values, maxLag, p.Confidence)
	report.PACF = stats.PACFWithConfidence(stationary.Values, maxLag, p.Confidence)

	// Fitting works on the log scale; each candidate's own d and D apply the
	// differencing, so nothing is differenced twice.
	logTrain, err := transform.Log1p(train)
	if err != nil {
		return nil, fmt.Errorf("transform training series: %w", err)
	}

	report.Candidates = make([]CandidateResult, len(orders))
	for i, order := range orders {
		report.Candidates[i] = evaluate(order, logTrain, holdout, p)
	}

	selected, err := choose(report.Candidates, p.AICCloseMargin)
	if err != nil {
		return report, err
	}
	report.Candidates[selected].Selected = true
	report.Selected = report.Candidates[selected].Order

	// Deploy on everything: the final refit folds the hold-out window back
	// into the history before producing the production forecast.
	forecast, summary, err := forecastFull(series, report.Selected, p)
	if err != nil {
		return report, err
	}
	report.Final = summary
	report.Forecast = forecast

	return report, nil
}

// evaluate fits one candidate on the training window and measures it
// against the hold-out window.
func evaluate(order sarima.Order, logTrain, holdout *timeseries.Series, p Params) CandidateResult {
	result := CandidateResult{Order: order}

	model := sarima.New(order)
	model.MaxIter = p.MaxFitIterations
	if err := model.Fit(logTrain); err != nil {
		result.SkipReason = err.Error()
		return result
	}
	result.Converged = true
	result.LogLik = model.LogLik
	result.AIC = model.AIC
	result.AICc = model.AICc
	result.BIC = model.BIC

	result.LjungBox = stats.LjungBox(model.Residuals(), p.LjungBoxLags, order.FitDF())
	result.White = result.LjungBox.White(p.SignificanceLevel)

	logMean, logLower, logUpper, err := model.PredictWithInterval(holdout.Len(), p.Confidence)
	if err != nil {
		result.Converged = false
		result.SkipReason = err.Error()
		return result
	}

	predicted := transform.Expm1(logMean)
	lower := transform.Expm1(logLower)
	upper := transform.Expm1(logUpper)

	result.Holdout = make(Forecast, holdout.Len())
	for h := range result.Holdout {
		result.Holdout[h] = ForecastPoint{
			Date:  holdout.Dates[h],
			Mean:  predicted[h],
			Lower: lower[h],
			Upper: upper[h],
		}
	}

	diffNorm := floats.Distance(holdout.Values, predicted, 2)
	result.RMSE = diffNorm / math.Sqrt(float64(holdout.Len()))

	return result
}

// choose applies the selection policy: candidates that failed to converge or
// failed the whiteness gate are out regardless of AIC; among survivors the
// lowest AIC wins, with close calls (within the margin) broken by lower
// hold-out RMSE. Earliest candidate wins exact ties.
func choose(results []CandidateResult, margin float64) (int, error) {
	minAIC := math.Inf(1)
	for _, r := range results {
		if r.Converged && r.White && r.AIC < minAIC {
			minAIC = r.AIC
		}
	}
	if math.IsInf(minAIC, 1) {
		return -1, summarizeFailure(results)
	}

	best := -1
	for i, r := range results {
		if !r.Converged || !r.White || r.AIC > minAIC+margin {
			continue
		}
		if best == -1 || r.RMSE < results[best].RMSE {
			best = i
		}
	}
	return best, nil
}

func summarizeFailure(results []CandidateResult) error {
	msg := "no candidate survived selection:"
	for _, r := range results {
		switch {
		case !r.Converged:
			msg += fmt.Sprintf(" %s dropped (%s);", r.Order, r.SkipReason)
		case r.LjungBox == nil:
			msg += fmt.Sprintf(" %s rejected, whiteness test not computable;", r.Order)
		case !r.White:
			msg += fmt.Sprintf(" %s rejected by whiteness test (p=%.4f);", r.Order, r.LjungBox.PValue)
		}
	}
	return errors.New(msg)
}

// forecastFull refits the selected order on the complete series and projects
// the forecast horizon, back-transforming all three interval paths so the
// original-scale interval keeps its asymmetry.
func forecastFull(series *timeseries.Series, order sarima.Order, p Params) (Forecast, *sarima.Summary, error) {
	logFull, err := transform.Log1p(series)
	if err != nil {
		return nil, nil, fmt.Errorf("transform full series: %w", err)
	}

	model := sarima.New(order)
	model.MaxIter = p.MaxFitIterations
	if err := model.Fit(logFull); err != nil {
		return nil, nil, fmt.Errorf("final refit: %w", err)
	}

	logMean, logLower, logUpper, err := model.PredictWithInterval(p.ForecastDays, p.Confidence)
	if err != nil {
		return nil, nil, fmt.Errorf("final forecast: %w", err)
	}

	mean := transform.Expm1(logMean)
	lower := transform.Expm1(logLower)
	upper := transform.Expm1(logUpper)

	last := series.LastDate()
	forecast := make(Forecast, p.ForecastDays)
	for h := 0; h < p.ForecastDays; h++ {
		forecast[h] = ForecastPoint{
			Date:  last.AddDate(0, 0, h+1),
			Mean:  mean[h],
			Lower: lower[h],
			Upper: upper[h],
		}
	}

	return forecast, model.Summary(p.LjungBoxLags), nil
}

// WriteForecastCSV writes the forecast as date,mean,lowerNN,upperNN rows,
// with the bound columns named after the confidence level.
func (r *Report) WriteForecastCSV(w io.Writer) error {
	level := strconv.Itoa(int(math.Round(r.Params.Confidence * 100)))
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "mean", "lower" + level, "upper" + level}); err != nil {
		return err
	}
	for _, pt := range r.Forecast {
		row := []string{
			pt.Date.Format("2006-01-02"),
			strconv.FormatFloat(pt.Mean, 'f', 4, 64),
			strconv.FormatFloat(pt.Lower, 'f', 4, 64),
			strconv.FormatFloat(pt.Upper, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
