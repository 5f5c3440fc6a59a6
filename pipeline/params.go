package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params holds the adjustable constants of the analysis. Every stage
// receives these explicitly; there is no package-level configuration.
type Params struct {
	// HoldoutDays is the length of the trailing hold-out window used only
	// to measure forecast accuracy.
	HoldoutDays int `yaml:"holdout_days" json:"holdout_days"`

	// ForecastDays is the production forecast horizon beyond the last
	// observed date.
	ForecastDays int `yaml:"forecast_days" json:"forecast_days"`

	// SeasonalPeriod is the length of the repeating cycle (7 for weekly).
	SeasonalPeriod int `yaml:"seasonal_period" json:"seasonal_period"`

	// Confidence is the prediction interval confidence level.
	Confidence float64 `yaml:"confidence" json:"confidence"`

	// LjungBoxLags is the maximum lag of the residual whiteness test.
	LjungBoxLags int `yaml:"ljung_box_lags" json:"ljung_box_lags"`

	// SignificanceLevel is the whiteness-test rejection threshold: a
	// candidate whose Ljung-Box p-value falls below it is disqualified.
	SignificanceLevel float64 `yaml:"significance_level" json:"significance_level"`

	// AICCloseMargin is the AIC difference under which two candidates count
	// as a close call, broken by hold-out RMSE.
	AICCloseMargin float64 `yaml:"aic_close_margin" json:"aic_close_margin"`

	// MaxFitIterations is the optimizer budget per candidate fit.
	MaxFitIterations int `yaml:"max_fit_iterations" json:"max_fit_iterations"`
}

// DefaultParams returns the parameters used by the bakery analysis.
func DefaultParams() Params {
	return Params{
		HoldoutDays:       84,
		ForecastDays:      28,
		SeasonalPeriod:    7,
		Confidence:        0.95,
		LjungBoxLags:      14,
		SignificanceLevel: 0.05,
		AICCloseMargin:    2.0,
		MaxFitIterations:  2000,
	}
}

// LoadParams reads parameters from a YAML file, filling unset fields from
// the defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the parameters for internal consistency.
func (p Params) Validate() error {
	switch {
	case p.HoldoutDays <= 0:
		return fmt.Errorf("holdout_days must be positive, got %d", p.HoldoutDays)
	case p.ForecastDays <= 0:
		return fmt.Errorf("forecast_days must be positive, got %d", p.ForecastDays)
	case p.SeasonalPeriod <= 1:
		return fmt.Errorf("seasonal_period must be at least 2, got %d", p.SeasonalPeriod)
	case p.Confidence <= 0 || p.Confidence >= 1:
		return fmt.Errorf("confidence must be in (0,1), got %v", p.Confidence)
	case p.LjungBoxLags < 2*p.SeasonalPeriod:
		return fmt.Errorf("ljung_box_lags must cover two seasonal cycles (>= %d), got %d", 2*p.SeasonalPeriod, p.LjungBoxLags)
	case p.SignificanceLevel <= 0 || p.SignificanceLevel >= 1:
		return fmt.Errorf("significance_level must be in (0,1), got %v", p.SignificanceLevel)
	case p.AICCloseMargin < 0:
		return fmt.Errorf("aic_close_margin must be non-negative, got %v", p.AICCloseMargin)
	case p.MaxFitIterations <= 0:
		return fmt.Errorf("max_fit_iterations must be positive, got %d", p.MaxFitIterations)
	}
	return nil
}
