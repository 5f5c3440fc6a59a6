package timeseries

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SalesRecord is one observed day of sales.
// Weekday is advisory and always recomputed from Date on load.
type SalesRecord struct {
	Date    time.Time
	Count   int
	Weekday time.Weekday
}

// ScheduleIntegrityError reports duplicate or otherwise invalid dates in
// loaded sales data. The pipeline does not proceed past it.
type ScheduleIntegrityError struct {
	Date   time.Time
	Reason string
}

func (e *ScheduleIntegrityError) Error() string {
	return fmt.Sprintf("schedule integrity: %s at %s", e.Reason, e.Date.Format("2006-01-02"))
}

// Series represents a daily time series with one value per calendar date.
// Dates are strictly increasing with no duplicates; gaps are permitted and
// treated as absent observations.
type Series struct {
	Dates  []time.Time
	Values []float64
	Name   string
}

// New creates a series with synthetic consecutive daily dates, for tests and
// ad-hoc analysis where real dates do not matter.
func New(values []float64) *Series {
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, len(values))
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	return &Series{Dates: dates, Values: values}
}

// NewWithDates creates a series with explicit dates.
func NewWithDates(dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("dates and values must have the same length: %d vs %d", len(dates), len(values))
	}
	return &Series{Dates: dates, Values: values}, nil
}

// FromRecords builds a series from sales records, sorting by date ascending.
// Duplicate dates are an error, never silently de-duplicated.
func FromRecords(records []SalesRecord) (*Series, error) {
	sorted := make([]SalesRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, len(sorted))
	values := make([]float64, len(sorted))
	for i, r := range sorted {
		if i > 0 && !sorted[i-1].Date.Before(r.Date) {
			return nil, &ScheduleIntegrityError{Date: r.Date, Reason: "duplicate date"}
		}
		dates[i] = r.Date
		values[i] = float64(r.Count)
	}

	return &Series{Dates: dates, Values: values, Name: "sales"}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// LastDate returns the date of the final observation.
func (s *Series) LastDate() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.StdDev(s.Values, nil)
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return floats.Max(s.Values)
}

// Diff calculates the first regular difference y[t] - y[t-1].
// The result has length n-1 and keeps the dates of the later observations.
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// SeasonalDiff calculates the seasonal difference y[t] - y[t-m].
// The result has length n-m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m, "_seasonal_diff")
}

func (s *Series) lagDiff(lag int, suffix string) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return &Series{Name: s.Name + suffix}
	}

	values := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		values[i-lag] = s.Values[i] - s.Values[i-lag]
	}

	dates := make([]time.Time, len(values))
	copy(dates, s.Dates[lag:])

	return &Series{Dates: dates, Values: values, Name: s.Name + suffix}
}

// Slice returns a copy of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])
	dates := make([]time.Time, end-start)
	copy(dates, s.Dates[start:end])

	return &Series{Dates: dates, Values: values, Name: s.Name}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, len(s.Values))
}

// Split partitions the series into a training prefix and a trailing hold-out
// window of the given length. The two windows are disjoint and cover the
// whole series.
func (s *Series) Split(holdout int) (train, test *Series, err error) {
	if holdout <= 0 {
		return nil, nil, fmt.Errorf("hold-out length must be positive, got %d", holdout)
	}
	if holdout >= s.Len() {
		return nil, nil, fmt.Errorf("hold-out length %d leaves no training data for series of length %d", holdout, s.Len())
	}
	cut := s.Len() - holdout
	return s.Slice(0, cut), s.Slice(cut, s.Len()), nil
}
