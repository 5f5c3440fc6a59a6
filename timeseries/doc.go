// Package timeseries provides the daily sales series type and data loading.
//
// The Series type pairs calendar dates with observed values and offers the
// operations the forecasting pipeline needs: summary statistics, regular and
// seasonal differencing, slicing, and train/hold-out splitting.
//
// # Loading sales data
//
// Load a daily sales CSV with date (month/day/year), sales, weekday columns:
//
//	series, err := timeseries.LoadSalesCSV("sales.csv", nil)
//
// Dates are re-sorted ascending regardless of input order; duplicate or
// unparseable dates surface as a ScheduleIntegrityError. The weekday column
// is advisory and recomputed from the date.
//
// # Transformations and splitting
//
//	diff := series.Diff()            // y[t] - y[t-1], length n-1
//	sdiff := series.SeasonalDiff(7)  // y[t] - y[t-7], length n-7
//	train, holdout, err := series.Split(84)
package timeseries
