// Package bakeforecast provides a batch forecasting pipeline for daily
// bakery sales using seasonal ARIMA (SARIMA) models.
//
// The pipeline ingests a daily sales CSV, stabilizes variance with a log1p
// transform, inspects autocorrelation structure to support hand-specified
// candidate orders, fits each candidate by conditional sum of squares,
// gates candidates on a Ljung-Box residual whiteness test, selects the best
// survivor by AIC with hold-out RMSE as a tie-breaker, and refits on the
// full history to produce a fixed-horizon forecast with asymmetric
// prediction intervals on the original count scale.
//
// # Quick Start
//
//	series, _ := timeseries.LoadSalesCSV("sales.csv", nil)
//	orders := []sarima.Order{
//	    {P: 0, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: 7},
//	    {P: 1, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: 7},
//	}
//	report, _ := pipeline.Run(series, orders, pipeline.DefaultParams())
//	for _, pt := range report.Forecast {
//	    fmt.Println(pt.Date.Format("2006-01-02"), pt.Mean, pt.Lower, pt.Upper)
//	}
//
// # Packages
//
// The module is organized into the following packages:
//
//   - timeseries: daily sales series, CSV loading, train/hold-out splitting
//   - transform: log1p variance stabilization and differencing with exact inverse
//   - stats: ACF/PACF with significance bands, Ljung-Box residual diagnostics
//   - sarima: seasonal ARIMA fitting, information criteria, interval forecasts
//   - pipeline: end-to-end candidate evaluation, selection, and forecasting
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package bakeforecast
