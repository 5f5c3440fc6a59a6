// Package stats provides autocorrelation analysis and residual diagnostics.
//
// # Autocorrelation Functions
//
// Inspect the autocorrelation structure of a stationary working series to
// shortlist candidate model orders by hand:
//
//	acf := stats.ACFWithConfidence(series.Values, 14, 0.95)
//	pacf := stats.PACFWithConfidence(series.Values, 14, 0.95)
//	fmt.Println("significant ACF lags:", acf.SignificantLags)
//
// The significance band is z/sqrt(n) at the requested confidence level,
// with the normal quantile from gonum's distuv.
//
// # Residual Diagnostics
//
// Test fitted-model residuals for remaining autocorrelation:
//
//	lb := stats.LjungBox(model.Residuals(), 14, p+q+P+Q)
//	if lb.White(0.05) {
//	    // residuals indistinguishable from white noise
//	}
//
// Box-Pierce and Durbin-Watson variants are provided for comparison.
package stats
