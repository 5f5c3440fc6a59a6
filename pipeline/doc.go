// Package pipeline runs the end-to-end bakery sales analysis.
//
// The flow is strictly linear: split the loaded series into a training
// prefix and a trailing hold-out window, expose ACF/PACF diagnostics of the
// stationary working series for human order selection, fit each
// hand-specified candidate order on the log-scale training series, gate
// candidates on a Ljung-Box residual whiteness test, select the best
// survivor by AIC with hold-out RMSE breaking close calls, then refit on
// the complete history and project the production forecast with asymmetric
// intervals on the count scale.
//
//	params := pipeline.DefaultParams()
//	orders := []sarima.Order{
//	    {P: 0, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: params.SeasonalPeriod},
//	    {P: 1, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: params.SeasonalPeriod},
//	}
//	report, err := pipeline.Run(series, orders, params)
//
// A candidate that fails to converge is dropped and the rest continue; the
// run fails only when no candidate both converges and passes the whiteness
// gate. Candidate evaluation has no shared mutable state and results are
// reported in the caller's candidate order, so selection is deterministic.
package pipeline
