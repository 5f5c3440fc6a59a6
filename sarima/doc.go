// Package sarima implements seasonal ARIMA (SARIMA) models.
//
// A model is specified by its order (p,d,q)(P,D,Q)[m] and fitted by
// minimizing the conditional sum of squares with Nelder-Mead. The order's
// own d and D apply the differencing internally, so callers pass the
// undifferenced series.
//
// # Fitting
//
//	order := sarima.Order{P: 1, D: 1, Q: 1, SP: 0, SD: 1, SQ: 1, M: 7}
//	model := sarima.New(order)
//	if err := model.Fit(series); err != nil {
//	    var nc *sarima.NonConvergenceError
//	    if errors.As(err, &nc) {
//	        // drop this candidate, keep evaluating the rest
//	    }
//	}
//
// Fit fails fast with InsufficientDataError when the series is too short
// for the requested order, and with NonConvergenceError when the optimizer
// exhausts its budget. A fitted model exposes its log-likelihood,
// information criteria (AIC, AICc, BIC), and one-step-ahead residuals for
// diagnostic testing.
//
// # Forecasting
//
//	point, lower, upper, err := model.PredictWithInterval(28, 0.95)
//
// Intervals are symmetric normal-approximation bounds on the fitted scale;
// back-transforming through a nonlinear function makes them asymmetric, so
// transform all three paths rather than re-symmetrizing.
package sarima
