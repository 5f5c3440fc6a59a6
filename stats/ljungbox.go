package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// White reports whether the residuals are indistinguishable from white noise
// at the given significance threshold (typically 0.05).
func (r *LjungBoxResult) White(threshold float64) bool {
	return r != nil && r.PValue >= threshold
}

// LjungBox performs the Ljung-Box portmanteau test for autocorrelation in
// residuals. The null hypothesis is no autocorrelation up to the given lag;
// a p-value below the significance threshold rejects the model as
// inadequate. fitdf is the number of AR+MA parameters estimated, not
// counting differencing orders.
func LjungBox(residuals []float64, lags, fitdf int) *LjungBoxResult {
	n := len(residuals)
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(residuals, lags)
	if acf == nil {
		return nil
	}

	// Q = n(n+2) sum_{k=1..h} rho(k)^2 / (n-k)
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	pValue := chi.Survival(q)

	return &LjungBoxResult{
		Statistic: q,
		PValue:    pValue,
		Lags:      lags,
		DOF:       dof,
	}
}

// BoxPierceResult represents the result of a Box-Pierce test.
type BoxPierceResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// BoxPierce performs the Box-Pierce test, a simpler but less powerful
// variant of Ljung-Box.
func BoxPierce(residuals []float64, lags, fitdf int) *BoxPierceResult {
	n := len(residuals)
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(residuals, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k]
	}
	q *= float64(n)

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}

	return &BoxPierceResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. Values near 2 indicate no autocorrelation; below 2,
// positive autocorrelation; above 2, negative.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}

	numerator := 0.0
	for i := 1; i < n; i++ {
		diff := residuals[i] - residuals[i-1]
		numerator += diff * diff
	}

	denominator := 0.0
	for _, r := range residuals {
		denominator += r * r
	}
	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}
