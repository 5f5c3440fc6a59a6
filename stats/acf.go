package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ACF calculates the sample autocorrelation function of the values.
// Returns ACF values for lags 0 to maxLag.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(values, nil)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the partial autocorrelation function using the
// Durbin-Levinson algorithm. Returns PACF values for lags 0 to maxLag.
func PACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(values, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}

		if den == 0 {
			pacf[k] = 0
			continue
		}

		phi[k][k] = num / den
		pacf[k] = phi[k][k]

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}

	return pacf
}

// Correlogram holds ACF or PACF values with their significance band.
type Correlogram struct {
	Lags            []int
	Values          []float64
	ConfBound       float64 // band half-width, z/sqrt(n)
	SignificantLags []int   // lags >= 1 whose |value| exceeds the band
}

// ACFWithConfidence calculates ACF with a significance band at the given
// confidence level (e.g. 0.95).
func ACFWithConfidence(values []float64, maxLag int, confidence float64) *Correlogram {
	return newCorrelogram(ACF(values, maxLag), len(values), confidence)
}

// PACFWithConfidence calculates PACF with a significance band.
func PACFWithConfidence(values []float64, maxLag int, confidence float64) *Correlogram {
	return newCorrelogram(PACF(values, maxLag), len(values), confidence)
}

func newCorrelogram(corr []float64, n int, confidence float64) *Correlogram {
	if corr == nil || n == 0 {
		return nil
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	lags := make([]int, len(corr))
	for i := range lags {
		lags[i] = i
	}

	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	bound := z / math.Sqrt(float64(n))

	return &Correlogram{
		Lags:            lags,
		Values:          corr,
		ConfBound:       bound,
		SignificantLags: SignificantLags(corr, bound),
	}
}

// SignificantLags returns the lags (skipping lag 0) where the correlation
// exceeds the significance band.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}
