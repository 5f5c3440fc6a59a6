package sarima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/bakeforecast/stats"
	"github.com/sartorproj/bakeforecast/timeseries"
)

// Order represents a SARIMA model order (p,d,q)(P,D,Q)[m]: non-seasonal
// autoregressive, differencing, and moving-average orders, their seasonal
// counterparts, and the seasonal period. Immutable once constructed.
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (7 for daily data with weekly seasonality)
}

// NumParams returns the number of estimated parameters: AR + MA coefficients
// (seasonal and not) plus the intercept. Differencing orders estimate nothing.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// FitDF returns the degrees-of-freedom adjustment for residual portmanteau
// tests: the AR+MA parameter count without the intercept.
func (o Order) FitDF() int {
	return o.P + o.Q + o.SP + o.SQ
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// InsufficientDataError reports a series too short to estimate the requested
// order. It is returned before any fitting is attempted.
type InsufficientDataError struct {
	Order Order
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("sarima %s: insufficient data: need at least %d observations, have %d", e.Order, e.Need, e.Have)
}

// NonConvergenceError reports that the optimizer exhausted its iteration
// budget without the objective stabilizing. The candidate is dropped from
// consideration; other candidates continue.
type NonConvergenceError struct {
	Order      Order
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("sarima %s: optimizer did not converge within %d iterations", e.Order, e.Iterations)
}

// Model represents a SARIMA model. Fields are read-only after Fit.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64

	// MaxIter is the optimizer iteration budget. Defaults to 2000.
	MaxIter int

	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates an unfitted SARIMA model with the specified order.
func New(order Order) *Model {
	return &Model{
		Order:     order,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
		MaxIter:   2000,
	}
}

// Fit estimates the model from the given series. The order's own d and D
// apply the differencing, so the caller passes the undifferenced (log-scale)
// series; pre-differencing it as well would silently double-difference.
func (m *Model) Fit(series *timeseries.Series) error {
	o := m.Order
	minLen := o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.M + 20
	if series.Len() < minLen {
		return &InsufficientDataError{Order: o, Need: minLen, Have: series.Len()}
	}

	m.data = series

	diffSeries := series
	for i := 0; i < o.D; i++ {
		diffSeries = diffSeries.Diff()
	}
	for i := 0; i < o.SD; i++ {
		diffSeries = diffSeries.SeasonalDiff(o.M)
	}
	if diffSeries.Len() < o.P+o.Q+(o.SP+o.SQ)*o.M+10 {
		return &InsufficientDataError{Order: o, Need: minLen, Have: series.Len()}
	}
	m.diffData = diffSeries

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()
	m.fitted = true
	return nil
}

// fitCSS initializes coefficients and runs the conditional sum of squares
// optimization.
func (m *Model) fitCSS() error {
	y := m.diffData.Values
	n := len(y)
	o := m.Order

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.Intercept = mean / float64(n)

	// Starting values from the sample autocorrelations: Yule-Walker for the
	// AR terms, the inverted MA(1) autocorrelation for the MA terms.
	need := 1
	if o.P > need {
		need = o.P
	}
	if l := o.SP * o.M; l > need {
		need = l
	}
	if o.SQ > 0 && o.M > need {
		need = o.M
	}
	acf := stats.ACF(y, need)
	if acf != nil {
		if o.P > 0 {
			if phi := yuleWalker(acf, o.P); phi != nil {
				for i, v := range phi {
					m.ARCoeffs[i] = clamp(v, -0.95, 0.95)
				}
			}
		}
		for i := 0; i < o.SP; i++ {
			idx := (i + 1) * o.M
			if idx < len(acf) {
				m.SARCoeffs[i] = acf[idx] * 0.5
			}
		}
		if o.Q > 0 {
			m.MACoeffs[0] = maInit(acf[1])
		}
		if o.SQ > 0 && o.M < len(acf) {
			m.SMACoeffs[0] = maInit(acf[o.M])
		}
	}

	return m.optimizeCSS(y)
}

// optimizeCSS minimizes the conditional sum of squares with Nelder-Mead.
// Residuals depend recursively on the MA coefficients, so a gradient taken
// with lagged residuals held fixed is biased and leaves the MA terms near
// their starting values; the derivative-free simplex search minimizes the
// exact objective instead. Fails with NonConvergenceError when the budget
// runs out before the objective stabilizes.
func (m *Model) optimizeCSS(y []float64) error {
	n := len(y)
	o := m.Order
	p, q, sp, sq := o.P, o.Q, o.SP, o.SQ
	dim := p + q + sp + sq

	startIdx := max(max(p, q), max(sp*o.M, sq*o.M))
	if startIdx >= n-10 {
		startIdx = 0
	}

	if dim > 0 {
		maxIter := m.MaxIter
		if maxIter <= 0 {
			maxIter = 2000
		}

		unpack := func(x []float64) {
			copy(m.ARCoeffs, x[:p])
			copy(m.MACoeffs, x[p:p+q])
			copy(m.SARCoeffs, x[p+q:p+q+sp])
			copy(m.SMACoeffs, x[p+q+sp:])
		}

		work := make([]float64, n)
		css := func(x []float64) float64 {
			// Outside the invertibility box the residual recursion explodes;
			// a growing penalty steers the simplex back in.
			excess := 0.0
			for _, v := range x {
				if a := math.Abs(v); a > 0.99 {
					excess += a - 0.99
				}
			}
			if excess > 0 {
				return 1e12 * (1 + excess)
			}

			unpack(x)
			for i := range work {
				work[i] = 0
			}
			sse := 0.0
			for t := startIdx; t < n; t++ {
				pred := m.predictOne(y, work, t, n)
				work[t] = y[t] - pred
				sse += work[t] * work[t]
			}
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return 1e12
			}
			return sse
		}

		x0 := make([]float64, 0, dim)
		x0 = append(x0, m.ARCoeffs...)
		x0 = append(x0, m.MACoeffs...)
		x0 = append(x0, m.SARCoeffs...)
		x0 = append(x0, m.SMACoeffs...)

		settings := &optimize.Settings{
			MajorIterations: maxIter,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Relative:   1e-8,
				Iterations: 30,
			},
		}
		result, err := optimize.Minimize(optimize.Problem{Func: css}, x0, settings, &optimize.NelderMead{})
		if err != nil {
			return &NonConvergenceError{Order: o, Iterations: maxIter}
		}
		if result.Status == optimize.IterationLimit || math.IsNaN(result.F) || result.F >= 1e12 {
			return &NonConvergenceError{Order: o, Iterations: maxIter}
		}
		unpack(result.X)
	}

	// Final one-step-ahead residuals and fitted values over the whole
	// differenced sample.
	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	for t := 0; t < n; t++ {
		pred := m.predictOne(y, m.residuals, t, n)
		m.fittedVals[t] = pred
		m.residuals[t] = y[t] - pred
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > o.NumParams() {
		m.Variance = sse / float64(count-o.NumParams())
	} else {
		m.Variance = sse / float64(count)
	}

	return nil
}

// predictOne computes the one-step prediction at index t given history y and
// residuals. Residual terms beyond index n (future) contribute nothing.
func (m *Model) predictOne(y, residuals []float64, t, n int) float64 {
	o := m.Order
	pred := m.Intercept

	for i := 0; i < o.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < o.SP; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Intercept)
		}
	}
	for i := 0; i < o.Q && t-i-1 >= 0; i++ {
		if t-i-1 < n {
			pred += m.MACoeffs[i] * residuals[t-i-1]
		}
	}
	for i := 0; i < o.SQ; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 && t-lag < n {
			pred += m.SMACoeffs[i] * residuals[t-lag]
		}
	}
	return pred
}

// calculateIC calculates the Gaussian log-likelihood and AIC, AICc, BIC.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	k := m.Order.NumParams()

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*float64(k)

	kf := float64(k)
	nf := float64(n)
	if nf-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}

	m.BIC = -2*m.LogLik + kf*math.Log(nf)
}

// Predict generates point forecasts for the specified number of steps ahead
// on the scale of the fitted series.
func (m *Model) Predict(steps int) ([]float64, error) {
	forecasts, _, _, err := m.PredictWithInterval(steps, 0.95)
	return forecasts, err
}

// PredictWithInterval generates forecasts with symmetric normal-approximation
// prediction intervals at the given confidence level, on the scale of the
// fitted series. Any nonlinear back-transformation applied afterwards makes
// the interval asymmetric; callers must transform all three paths rather
// than re-symmetrize.
func (m *Model) PredictWithInterval(steps int, confidence float64) (forecasts, lower, upper []float64, err error) {
	if !m.fitted {
		return nil, nil, nil, fmt.Errorf("sarima %s: model must be fitted before prediction", m.Order)
	}
	if steps < 1 {
		return nil, nil, nil, fmt.Errorf("sarima %s: steps must be at least 1, got %d", m.Order, steps)
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	o := m.Order
	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.predictOne(extY, extResiduals, t, n)
		extY[t] = pred
		extResiduals[t] = 0
	}

	forecasts = make([]float64, steps)
	copy(forecasts, extY[n:])
	forecasts = m.integrate(forecasts)

	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)

	for h := 0; h < steps; h++ {
		se := math.Sqrt(m.Variance)

		// Forecast variance grows with horizon for integrated series.
		if o.D > 0 {
			se *= math.Sqrt(float64(h + 1))
		}
		if o.SD > 0 && o.M > 0 {
			se *= math.Sqrt(float64(h/o.M + 1))
		}

		lower[h] = forecasts[h] - z*se
		upper[h] = forecasts[h] + z*se
	}

	return forecasts, lower, upper, nil
}

// integrate undoes the differencing applied by Fit to return forecasts on
// the fitted series' scale. Fit differences regular-first then seasonal;
// integration undoes seasonal first, then regular.
func (m *Model) integrate(forecasts []float64) []float64 {
	o := m.Order
	original := m.data.Values
	n := len(original)

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	// Regular-differenced history, needed to seed the seasonal integration.
	regDiff := original
	for i := 0; i < o.D; i++ {
		next := make([]float64, len(regDiff)-1)
		for j := 1; j < len(regDiff); j++ {
			next[j-1] = regDiff[j] - regDiff[j-1]
		}
		regDiff = next
	}

	if o.SD > 0 && o.M > 0 {
		nDiff := len(regDiff)
		for i := 0; i < o.SD; i++ {
			for j := 0; j < len(result); j++ {
				if j < o.M {
					idx := nDiff - o.M + j
					if idx >= 0 && idx < nDiff {
						result[j] += regDiff[idx]
					}
				} else {
					result[j] += result[j-o.M]
				}
			}
		}
	}

	for i := 0; i < o.D; i++ {
		lastVal := original[n-1]
		for j := 0; j < len(result); j++ {
			if j == 0 {
				result[j] += lastVal
			} else {
				result[j] += result[j-1]
			}
		}
	}

	return result
}

// Residuals returns a copy of the one-step-ahead residuals on the
// differenced scale, one per training observation after differencing.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns a copy of the in-sample fitted values on the
// differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model for reporting.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model, including a Ljung-Box test
// of its residuals at the given maximum lag.
func (m *Model) Summary(ljungBoxLags int) *Summary {
	if !m.fitted {
		return nil
	}

	lb := stats.LjungBox(m.residuals, ljungBoxLags, m.Order.FitDF())

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  m.ARCoeffs,
		MACoeffs:  m.MACoeffs,
		SARCoeffs: m.SARCoeffs,
		SMACoeffs: m.SMACoeffs,
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.data.Len(),
		LjungBox:  lb,
	}
}

// yuleWalker solves the Yule-Walker equations R*phi = r for initial AR
// coefficient estimates, with R the Toeplitz autocorrelation matrix.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	data := make([]float64, order*order)
	for i := 0; i < order; i++ {
		for j := 0; j < order; j++ {
			lag := i - j
			if lag < 0 {
				lag = -lag
			}
			data[i*order+j] = acf[lag]
		}
	}
	R := mat.NewDense(order, order, data)
	r := mat.NewVecDense(order, acf[1:order+1])

	var phi mat.VecDense
	if err := phi.SolveVec(R, r); err != nil {
		return nil
	}

	out := make([]float64, order)
	for i := range out {
		out[i] = phi.AtVec(i)
	}
	return out
}

// maInit inverts the MA(1) autocorrelation rho = theta/(1+theta^2) for an
// invertible starting value. |rho| > 0.5 has no MA(1) solution; the starting
// value saturates toward the matching boundary.
func maInit(rho float64) float64 {
	if math.Abs(rho) < 1e-8 {
		return 0
	}
	disc := 1 - 4*rho*rho
	if disc <= 0 {
		return math.Copysign(0.9, rho)
	}
	return clamp((1-math.Sqrt(disc))/(2*rho), -0.95, 0.95)
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
