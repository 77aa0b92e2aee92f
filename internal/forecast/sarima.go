package forecast

import (
	"context"
	"fmt"
	"math"
)

// sarimaModel is a multiplicative seasonal ARIMA fit by conditional sum of
// squares on the differenced series, with zero pre-sample values.
type sarimaModel struct {
	order    Order
	seasonal SeasonalOrder
}

func (m sarimaModel) paramCount() int {
	return m.order.P + m.order.Q + m.seasonal.P + m.seasonal.Q
}

// polynomials expands phi(B)Phi(B^s) and theta(B)Theta(B^s) from the packed
// parameter vector. ar[k] multiplies w[t-k]; ma[k] multiplies e[t-k].
func (m sarimaModel) polynomials(x []float64) (ar, ma []float64) {
	i := 0
	take := func(n int) []float64 {
		out := make([]float64, n)
		for j := range out {
			// tanh keeps every coefficient inside (-1, 1)
			out[j] = math.Tanh(x[i])
			i++
		}
		return out
	}
	phi := take(m.order.P)
	theta := take(m.order.Q)
	sPhi := take(m.seasonal.P)
	sTheta := take(m.seasonal.Q)

	// (1 - sum phi B^k)(1 - sum Phi B^{ks}) = 1 - sum ar B^k
	arPoly := polyMul(lagPoly(phi, 1, -1), lagPoly(sPhi, m.seasonal.S, -1))
	ar = make([]float64, len(arPoly))
	for k := 1; k < len(arPoly); k++ {
		ar[k] = -arPoly[k]
	}
	// (1 + sum theta B^k)(1 + sum Theta B^{ks}) = 1 + sum ma B^k
	maPoly := polyMul(lagPoly(theta, 1, 1), lagPoly(sTheta, m.seasonal.S, 1))
	ma = make([]float64, len(maPoly))
	copy(ma[1:], maPoly[1:])
	return ar, ma
}

// residuals returns the one-step errors of w under the given polynomials.
func residuals(w, ar, ma []float64) []float64 {
	e := make([]float64, len(w))
	for t := range w {
		pred := 0.0
		for k := 1; k < len(ar) && k <= t; k++ {
			pred += ar[k] * w[t-k]
		}
		for k := 1; k < len(ma) && k <= t; k++ {
			pred += ma[k] * e[t-k]
		}
		e[t] = w[t] - pred
	}
	return e
}

func (m sarimaModel) forecast(ctx context.Context, series []float64, horizon int, opts FitOptions) ([]float64, error) {
	// difference: regular first, then seasonal
	type stage struct {
		history []float64
		lag     int
	}
	var stages []stage
	w := append([]float64(nil), series...)
	for i := 0; i < m.order.D; i++ {
		stages = append(stages, stage{history: w, lag: 1})
		w = difference(w, 1)
	}
	for i := 0; i < m.seasonal.D; i++ {
		stages = append(stages, stage{history: w, lag: m.seasonal.S})
		w = difference(w, m.seasonal.S)
	}
	if len(w) < m.paramCount()+2 {
		return nil, fmt.Errorf("%w: %d differenced observations for %d parameters", ErrInsufficientData, len(w), m.paramCount())
	}

	var ar, ma []float64
	if m.paramCount() == 0 {
		ar, ma = []float64{0}, []float64{0}
	} else {
		x0 := make([]float64, m.paramCount())
		for i := range x0 {
			x0[i] = math.Atanh(0.1)
		}
		x, _, err := minimize(ctx, func(x []float64) float64 {
			a, b := m.polynomials(x)
			sse := 0.0
			for _, r := range residuals(w, a, b) {
				sse += r * r
			}
			return sse
		}, x0, opts)
		if err != nil {
			return nil, err
		}
		ar, ma = m.polynomials(x)
	}

	e := residuals(w, ar, ma)
	n := len(w)
	ext := append(w, make([]float64, horizon)...)
	errs := append(e, make([]float64, horizon)...)
	for t := n; t < n+horizon; t++ {
		pred := 0.0
		for k := 1; k < len(ar) && k <= t; k++ {
			pred += ar[k] * ext[t-k]
		}
		for k := 1; k < len(ma) && k <= t; k++ {
			pred += ma[k] * errs[t-k]
		}
		ext[t] = pred
	}
	out := ext[n:]

	// integrate back through the differencing stages
	for i := len(stages) - 1; i >= 0; i-- {
		out = undifference(stages[i].history, out, stages[i].lag)
	}
	if !allFinite(out) {
		return nil, ErrNonFinite
	}
	return out, nil
}

// sarima fits the configured orders. Series shorter than the minimum
// observation count are rejected so the chain moves on to Holt-Winters.
func sarima(ctx context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	if minObs := p.SARIMAMinObservations(); len(series) < minObs {
		return nil, fmt.Errorf("%w: sarima needs %d observations, got %d", ErrInsufficientData, minObs, len(series))
	}
	m := sarimaModel{order: p.Order, seasonal: p.SeasonalOrder}
	return m.forecast(ctx, series, horizon, p.Fit)
}

// lagPoly builds 1 + sign*sum c_j B^{j*lag}.
func lagPoly(coef []float64, lag int, sign float64) []float64 {
	out := make([]float64, len(coef)*lag+1)
	out[0] = 1
	for j, c := range coef {
		out[(j+1)*lag] = sign * c
	}
	return out
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func difference(x []float64, lag int) []float64 {
	if len(x) <= lag {
		return nil
	}
	out := make([]float64, len(x)-lag)
	for t := lag; t < len(x); t++ {
		out[t-lag] = x[t] - x[t-lag]
	}
	return out
}

// undifference extends history with the integrated forecast of its lag
// difference.
func undifference(history, diffForecast []float64, lag int) []float64 {
	n := len(history)
	out := make([]float64, len(diffForecast))
	at := func(i int) float64 {
		if i < n {
			return history[i]
		}
		return out[i-n]
	}
	for i, d := range diffForecast {
		out[i] = d + at(n+i-lag)
	}
	return out
}
