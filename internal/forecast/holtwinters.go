package forecast

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// hwShape is the resolved structure of one Holt-Winters fit.
type hwShape struct {
	trend    Component
	seasonal Component
	period   int
}

// resolve applies the data-dependent rules: fewer than two full seasons drops
// seasonality, and any non-positive value forces multiplicative parts to
// additive.
func resolveHW(series []float64, trend, seasonal Component, period int) hwShape {
	shape := hwShape{trend: trend, seasonal: seasonal, period: period}
	if period < 2 || len(series) < 2*period {
		shape.seasonal = ComponentNone
	}
	for _, v := range series {
		if v <= 0 {
			if shape.trend == Multiplicative {
				shape.trend = Additive
			}
			if shape.seasonal == Multiplicative {
				shape.seasonal = Additive
			}
			break
		}
	}
	return shape
}

func (s hwShape) minLength() int {
	switch {
	case s.seasonal != ComponentNone:
		return 2 * s.period
	case s.trend != ComponentNone:
		return 2
	}
	return 1
}

// hwState is the smoothing state after a pass over the data.
type hwState struct {
	level  float64
	trend  float64
	season []float64 // ring indexed by t mod period
	start  int       // first index the recursion consumes
}

func (s hwShape) initial(series []float64) hwState {
	st := hwState{}
	if s.seasonal != ComponentNone {
		m := s.period
		first := stat.Mean(series[:m], nil)
		second := stat.Mean(series[m:2*m], nil)
		switch s.trend {
		case Additive:
			st.trend = (second - first) / float64(m)
		case Multiplicative:
			st.trend = math.Pow(second/first, 1/float64(m))
		}
		// level sits one step before the first observation
		st.level = first
		switch s.trend {
		case Additive:
			st.level = first - st.trend*float64(m+1)/2
		case Multiplicative:
			st.level = first / math.Pow(st.trend, float64(m+1)/2)
		}
		st.season = make([]float64, m)
		for i := 0; i < m; i++ {
			if s.seasonal == Multiplicative {
				st.season[i] = series[i] / first
			} else {
				st.season[i] = series[i] - first
			}
		}
		return st
	}

	st.level = series[0]
	st.start = 1
	switch s.trend {
	case Additive:
		st.trend = series[1] - series[0]
	case Multiplicative:
		st.trend = series[1] / series[0]
	}
	return st
}

func (s hwShape) base(level, trend float64, steps int) float64 {
	switch s.trend {
	case Additive:
		return level + float64(steps)*trend
	case Multiplicative:
		return level * math.Pow(trend, float64(steps))
	}
	return level
}

// run smooths the series with the given factors and returns the one-step SSE
// together with the final state.
func (s hwShape) run(series []float64, alpha, beta, gamma float64) (float64, hwState) {
	st := s.initial(series)
	sse := 0.0
	for t := st.start; t < len(series); t++ {
		y := series[t]
		base := s.base(st.level, st.trend, 1)

		var prevSeason float64
		pred, deseasoned := base, y
		if s.seasonal != ComponentNone {
			prevSeason = st.season[t%s.period]
			if s.seasonal == Multiplicative {
				pred = base * prevSeason
				deseasoned = y / prevSeason
			} else {
				pred = base + prevSeason
				deseasoned = y - prevSeason
			}
		}
		e := y - pred
		sse += e * e

		level := alpha*deseasoned + (1-alpha)*base
		switch s.trend {
		case Additive:
			st.trend = beta*(level-st.level) + (1-beta)*st.trend
		case Multiplicative:
			st.trend = beta*(level/st.level) + (1-beta)*st.trend
		}
		if s.seasonal == Multiplicative {
			st.season[t%s.period] = gamma*(y/level) + (1-gamma)*prevSeason
		} else if s.seasonal == Additive {
			st.season[t%s.period] = gamma*(y-level) + (1-gamma)*prevSeason
		}
		st.level = level
	}
	return sse, st
}

func (s hwShape) project(st hwState, n, horizon int) []float64 {
	out := make([]float64, horizon)
	for k := 1; k <= horizon; k++ {
		v := s.base(st.level, st.trend, k)
		if s.seasonal != ComponentNone {
			season := st.season[(n+k-1)%s.period]
			if s.seasonal == Multiplicative {
				v *= season
			} else {
				v += season
			}
		}
		out[k-1] = v
	}
	return out
}

// fit chooses alpha, beta and gamma in (0, 1) by minimizing the one-step SSE.
func (s hwShape) fit(ctx context.Context, series []float64, horizon int, opts FitOptions) ([]float64, error) {
	if len(series) < s.minLength() {
		return nil, fmt.Errorf("%w: holt-winters needs %d observations, got %d", ErrInsufficientData, s.minLength(), len(series))
	}

	// unconstrained parameters map through the logistic function
	x0 := []float64{logit(0.3)}
	if s.trend != ComponentNone {
		x0 = append(x0, logit(0.1))
	}
	if s.seasonal != ComponentNone {
		x0 = append(x0, logit(0.1))
	}
	factors := func(x []float64) (alpha, beta, gamma float64) {
		alpha = logistic(x[0])
		i := 1
		if s.trend != ComponentNone {
			beta = logistic(x[i])
			i++
		}
		if s.seasonal != ComponentNone {
			gamma = logistic(x[i])
		}
		return alpha, beta, gamma
	}

	x, _, err := minimize(ctx, func(x []float64) float64 {
		a, b, g := factors(x)
		sse, _ := s.run(series, a, b, g)
		return sse
	}, x0, opts)
	if err != nil {
		return nil, err
	}

	a, b, g := factors(x)
	_, st := s.run(series, a, b, g)
	out := s.project(st, len(series), horizon)
	if !allFinite(out) {
		return nil, ErrNonFinite
	}
	return out, nil
}

// holtWinters fits the configured trend and seasonal components.
func holtWinters(ctx context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	shape := resolveHW(series, p.Trend, p.Seasonal, p.SeasonalPeriods)
	return shape.fit(ctx, series, horizon, p.Fit)
}

// holtWintersNonSeasonal is the retry after a failed Holt-Winters fit: additive
// trend, no seasonality.
func holtWintersNonSeasonal(ctx context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	shape := resolveHW(series, Additive, ComponentNone, p.SeasonalPeriods)
	return shape.fit(ctx, series, horizon, p.Fit)
}
