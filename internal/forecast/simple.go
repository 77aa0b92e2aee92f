package forecast

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// naive repeats the last observation; an empty series forecasts zeros.
func naive(_ context.Context, series []float64, horizon int, _ Params) ([]float64, error) {
	if len(series) == 0 {
		return make([]float64, horizon), nil
	}
	return repeat(series[len(series)-1], horizon), nil
}

// movingAverage projects the mean of the last p.Window observations. The
// window shrinks to the series length; an empty series forecasts zeros.
func movingAverage(_ context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	if len(series) == 0 {
		return make([]float64, horizon), nil
	}
	window := p.Window
	if window < 1 {
		window = 3
	}
	if window > len(series) {
		window = len(series)
	}
	return repeat(stat.Mean(series[len(series)-window:], nil), horizon), nil
}

// movingAverage3 is the fixed three-period average every fallback chain ends on.
func movingAverage3(ctx context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	p.Window = 3
	return movingAverage(ctx, series, horizon, p)
}

// exponentialSmoothing is single exponential smoothing with a fixed alpha.
func exponentialSmoothing(_ context.Context, series []float64, horizon int, p Params) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: exponential smoothing needs at least one observation", ErrInsufficientData)
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha %v outside (0, 1)", ErrFitFailed, p.Alpha)
	}
	level := series[0]
	for _, y := range series[1:] {
		level = p.Alpha*y + (1-p.Alpha)*level
	}
	out := repeat(level, horizon)
	if !allFinite(out) {
		return nil, ErrNonFinite
	}
	return out, nil
}
