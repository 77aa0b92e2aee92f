package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// minExtraObservations is how many points beyond the test window a series
// needs before the backtest runs.
const minExtraObservations = 5

// Selection is the outcome of a backtest.
type Selection struct {
	Model   Kind
	Metrics map[Kind]Accuracy
	Skipped bool
	Reason  string
}

// Select backtests every model on series: each is trained on all but the last
// testSize points and scored on those. Models that only produce a forecast
// through another model's fallback are not scored. The lowest MAPE wins; a tie for the
// lowest MAPE, no finite MAPE at all, or a series shorter than testSize+5
// selects the moving average.
func (f *Forecaster) Select(ctx context.Context, series []float64, testSize int) Selection {
	sel := Selection{Model: MovingAverage, Metrics: make(map[Kind]Accuracy)}
	if testSize < 1 {
		testSize = 1
	}
	if len(series) < testSize+minExtraObservations {
		sel.Skipped = true
		sel.Reason = fmt.Sprintf("%d observations, backtest needs %d", len(series), testSize+minExtraObservations)
		return sel
	}

	train := series[:len(series)-testSize]
	test := series[len(series)-testSize:]
	for _, kind := range Kinds() {
		// below its minimum SARIMA only delegates to Holt-Winters
		if kind == SARIMA && len(train) < f.params.SARIMAMinObservations() {
			continue
		}
		// a model that could not fit is left out; its fallback is scored
		// under its own name
		res, err := f.Forecast(ctx, train, testSize, kind)
		if err != nil || !res.Native() {
			continue
		}
		sel.Metrics[kind] = Evaluate(test, res.Values)
	}

	best, bestMAPE, tie := MovingAverage, math.Inf(1), false
	for _, kind := range Kinds() {
		acc, ok := sel.Metrics[kind]
		if !ok || math.IsNaN(acc.MAPE) {
			continue
		}
		switch {
		case acc.MAPE < bestMAPE && !nearlyEqual(acc.MAPE, bestMAPE):
			best, bestMAPE, tie = kind, acc.MAPE, false
		case nearlyEqual(acc.MAPE, bestMAPE):
			tie = true
		}
	}
	switch {
	case math.IsInf(bestMAPE, 1):
		sel.Reason = "no model produced a finite MAPE"
	case tie:
		sel.Reason = fmt.Sprintf("tie at MAPE %.2f%%", bestMAPE)
	default:
		sel.Model = best
		sel.Reason = fmt.Sprintf("lowest MAPE %.2f%%", bestMAPE)
	}
	return sel
}

// Outcome is a demand forecast plus the backtest that chose its model, when
// one ran.
type Outcome struct {
	Result    Result
	Selection *Selection
}

// Demand forecasts horizon periods. model is a Kind name or "auto".
func (f *Forecaster) Demand(ctx context.Context, series []float64, horizon int, model string, testSize int) (Outcome, error) {
	if strings.EqualFold(strings.TrimSpace(model), domain.ModelAuto) || strings.TrimSpace(model) == "" {
		sel := f.Select(ctx, series, testSize)
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		res, err := f.Forecast(ctx, series, horizon, sel.Model)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Result: res, Selection: &sel}, nil
	}

	kind, err := ParseKind(model)
	if err != nil {
		return Outcome{}, err
	}
	res, err := f.Forecast(ctx, series, horizon, kind)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res}, nil
}

// Select runs the backtest with p and no observer.
func Select(ctx context.Context, series []float64, testSize int, p Params) Selection {
	return NewForecaster(p, nil).Select(ctx, series, testSize)
}

func nearlyEqual(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
