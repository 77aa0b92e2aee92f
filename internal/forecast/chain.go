package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// StrategyFunc produces horizon forecasts from series. It must not modify series.
type StrategyFunc func(ctx context.Context, series []float64, horizon int, p Params) ([]float64, error)

// Strategy is one named step of a fallback chain.
type Strategy struct {
	Name string
	Run  StrategyFunc
}

var (
	strategyNaive         = Strategy{Name: "naive", Run: naive}
	strategyMovingAverage = Strategy{Name: "moving_average", Run: movingAverage}
	strategyMA3           = Strategy{Name: "moving_average_3", Run: movingAverage3}
	strategySES           = Strategy{Name: "exponential_smoothing", Run: exponentialSmoothing}
	strategyHW            = Strategy{Name: "holt_winters", Run: holtWinters}
	strategyHWNonSeasonal = Strategy{Name: "holt_winters_nonseasonal", Run: holtWintersNonSeasonal}
	strategySARIMA        = Strategy{Name: "sarima", Run: sarima}
)

var chains = map[Kind][]Strategy{
	Naive:                {strategyNaive},
	MovingAverage:        {strategyMovingAverage},
	ExponentialSmoothing: {strategySES, strategyMA3},
	HoltWinters:          {strategyHW, strategyHWNonSeasonal, strategyMA3},
	SARIMA:               {strategySARIMA, strategyHW, strategyHWNonSeasonal, strategyMA3},
}

// Chain returns the ordered strategies tried for kind.
func Chain(kind Kind) []Strategy {
	return append([]Strategy(nil), chains[kind]...)
}

// Attempt records one failed strategy of a chain.
type Attempt struct {
	Strategy string `json:"strategy"`
	Error    string `json:"error"`
}

// Result is the output of one forecast.
type Result struct {
	Model    Kind      `json:"model"`
	Strategy string    `json:"strategy"`
	Values   []float64 `json:"values"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Fallback reports whether a strategy other than the model's own produced Values.
func (r Result) Fallback() bool {
	return len(r.Attempts) > 0
}

// Native reports whether Values came from the model itself rather than from
// another model further down its chain. Holt-Winters without its seasonal
// component is still Holt-Winters.
func (r Result) Native() bool {
	chain := chains[r.Model]
	switch {
	case r.Strategy == "" || len(chain) == 0:
		return false
	case r.Strategy == chain[0].Name:
		return true
	}
	return r.Model == HoltWinters && r.Strategy == strategyHWNonSeasonal.Name
}

// Observer is told about every strategy run. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveStrategy(kind Kind, strategy string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStrategy(Kind, string, time.Duration, error) {}

// Forecaster runs models with a fixed configuration.
type Forecaster struct {
	params   Params
	observer Observer
}

// NewForecaster returns a Forecaster; observer may be nil.
func NewForecaster(p Params, observer Observer) *Forecaster {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Forecaster{params: p, observer: observer}
}

func (f *Forecaster) Params() Params {
	return f.params
}

// Forecast walks the chain for kind and returns the first success.
func (f *Forecaster) Forecast(ctx context.Context, series []float64, horizon int, kind Kind) (Result, error) {
	if !kind.valid() {
		return Result{}, fmt.Errorf("%w: %d", domain.ErrUnknownModel, int(kind))
	}
	if horizon < 0 {
		return Result{}, fmt.Errorf("%w: horizon must be >= 0, got %d", domain.ErrInvalidParams, horizon)
	}

	res := Result{Model: kind}
	var errs []error
	for _, s := range chains[kind] {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		values, err := s.Run(ctx, series, horizon, f.params)
		if err == nil && !allFinite(values) {
			err = ErrNonFinite
		}
		f.observer.ObserveStrategy(kind, s.Name, time.Since(start), err)
		if err != nil {
			res.Attempts = append(res.Attempts, Attempt{Strategy: s.Name, Error: err.Error()})
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		res.Strategy = s.Name
		res.Values = values
		return res, nil
	}
	return Result{}, fmt.Errorf("%w: every strategy for %s failed: %w", ErrFitFailed, kind, errors.Join(errs...))
}

// Forecast runs kind with p and no observer.
func Forecast(ctx context.Context, series []float64, horizon int, kind Kind, p Params) (Result, error) {
	return NewForecaster(p, nil).Forecast(ctx, series, horizon, kind)
}
