// Package pipeline runs a complete analysis: consumption normalization,
// historical metrics, demand acquisition and purchase planning for every
// material-location series.
package pipeline

import (
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/consumption"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
)

// Input is one analysis request. A non-empty FutureDemand selects manual
// mode; otherwise demand is forecast from history.
type Input struct {
	History      []domain.Series
	FutureDemand []domain.DemandSeries
	Params       domain.Params
}

// Mode reports where future demand comes from.
func (in Input) Mode() domain.Mode {
	if len(in.FutureDemand) > 0 {
		return domain.ModeManual
	}
	return domain.ModeAuto
}

// Config holds the resources and policies of a Runner
type Config struct {
	Workers      int // Number of series processed concurrently
	BalanceLimit int // Imbalanced rows kept in the balance report
	Policy       history.Policy
	Forecast     forecast.Params
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		BalanceLimit: 50,
		Policy:       history.DefaultPolicy(),
		Forecast:     forecast.DefaultParams(),
	}
}

// KeySelection is the backtest that chose the forecast model of one series.
type KeySelection struct {
	Key       domain.SeriesKey
	Selection forecast.Selection
}

// Result holds every output table of a run, ordered by series key.
type Result struct {
	Mode            domain.Mode
	Params          domain.Params
	Metrics         []domain.MetricsRow
	Recommendations []domain.RecommendationRow
	Selections      []KeySelection
	Detection       consumption.Detection
	Balance         consumption.BalanceReport
	Coverage        purchase.Coverage

	HistoricalExplanation string
	ForecastExplanation   string
}

// SeriesCount is the number of distinct keys with metrics or recommendations.
func (r *Result) SeriesCount() int {
	seen := make(map[domain.SeriesKey]struct{}, len(r.Metrics))
	for _, m := range r.Metrics {
		seen[m.Key] = struct{}{}
	}
	for _, rec := range r.Recommendations {
		seen[rec.Key] = struct{}{}
	}
	return len(seen)
}

// Selection returns the backtest of key, if one ran.
func (r *Result) Selection(key domain.SeriesKey) (forecast.Selection, bool) {
	for _, s := range r.Selections {
		if s.Key == key {
			return s.Selection, true
		}
	}
	return forecast.Selection{}, false
}
