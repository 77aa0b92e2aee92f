package purchase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
)

// Demand is the future demand acquired for one series.
type Demand struct {
	Points    []domain.DemandPoint
	Model     string
	Strategy  string
	Selection *forecast.Selection
}

// DemandSource produces future demand for a series with history.
type DemandSource interface {
	Demand(ctx context.Context, s domain.Series, horizon int) (Demand, error)
}

// ForecastSource forecasts demand from the series' own usage history.
type ForecastSource struct {
	forecaster *forecast.Forecaster
	model      string
	testSize   int
}

// NewForecastSource forecasts with model, a Kind name or "auto".
func NewForecastSource(f *forecast.Forecaster, model string, testSize int) *ForecastSource {
	return &ForecastSource{forecaster: f, model: model, testSize: testSize}
}

func (s *ForecastSource) Model() string {
	return s.model
}

func (s *ForecastSource) TestSize() int {
	return s.testSize
}

func (s *ForecastSource) Forecaster() *forecast.Forecaster {
	return s.forecaster
}

// Demand forecasts the usage series of hist. Forecast demand is floored at zero.
func (s *ForecastSource) Demand(ctx context.Context, hist domain.Series, horizon int) (Demand, error) {
	last, ok := hist.Last()
	if !ok {
		return Demand{}, fmt.Errorf("%w: %s has no history to forecast from", forecast.ErrInsufficientData, hist.Key)
	}

	outcome, err := s.forecaster.Demand(ctx, hist.Usage(), horizon, s.model, s.testSize)
	if err != nil {
		return Demand{}, fmt.Errorf("forecast %s: %w", hist.Key, err)
	}
	return FromOutcome(outcome, last.Period), nil
}

// FromOutcome places forecast values on the monthly periods after last.
func FromOutcome(outcome forecast.Outcome, last time.Time) Demand {
	periods := FuturePeriods(last, len(outcome.Result.Values))
	points := make([]domain.DemandPoint, len(periods))
	for i, p := range periods {
		points[i] = domain.DemandPoint{Period: p, Demand: math.Max(0, outcome.Result.Values[i])}
	}
	return Demand{
		Points:    points,
		Model:     outcome.Result.Model.String(),
		Strategy:  outcome.Result.Strategy,
		Selection: outcome.Selection,
	}
}
