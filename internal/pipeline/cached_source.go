package pipeline

import (
	"context"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/metrics"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

// CachedDemandSource serves repeated forecasts of unchanged history from a
// ForecastCache. Cache failures are logged and never fail the forecast.
type CachedDemandSource struct {
	next  *purchase.ForecastSource
	cache cache.ForecastCache
}

func NewCachedDemandSource(next *purchase.ForecastSource, c cache.ForecastCache) *CachedDemandSource {
	return &CachedDemandSource{next: next, cache: c}
}

func (s *CachedDemandSource) Demand(ctx context.Context, hist domain.Series, horizon int) (purchase.Demand, error) {
	last, ok := hist.Last()
	if !ok {
		return s.next.Demand(ctx, hist, horizon)
	}

	key := cache.DemandKey{
		Series:   hist.Key,
		Last:     last.Period,
		Usage:    hist.Usage(),
		Horizon:  horizon,
		Model:    s.next.Model(),
		TestSize: s.next.TestSize(),
		Params:   s.next.Forecaster().Params(),
	}

	cached, hit, err := s.cache.GetDemand(ctx, key)
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", hist.Key.String()).Msg("forecast cache get failed")
	}
	metrics.RecordCacheLookup(hit)
	if hit {
		return cached, nil
	}

	demand, err := s.next.Demand(ctx, hist, horizon)
	if err != nil {
		return purchase.Demand{}, err
	}
	if err := s.cache.SetDemand(ctx, key, demand); err != nil {
		logger.Log.Warn().Err(err).Str("key", hist.Key.String()).Msg("forecast cache set failed")
	}
	return demand, nil
}
