// Package metrics exposes Prometheus instrumentation for analysis runs,
// forecast model fits, the forecast cache and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/andresuchdata/stockcast/internal/forecast"
)

var (
	// Analysis runs
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_runs_total",
			Help: "Total number of analysis runs by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_run_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	SeriesAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockcast_series_analyzed_total",
			Help: "Total number of material-location series analyzed",
		},
	)

	// Forecast model fits
	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_forecast_strategy_duration_seconds",
			Help:    "Duration of one forecast strategy attempt in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"model", "strategy"},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_forecast_strategy_failures_total",
			Help: "Total number of forecast strategy attempts that failed and fell back",
		},
		[]string{"model", "strategy"},
	)

	ModelSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_model_selections_total",
			Help: "Total number of backtest selections per winning model",
		},
		[]string{"model"},
	)

	// Forecast cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockcast_forecast_cache_hits_total",
			Help: "Total number of forecast cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockcast_forecast_cache_misses_total",
			Help: "Total number of forecast cache misses",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)
)

// Observer records forecast strategy attempts. It satisfies forecast.Observer.
type Observer struct{}

var _ forecast.Observer = Observer{}

func (Observer) ObserveStrategy(kind forecast.Kind, strategy string, elapsed time.Duration, err error) {
	StrategyDuration.WithLabelValues(kind.String(), strategy).Observe(elapsed.Seconds())
	if err != nil {
		StrategyFailures.WithLabelValues(kind.String(), strategy).Inc()
	}
}

// RecordRun records a finished analysis run
func RecordRun(mode string, duration time.Duration, series int, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	RunsTotal.WithLabelValues(mode, status).Inc()
	RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
	SeriesAnalyzed.Add(float64(series))
}

// RecordSelection counts the model a backtest picked
func RecordSelection(kind forecast.Kind) {
	ModelSelections.WithLabelValues(kind.String()).Inc()
}

// RecordCacheLookup counts a forecast cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
