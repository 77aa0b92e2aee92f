package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/consumption"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
	"github.com/andresuchdata/stockcast/internal/report"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

// Runner coordinates one analysis over every series of an Input.
type Runner struct {
	cfg      Config
	observer forecast.Observer
	cache    cache.ForecastCache
	source   purchase.DemandSource
}

// NewRunner creates a Runner. observer and fc may be nil.
func NewRunner(cfg Config, observer forecast.Observer, fc cache.ForecastCache) *Runner {
	return &Runner{
		cfg:      cfg,
		observer: observer,
		cache:    fc,
	}
}

// WithDemandSource replaces the forecast-backed demand source of auto mode.
func (r *Runner) WithDemandSource(src purchase.DemandSource) *Runner {
	r.source = src
	return r
}

// Config returns the runner configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run analyzes in. Malformed input or parameters abort the run with a
// descriptive error; numerical trouble inside a series never does.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	params := in.Params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !strings.EqualFold(params.Model, domain.ModelAuto) {
		if _, err := forecast.ParseKind(params.Model); err != nil {
			return nil, err
		}
	}
	mode := in.Mode()
	if mode == domain.ModeAuto && len(in.History) == 0 {
		return nil, fmt.Errorf("%w: no historical records to forecast from", domain.ErrInvalidValue)
	}

	log := logger.Log.With().Str("mode", string(mode)).Str("model", params.Model).Logger()
	log.Info().Int("series", len(in.History)).Int("demand_series", len(in.FutureDemand)).Msg("analysis started")

	// 1. Normalize consumption over the whole dataset
	normalized, detection, err := consumption.NormalizeSeries(in.History, params.Convention)
	if err != nil {
		return nil, fmt.Errorf("normalize consumption: %w", err)
	}
	log.Info().
		Str("convention", string(detection.Convention)).
		Float64("confidence", detection.Confidence).
		Msg("consumption convention detected")

	// 2. Balance check on normalized data
	balance := consumption.CheckBalance(normalized, r.cfg.BalanceLimit)
	if balance.ProblemRows > 0 {
		log.Warn().
			Int("problem_rows", balance.ProblemRows).
			Float64("problem_pct", balance.ProblemPct).
			Msg("balance equation does not hold for some rows")
	}

	// 3. Historical metrics
	calc := history.NewCalculator(params, r.cfg.Policy)
	metrics, err := calculateMetrics(ctx, calc, normalized, r.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("historical metrics: %w", err)
	}

	// 4. Demand and recommendations per key
	jobs := buildJobs(normalized, in.FutureDemand, mode)
	planner := purchase.NewPlanner(params.SafetyFraction)
	source := r.demandSource(params)
	outputs := make([]planOutput, len(jobs))
	err = forEach(ctx, len(jobs), r.cfg.Workers, func(ctx context.Context, i int) error {
		out, err := plan(ctx, jobs[i], planner, source, params.Horizon)
		if err != nil {
			return err
		}
		outputs[i] = out
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return nil, err
	}

	res := &Result{
		Mode:      mode,
		Params:    params,
		Metrics:   metrics,
		Detection: detection,
		Balance:   balance,
	}
	for i, out := range outputs {
		res.Recommendations = append(res.Recommendations, out.rows...)
		if out.selection != nil {
			res.Selections = append(res.Selections, KeySelection{Key: jobs[i].key, Selection: *out.selection})
		}
	}

	// 5. Coverage and explanations
	res.Coverage = purchase.AnalyzeCoverage(res.Recommendations)
	if len(res.Metrics) > 0 {
		res.HistoricalExplanation = report.Historical(res.Metrics[0], params, r.cfg.Policy)
	}
	if len(res.Recommendations) > 0 {
		first := res.Recommendations[0]
		var sel *forecast.Selection
		if s, ok := res.Selection(first.Key); ok {
			sel = &s
		}
		res.ForecastExplanation = report.Forecast(first, params.SafetyFraction, planner.Window(), sel)
	}

	log.Info().
		Int("metrics", len(res.Metrics)).
		Int("recommendations", len(res.Recommendations)).
		Dur("duration", time.Since(start)).
		Msg("analysis completed")

	return res, nil
}

func (r *Runner) demandSource(params domain.Params) purchase.DemandSource {
	if r.source != nil {
		return r.source
	}
	fp := r.cfg.Forecast.WithSeason(params.SeasonalPeriods)
	src := purchase.NewForecastSource(forecast.NewForecaster(fp, r.observer), params.Model, params.TestSize)
	if r.cache == nil {
		return src
	}
	return NewCachedDemandSource(src, r.cache)
}
