package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

// planJob is the planning work for one series key.
type planJob struct {
	key     domain.SeriesKey
	history *domain.Series
	demand  *domain.DemandSeries
}

// planOutput is what one planJob produces.
type planOutput struct {
	rows      []domain.RecommendationRow
	selection *forecast.Selection
}

// forEach runs fn for 0..n-1 on at most workers goroutines. The first error
// cancels the rest.
func forEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// calculateMetrics computes one metrics row per series, in input order.
func calculateMetrics(ctx context.Context, calc *history.Calculator, series []domain.Series, workers int) ([]domain.MetricsRow, error) {
	rows := make([]domain.MetricsRow, len(series))
	err := forEach(ctx, len(series), workers, func(_ context.Context, i int) error {
		rows[i] = calc.Calculate(series[i])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// buildJobs pairs history with demand. In manual mode every demand key is
// planned, with or without history; in auto mode every history key is.
func buildJobs(series []domain.Series, demand []domain.DemandSeries, mode domain.Mode) []planJob {
	byKey := make(map[domain.SeriesKey]*domain.Series, len(series))
	for i := range series {
		byKey[series[i].Key] = &series[i]
	}

	var jobs []planJob
	if mode == domain.ModeManual {
		for i := range demand {
			jobs = append(jobs, planJob{key: demand[i].Key, history: byKey[demand[i].Key], demand: &demand[i]})
		}
	} else {
		for i := range series {
			if series[i].Len() == 0 {
				continue
			}
			jobs = append(jobs, planJob{key: series[i].Key, history: &series[i]})
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].key.Less(jobs[j].key) })
	return jobs
}

// plan acquires demand for one job and turns it into recommendation rows.
func plan(ctx context.Context, job planJob, planner *purchase.Planner, source purchase.DemandSource, horizon int) (planOutput, error) {
	start := time.Now()
	opening, hasHistory := purchase.OpeningBalance(job.history)

	in := purchase.Input{Key: job.key, Opening: opening, HasHistory: hasHistory}
	var out planOutput

	if job.demand != nil {
		in.Demand = job.demand.Points
	} else {
		d, err := source.Demand(ctx, *job.history, horizon)
		if err != nil {
			return planOutput{}, fmt.Errorf("demand for %s: %w", job.key, err)
		}
		in.Demand = d.Points
		in.Model = d.Model
		in.Strategy = d.Strategy
		out.selection = d.Selection
	}

	out.rows = planner.Plan(in)

	logger.Log.Debug().
		Str("key", job.key.String()).
		Str("model", in.Model).
		Str("strategy", in.Strategy).
		Bool("has_history", hasHistory).
		Int("periods", len(out.rows)).
		Dur("duration", time.Since(start)).
		Msg("planned series")

	return out, nil
}
