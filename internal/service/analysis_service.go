// Package service runs analyses end to end: run bookkeeping, the pipeline,
// persistence of the result tables and their export.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/export"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/metrics"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
	"github.com/andresuchdata/stockcast/internal/report"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

// Request is one analysis to run.
type Request struct {
	History      []domain.Series
	FutureDemand []domain.DemandSeries
	Params       domain.Params
}

// Report is a finished run together with its in-memory result.
type Report struct {
	Run    domain.AnalysisRun
	Result *pipeline.Result
}

// RunDetails is a stored run with its result tables.
type RunDetails struct {
	Run             domain.AnalysisRun
	Metrics         []domain.MetricsRow
	Recommendations []domain.RecommendationRow
}

// ModelInfo describes a model name accepted by Analyze.
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Options struct {
	// Defaults are the parameters callers start from.
	Defaults domain.Params
	// StoragePrefix is prepended to exported object keys.
	StoragePrefix string
}

type AnalysisService struct {
	runner *pipeline.Runner
	repo   repository.AnalysisRepository
	store  storage.ObjectStorage
	opts   Options

	now   func() time.Time
	newID func() string
}

// NewAnalysisService wires a service. store may be nil, in which case
// results are not exported.
func NewAnalysisService(runner *pipeline.Runner, repo repository.AnalysisRepository, store storage.ObjectStorage, opts Options) *AnalysisService {
	return &AnalysisService{
		runner: runner,
		repo:   repo,
		store:  store,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// RunnerConfig converts the analysis section of the configuration.
func RunnerConfig(a config.AnalysisConfig) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if a.Workers > 0 {
		cfg.Workers = a.Workers
	}
	if a.BalanceLimit > 0 {
		cfg.BalanceLimit = a.BalanceLimit
	}

	policy := history.DefaultPolicy()
	if a.ABCHigh > 0 {
		policy.ABCHigh = a.ABCHigh
	}
	if a.ABCMid > 0 {
		policy.ABCMid = a.ABCMid
	}
	if a.XYZLow > 0 {
		policy.XYZLow = a.XYZLow
	}
	if a.XYZMid > 0 {
		policy.XYZMid = a.XYZMid
	}
	if a.ServiceFactor > 0 {
		policy.ServiceFactor = a.ServiceFactor
	}
	cfg.Policy = policy

	fp := forecast.DefaultParams().WithSeason(a.SeasonalPeriods)
	if a.FitIterations > 0 {
		fp.Fit.MaxIterations = a.FitIterations
	}
	if a.FitEvaluations > 0 {
		fp.Fit.MaxEvaluations = a.FitEvaluations
	}
	if a.FitTimeout > 0 {
		fp.Fit.Timeout = a.FitTimeout
	}
	cfg.Forecast = fp
	return cfg
}

// Defaults returns the parameters a caller should start from.
func (s *AnalysisService) Defaults() domain.Params {
	return s.opts.Defaults.WithDefaults()
}

// Analyze runs req and records it. Input or parameter errors mark the run
// failed and are returned; export failures are logged and leave the run
// completed without an export location.
func (s *AnalysisService) Analyze(ctx context.Context, req Request) (*Report, error) {
	start := s.now()
	in := pipeline.Input{History: req.History, FutureDemand: req.FutureDemand, Params: req.Params}
	params := req.Params.WithDefaults()
	mode := in.Mode()

	// 1. Register the run
	run := &domain.AnalysisRun{
		ID:        s.newID(),
		Status:    domain.RunStatusRunning,
		Mode:      string(mode),
		Model:     params.Model,
		Horizon:   params.Horizon,
		StartedAt: start,
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	log := logger.Log.With().Str("run_id", run.ID).Logger()

	// 2. Analyze
	res, err := s.runner.Run(ctx, in)
	if err != nil {
		s.fail(ctx, run.ID, err)
		metrics.RecordRun(string(mode), s.now().Sub(start), 0, err)
		return nil, err
	}

	// 3. Persist
	if err := s.repo.SaveResults(ctx, run.ID, res.Metrics, res.Recommendations); err != nil {
		s.fail(ctx, run.ID, err)
		metrics.RecordRun(string(mode), s.now().Sub(start), 0, err)
		return nil, fmt.Errorf("save results: %w", err)
	}

	// 4. Export
	location, err := s.export(ctx, run.ID, res)
	if err != nil {
		log.Warn().Err(err).Msg("export failed")
	}

	summary := repository.RunSummary{
		SeriesCount:     res.SeriesCount(),
		Convention:      string(res.Detection.Convention),
		ConventionScore: res.Detection.Confidence,
		ExportLocation:  location,
	}
	if err := s.repo.CompleteRun(ctx, run.ID, summary); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}

	metrics.RecordRun(string(mode), s.now().Sub(start), summary.SeriesCount, nil)
	for _, sel := range res.Selections {
		if !sel.Selection.Skipped {
			metrics.RecordSelection(sel.Selection.Model)
		}
	}

	stored, err := s.repo.GetRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	log.Info().Int("series", summary.SeriesCount).Str("export", location).Msg("run completed")
	return &Report{Run: *stored, Result: res}, nil
}

// fail records err on the run even when ctx is already cancelled.
func (s *AnalysisService) fail(ctx context.Context, id string, err error) {
	if ferr := s.repo.FailRun(context.WithoutCancel(ctx), id, err.Error()); ferr != nil {
		logger.Log.Error().Err(ferr).Str("run_id", id).Msg("could not mark run failed")
	}
}

// export uploads the result tables and returns the object prefix they live
// under, or "" when no store is configured.
func (s *AnalysisService) export(ctx context.Context, id string, res *pipeline.Result) (string, error) {
	if s.store == nil {
		return "", nil
	}

	files, err := export.Files(res.Metrics, res.Recommendations)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if err := s.store.UploadObject(ctx, storage.ObjectKey(s.opts.StoragePrefix, id, f.Name), f.Data); err != nil {
			return "", err
		}
	}
	return storage.ObjectKey(s.opts.StoragePrefix, id), nil
}

// GetRun returns a stored run with its result tables.
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*RunDetails, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	details := &RunDetails{Run: *run}
	if run.Status != domain.RunStatusCompleted {
		return details, nil
	}

	if details.Metrics, err = s.repo.GetMetrics(ctx, id); err != nil {
		return nil, err
	}
	if details.Recommendations, err = s.repo.GetRecommendations(ctx, id); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *AnalysisService) ListRuns(ctx context.Context, filter repository.RunFilter) ([]domain.AnalysisRun, error) {
	if filter.Status != "" {
		if _, ok := domain.ParseRunStatus(string(filter.Status)); !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidParams, filter.Status)
		}
	}
	return s.repo.ListRuns(ctx, filter)
}

// Models lists "auto" followed by every forecasting model.
func (s *AnalysisService) Models() []ModelInfo {
	names := []string{domain.ModelAuto}
	for _, k := range forecast.Kinds() {
		names = append(names, k.String())
	}
	out := make([]ModelInfo, len(names))
	for i, name := range names {
		out[i] = ModelInfo{Name: name, Description: report.ModelDescription(name)}
	}
	return out
}

// IsInputError reports whether err was caused by the request rather than
// by the service.
func IsInputError(err error) bool {
	for _, target := range []error{
		domain.ErrMissingColumn,
		domain.ErrMismatchedLength,
		domain.ErrInvalidValue,
		domain.ErrDuplicatePeriod,
		domain.ErrInvalidParams,
		domain.ErrUnknownConvention,
		domain.ErrUnknownModel,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
