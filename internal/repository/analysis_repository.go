// Package repository persists analysis runs and their result tables.
package repository

import (
	"context"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// RunFilter narrows ListRuns. Zero values mean no restriction.
type RunFilter struct {
	Status domain.RunStatus
	Limit  int
	Offset int
}

// Normalize clamps Limit and Offset to their allowed ranges.
func (f RunFilter) Normalize() RunFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RunSummary is what a completed run records on its header.
type RunSummary struct {
	SeriesCount     int
	Convention      string
	ConventionScore float64
	ExportLocation  string
}

// AnalysisRepository stores run headers and the metrics and recommendation
// tables of completed runs. Lookups of unknown runs return domain.ErrNotFound.
type AnalysisRepository interface {
	CreateRun(ctx context.Context, run *domain.AnalysisRun) error
	CompleteRun(ctx context.Context, id string, summary RunSummary) error
	FailRun(ctx context.Context, id string, reason string) error
	SaveResults(ctx context.Context, runID string, metrics []domain.MetricsRow, recs []domain.RecommendationRow) error

	GetRun(ctx context.Context, id string) (*domain.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.AnalysisRun, error)
	GetMetrics(ctx context.Context, runID string) ([]domain.MetricsRow, error)
	GetRecommendations(ctx context.Context, runID string) ([]domain.RecommendationRow, error)
}
