package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// MemoryRepository keeps runs in process memory. It backs the server when no
// database is configured; everything is lost on restart.
type MemoryRepository struct {
	mu              sync.RWMutex
	runs            map[string]domain.AnalysisRun
	metrics         map[string][]domain.MetricsRow
	recommendations map[string][]domain.RecommendationRow
	now             func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		runs:            make(map[string]domain.AnalysisRun),
		metrics:         make(map[string][]domain.MetricsRow),
		recommendations: make(map[string][]domain.RecommendationRow),
		now:             time.Now,
	}
}

func (r *MemoryRepository) CreateRun(_ context.Context, run *domain.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *MemoryRepository) CompleteRun(_ context.Context, id string, summary RunSummary) error {
	return r.update(id, func(run *domain.AnalysisRun) {
		now := r.now()
		run.Status = domain.RunStatusCompleted
		run.SeriesCount = summary.SeriesCount
		run.Convention = summary.Convention
		run.ConventionScore = summary.ConventionScore
		run.ExportLocation = summary.ExportLocation
		run.CompletedAt = &now
	})
}

func (r *MemoryRepository) FailRun(_ context.Context, id string, reason string) error {
	return r.update(id, func(run *domain.AnalysisRun) {
		now := r.now()
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = reason
		run.CompletedAt = &now
	})
}

func (r *MemoryRepository) update(id string, fn func(*domain.AnalysisRun)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	fn(&run)
	r.runs[id] = run
	return nil
}

func (r *MemoryRepository) SaveResults(_ context.Context, runID string, metrics []domain.MetricsRow, recs []domain.RecommendationRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	r.metrics[runID] = append([]domain.MetricsRow(nil), metrics...)
	r.recommendations[runID] = append([]domain.RecommendationRow(nil), recs...)
	return nil
}

func (r *MemoryRepository) GetRun(_ context.Context, id string) (*domain.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return &run, nil
}

// ListRuns returns the newest runs first.
func (r *MemoryRepository) ListRuns(_ context.Context, filter RunFilter) ([]domain.AnalysisRun, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	runs := make([]domain.AnalysisRun, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		runs = append(runs, run)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	if filter.Offset >= len(runs) {
		return []domain.AnalysisRun{}, nil
	}
	runs = runs[filter.Offset:]
	if len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

func (r *MemoryRepository) GetMetrics(_ context.Context, runID string) ([]domain.MetricsRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return append([]domain.MetricsRow(nil), r.metrics[runID]...), nil
}

func (r *MemoryRepository) GetRecommendations(_ context.Context, runID string) ([]domain.RecommendationRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return append([]domain.RecommendationRow(nil), r.recommendations[runID]...), nil
}

var _ AnalysisRepository = (*MemoryRepository)(nil)
