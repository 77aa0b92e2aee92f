package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type analysisRepository struct {
	db *DB
}

func NewAnalysisRepository(db *DB) repository.AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) CreateRun(ctx context.Context, run *domain.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			id, status, mode, model, convention, convention_confidence,
			series_count, horizon, started_at, error_message, export_location
		) VALUES (
			:id, :status, :mode, :model, :convention, :convention_confidence,
			:series_count, :horizon, :started_at, :error_message, :export_location
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

func (r *analysisRepository) CompleteRun(ctx context.Context, id string, summary repository.RunSummary) error {
	query := `
		UPDATE analysis_runs
		SET status = $2, series_count = $3, convention = $4, convention_confidence = $5,
			export_location = $6, completed_at = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, domain.RunStatusCompleted, summary.SeriesCount,
		summary.Convention, summary.ConventionScore, summary.ExportLocation, time.Now())
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return expectOne(res, id)
}

func (r *analysisRepository) FailRun(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE analysis_runs
		SET status = $2, error_message = $3, completed_at = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, domain.RunStatusFailed, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", id, err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SaveResults replaces the result tables of a run in one transaction.
func (r *analysisRepository) SaveResults(ctx context.Context, runID string, metrics []domain.MetricsRow, recs []domain.RecommendationRow) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Clear previous results of the run
		if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_metrics WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("failed to clear metrics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_recommendations WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("failed to clear recommendations: %w", err)
		}

		// 2. Metrics
		if err := insertMetrics(ctx, tx, runID, metrics); err != nil {
			return err
		}

		// 3. Recommendations
		return insertRecommendations(ctx, tx, runID, recs)
	})
}

func insertMetrics(ctx context.Context, tx *sqlx.Tx, runID string, rows []domain.MetricsRow) error {
	query := `
		INSERT INTO analysis_metrics (
			run_id, material, location, periods, growth_ratio, growth_infinite,
			span_months, avg_usage, total_usage, usage_std_dev, avg_inventory,
			turnover, turnover_label, turnover_days, seasonality, trend,
			abc_class, xyz_class, cv, recommended_stock, reorder_point, excess,
			unit_cost, lost_opportunity, deficit_periods, deficit_pct, avg_deficit,
			fill_rate, no_movement_periods, dead_stock, warnings
		) VALUES (
			:run_id, :material, :location, :periods, :growth_ratio, :growth_infinite,
			:span_months, :avg_usage, :total_usage, :usage_std_dev, :avg_inventory,
			:turnover, :turnover_label, :turnover_days, :seasonality, :trend,
			:abc_class, :xyz_class, :cv, :recommended_stock, :reorder_point, :excess,
			:unit_cost, :lost_opportunity, :deficit_periods, :deficit_pct, :avg_deficit,
			:fill_rate, :no_movement_periods, :dead_stock, :warnings
		)
	`
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare metrics statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, toMetricsRecord(runID, row)); err != nil {
			return fmt.Errorf("failed to insert metrics for %s: %w", row.Key, err)
		}
	}
	return nil
}

func insertRecommendations(ctx context.Context, tx *sqlx.Tx, runID string, rows []domain.RecommendationRow) error {
	query := `
		INSERT INTO analysis_recommendations (
			run_id, material, location, period, step, demand,
			projected_opening, projected_closing, demand_window, safety_stock,
			recommendation, model, strategy, has_history
		) VALUES (
			:run_id, :material, :location, :period, :step, :demand,
			:projected_opening, :projected_closing, :demand_window, :safety_stock,
			:recommendation, :model, :strategy, :has_history
		)
	`
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare recommendations statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, toRecommendationRecord(runID, row)); err != nil {
			return fmt.Errorf("failed to insert recommendation for %s step %d: %w", row.Key, row.Step, err)
		}
	}
	return nil
}

const runColumns = `
	id, status, mode, model, convention, convention_confidence, series_count,
	horizon, started_at, completed_at, error_message, export_location
`

func (r *analysisRepository) GetRun(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	err := r.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

func (r *analysisRepository) ListRuns(ctx context.Context, filter repository.RunFilter) ([]domain.AnalysisRun, error) {
	filter = filter.Normalize()

	query := `SELECT ` + runColumns + ` FROM analysis_runs`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY started_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	runs := []domain.AnalysisRun{}
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *analysisRepository) GetMetrics(ctx context.Context, runID string) ([]domain.MetricsRow, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var records []metricsRecord
	query := `SELECT * FROM analysis_metrics WHERE run_id = $1 ORDER BY material, location`
	if err := r.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, fmt.Errorf("failed to get metrics of run %s: %w", runID, err)
	}

	out := make([]domain.MetricsRow, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}

func (r *analysisRepository) GetRecommendations(ctx context.Context, runID string) ([]domain.RecommendationRow, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var records []recommendationRecord
	query := `SELECT * FROM analysis_recommendations WHERE run_id = $1 ORDER BY material, location, step`
	if err := r.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, fmt.Errorf("failed to get recommendations of run %s: %w", runID, err)
	}

	out := make([]domain.RecommendationRow, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}

// nullFloat stores NaN and infinities as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
