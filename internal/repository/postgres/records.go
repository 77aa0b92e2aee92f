package postgres

import (
	"database/sql"
	"math"
	"time"

	"github.com/lib/pq"

	"github.com/andresuchdata/stockcast/internal/domain"
)

type metricsRecord struct {
	RunID             string          `db:"run_id"`
	Material          string          `db:"material"`
	Location          string          `db:"location"`
	Periods           int             `db:"periods"`
	GrowthRatio       sql.NullFloat64 `db:"growth_ratio"`
	GrowthInfinite    bool            `db:"growth_infinite"`
	SpanMonths        sql.NullFloat64 `db:"span_months"`
	AvgUsage          sql.NullFloat64 `db:"avg_usage"`
	TotalUsage        sql.NullFloat64 `db:"total_usage"`
	UsageStdDev       sql.NullFloat64 `db:"usage_std_dev"`
	AvgInventory      sql.NullFloat64 `db:"avg_inventory"`
	Turnover          sql.NullFloat64 `db:"turnover"`
	TurnoverLabel     string          `db:"turnover_label"`
	TurnoverDays      sql.NullFloat64 `db:"turnover_days"`
	Seasonality       sql.NullFloat64 `db:"seasonality"`
	Trend             sql.NullFloat64 `db:"trend"`
	ABC               string          `db:"abc_class"`
	XYZ               string          `db:"xyz_class"`
	CV                sql.NullFloat64 `db:"cv"`
	RecommendedStock  sql.NullFloat64 `db:"recommended_stock"`
	ReorderPoint      sql.NullFloat64 `db:"reorder_point"`
	Excess            bool            `db:"excess"`
	UnitCost          sql.NullFloat64 `db:"unit_cost"`
	LostOpportunity   sql.NullFloat64 `db:"lost_opportunity"`
	DeficitPeriods    int             `db:"deficit_periods"`
	DeficitPct        sql.NullFloat64 `db:"deficit_pct"`
	AvgDeficit        sql.NullFloat64 `db:"avg_deficit"`
	FillRate          sql.NullFloat64 `db:"fill_rate"`
	NoMovementPeriods int             `db:"no_movement_periods"`
	DeadStock         bool            `db:"dead_stock"`
	Warnings          pq.StringArray  `db:"warnings"`
}

func toMetricsRecord(runID string, m domain.MetricsRow) metricsRecord {
	warnings := pq.StringArray(m.ValidationWarnings)
	if warnings == nil {
		warnings = pq.StringArray{}
	}
	return metricsRecord{
		RunID:             runID,
		Material:          m.Key.Material,
		Location:          m.Key.Location,
		Periods:           m.Periods,
		GrowthRatio:       nullFloat(m.GrowthRatio),
		GrowthInfinite:    math.IsInf(m.GrowthRatio, 1),
		SpanMonths:        nullFloat(m.SpanMonths),
		AvgUsage:          nullFloat(m.AvgUsage),
		TotalUsage:        nullFloat(m.TotalUsage),
		UsageStdDev:       nullFloat(m.UsageStdDev),
		AvgInventory:      nullFloat(m.AvgInventory),
		Turnover:          nullFloat(m.Turnover),
		TurnoverLabel:     string(m.TurnoverLabel),
		TurnoverDays:      nullFloat(m.TurnoverDays),
		Seasonality:       nullFloat(m.Seasonality),
		Trend:             nullFloat(m.Trend),
		ABC:               string(m.ABC),
		XYZ:               string(m.XYZ),
		CV:                nullFloat(m.CV),
		RecommendedStock:  nullFloat(m.RecommendedStock),
		ReorderPoint:      nullFloat(m.ReorderPoint),
		Excess:            m.Excess,
		UnitCost:          nullFloat(m.UnitCost),
		LostOpportunity:   nullFloat(m.LostOpportunity),
		DeficitPeriods:    m.DeficitPeriods,
		DeficitPct:        nullFloat(m.DeficitPct),
		AvgDeficit:        nullFloat(m.AvgDeficit),
		FillRate:          nullFloat(m.FillRate),
		NoMovementPeriods: m.NoMovementPeriods,
		DeadStock:         m.DeadStock,
		Warnings:          warnings,
	}
}

func (r metricsRecord) toDomain() domain.MetricsRow {
	growth := floatOrNaN(r.GrowthRatio)
	if r.GrowthInfinite {
		growth = math.Inf(1)
	}
	var warnings []string
	if len(r.Warnings) > 0 {
		warnings = []string(r.Warnings)
	}
	return domain.MetricsRow{
		Key:                domain.SeriesKey{Material: r.Material, Location: r.Location},
		Periods:            r.Periods,
		GrowthRatio:        growth,
		SpanMonths:         floatOrNaN(r.SpanMonths),
		AvgUsage:           floatOrNaN(r.AvgUsage),
		TotalUsage:         floatOrNaN(r.TotalUsage),
		UsageStdDev:        floatOrNaN(r.UsageStdDev),
		AvgInventory:       floatOrNaN(r.AvgInventory),
		Turnover:           floatOrNaN(r.Turnover),
		TurnoverLabel:      domain.TurnoverLabel(r.TurnoverLabel),
		TurnoverDays:       floatOrNaN(r.TurnoverDays),
		Seasonality:        floatOrNaN(r.Seasonality),
		Trend:              floatOrNaN(r.Trend),
		ABC:                domain.ABCClass(r.ABC),
		XYZ:                domain.XYZClass(r.XYZ),
		CV:                 floatOrNaN(r.CV),
		RecommendedStock:   floatOrNaN(r.RecommendedStock),
		ReorderPoint:       floatOrNaN(r.ReorderPoint),
		Excess:             r.Excess,
		UnitCost:           floatOrNaN(r.UnitCost),
		LostOpportunity:    floatOrNaN(r.LostOpportunity),
		DeficitPeriods:     r.DeficitPeriods,
		DeficitPct:         floatOrNaN(r.DeficitPct),
		AvgDeficit:         floatOrNaN(r.AvgDeficit),
		FillRate:           floatOrNaN(r.FillRate),
		NoMovementPeriods:  r.NoMovementPeriods,
		DeadStock:          r.DeadStock,
		ValidationWarnings: warnings,
	}
}

type recommendationRecord struct {
	RunID            string    `db:"run_id"`
	Material         string    `db:"material"`
	Location         string    `db:"location"`
	Period           time.Time `db:"period"`
	Step             int       `db:"step"`
	Demand           float64   `db:"demand"`
	ProjectedOpening float64   `db:"projected_opening"`
	ProjectedClosing float64   `db:"projected_closing"`
	DemandWindow     float64   `db:"demand_window"`
	SafetyStock      float64   `db:"safety_stock"`
	Recommendation   float64   `db:"recommendation"`
	Model            string    `db:"model"`
	Strategy         string    `db:"strategy"`
	HasHistory       bool      `db:"has_history"`
}

func toRecommendationRecord(runID string, r domain.RecommendationRow) recommendationRecord {
	return recommendationRecord{
		RunID:            runID,
		Material:         r.Key.Material,
		Location:         r.Key.Location,
		Period:           r.Period,
		Step:             r.Step,
		Demand:           r.Demand,
		ProjectedOpening: r.ProjectedOpening,
		ProjectedClosing: r.ProjectedClosing,
		DemandWindow:     r.DemandWindow,
		SafetyStock:      r.SafetyStock,
		Recommendation:   r.Recommendation,
		Model:            r.Model,
		Strategy:         r.Strategy,
		HasHistory:       r.HasHistory,
	}
}

func (r recommendationRecord) toDomain() domain.RecommendationRow {
	return domain.RecommendationRow{
		Key:              domain.SeriesKey{Material: r.Material, Location: r.Location},
		Period:           r.Period.UTC(),
		Step:             r.Step,
		Demand:           r.Demand,
		ProjectedOpening: r.ProjectedOpening,
		ProjectedClosing: r.ProjectedClosing,
		DemandWindow:     r.DemandWindow,
		SafetyStock:      r.SafetyStock,
		Recommendation:   r.Recommendation,
		Model:            r.Model,
		Strategy:         r.Strategy,
		HasHistory:       r.HasHistory,
	}
}
