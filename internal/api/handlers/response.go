package handlers

import (
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/pipeline/consumption"
	"github.com/andresuchdata/stockcast/internal/pipeline/purchase"
	"github.com/andresuchdata/stockcast/internal/report"
	"github.com/andresuchdata/stockcast/internal/service"
)

type MetricsResponse struct {
	Material           string        `json:"material"`
	Location           string        `json:"location"`
	Periods            int           `json:"periods"`
	GrowthRatio        domain.Number `json:"growth_ratio"`
	SpanMonths         domain.Number `json:"span_months"`
	AvgUsage           domain.Number `json:"avg_usage"`
	TotalUsage         domain.Number `json:"total_usage"`
	UsageStdDev        domain.Number `json:"usage_std_dev"`
	AvgInventory       domain.Number `json:"avg_inventory"`
	Turnover           domain.Number `json:"turnover"`
	TurnoverLabel      string        `json:"turnover_label,omitempty"`
	TurnoverDays       domain.Number `json:"turnover_days"`
	Seasonality        domain.Number `json:"seasonality"`
	Trend              domain.Number `json:"trend"`
	ABC                string        `json:"abc"`
	XYZ                string        `json:"xyz"`
	CV                 domain.Number `json:"cv"`
	RecommendedStock   domain.Number `json:"recommended_stock"`
	ReorderPoint       domain.Number `json:"reorder_point"`
	Excess             bool          `json:"excess"`
	UnitCost           domain.Number `json:"unit_cost"`
	LostOpportunity    domain.Number `json:"lost_opportunity"`
	DeficitPeriods     int           `json:"deficit_periods"`
	DeficitPct         domain.Number `json:"deficit_pct"`
	AvgDeficit         domain.Number `json:"avg_deficit"`
	FillRate           domain.Number `json:"fill_rate"`
	NoMovementPeriods  int           `json:"no_movement_periods"`
	DeadStock          bool          `json:"dead_stock"`
	ValidationWarnings []string      `json:"validation_warnings,omitempty"`
}

func toMetricsResponse(rows []domain.MetricsRow) []MetricsResponse {
	out := make([]MetricsResponse, len(rows))
	for i, m := range rows {
		out[i] = MetricsResponse{
			Material:           m.Key.Material,
			Location:           m.Key.Location,
			Periods:            m.Periods,
			GrowthRatio:        domain.Number(m.GrowthRatio),
			SpanMonths:         domain.Number(m.SpanMonths),
			AvgUsage:           domain.Number(m.AvgUsage),
			TotalUsage:         domain.Number(m.TotalUsage),
			UsageStdDev:        domain.Number(m.UsageStdDev),
			AvgInventory:       domain.Number(m.AvgInventory),
			Turnover:           domain.Number(m.Turnover),
			TurnoverLabel:      string(m.TurnoverLabel),
			TurnoverDays:       domain.Number(m.TurnoverDays),
			Seasonality:        domain.Number(m.Seasonality),
			Trend:              domain.Number(m.Trend),
			ABC:                string(m.ABC),
			XYZ:                string(m.XYZ),
			CV:                 domain.Number(m.CV),
			RecommendedStock:   domain.Number(m.RecommendedStock),
			ReorderPoint:       domain.Number(m.ReorderPoint),
			Excess:             m.Excess,
			UnitCost:           domain.Number(m.UnitCost),
			LostOpportunity:    domain.Number(m.LostOpportunity),
			DeficitPeriods:     m.DeficitPeriods,
			DeficitPct:         domain.Number(m.DeficitPct),
			AvgDeficit:         domain.Number(m.AvgDeficit),
			FillRate:           domain.Number(m.FillRate),
			NoMovementPeriods:  m.NoMovementPeriods,
			DeadStock:          m.DeadStock,
			ValidationWarnings: m.ValidationWarnings,
		}
	}
	return out
}

type SelectionResponse struct {
	Material string                     `json:"material"`
	Location string                     `json:"location"`
	Model    string                     `json:"model"`
	Skipped  bool                       `json:"skipped"`
	Reason   string                     `json:"reason,omitempty"`
	Accuracy map[string]AccuracyResponse `json:"accuracy,omitempty"`
	Summary  string                     `json:"summary"`
}

type AccuracyResponse struct {
	MAPE domain.Number `json:"mape"`
	MAE  domain.Number `json:"mae"`
	RMSE domain.Number `json:"rmse"`
	Bias domain.Number `json:"bias"`
}

func toSelectionResponse(sels []pipeline.KeySelection) []SelectionResponse {
	out := make([]SelectionResponse, len(sels))
	for i, s := range sels {
		acc := make(map[string]AccuracyResponse, len(s.Selection.Metrics))
		for kind, a := range s.Selection.Metrics {
			acc[kind.String()] = accuracyResponse(a)
		}
		out[i] = SelectionResponse{
			Material: s.Key.Material,
			Location: s.Key.Location,
			Model:    s.Selection.Model.String(),
			Skipped:  s.Selection.Skipped,
			Reason:   s.Selection.Reason,
			Accuracy: acc,
			Summary:  report.FormatAccuracy(s.Selection.Metrics),
		}
	}
	return out
}

func accuracyResponse(a forecast.Accuracy) AccuracyResponse {
	return AccuracyResponse{
		MAPE: domain.Number(a.MAPE),
		MAE:  domain.Number(a.MAE),
		RMSE: domain.Number(a.RMSE),
		Bias: domain.Number(a.Bias),
	}
}

type CoverageResponse struct {
	TotalOpening domain.Number `json:"total_opening"`
	TotalDemand  domain.Number `json:"total_demand"`
	Ratio        domain.Number `json:"ratio"`
	Shortage     domain.Number `json:"shortage"`
	Sufficient   bool          `json:"sufficient"`
}

func toCoverageResponse(c purchase.Coverage) CoverageResponse {
	return CoverageResponse{
		TotalOpening: domain.Number(c.TotalOpening),
		TotalDemand:  domain.Number(c.TotalDemand),
		Ratio:        domain.Number(c.Ratio),
		Shortage:     domain.Number(c.Shortage),
		Sufficient:   c.Sufficient,
	}
}

// AnalysisResponse is returned by POST /api/v1/analyses.
type AnalysisResponse struct {
	Run                   domain.AnalysisRun         `json:"run"`
	Params                domain.Params              `json:"params"`
	Detection             consumption.Detection      `json:"detection"`
	Balance               consumption.BalanceReport  `json:"balance"`
	Coverage              CoverageResponse           `json:"coverage"`
	Metrics               []MetricsResponse          `json:"metrics"`
	Recommendations       []domain.RecommendationRow `json:"recommendations"`
	Selections            []SelectionResponse        `json:"selections"`
	HistoricalExplanation string                     `json:"historical_explanation,omitempty"`
	ForecastExplanation   string                     `json:"forecast_explanation,omitempty"`
}

func toAnalysisResponse(r *service.Report) AnalysisResponse {
	res := r.Result
	recs := res.Recommendations
	if recs == nil {
		recs = []domain.RecommendationRow{}
	}
	return AnalysisResponse{
		Run:                   r.Run,
		Params:                res.Params,
		Detection:             res.Detection,
		Balance:               res.Balance,
		Coverage:              toCoverageResponse(res.Coverage),
		Metrics:               toMetricsResponse(res.Metrics),
		Recommendations:       recs,
		Selections:            toSelectionResponse(res.Selections),
		HistoricalExplanation: res.HistoricalExplanation,
		ForecastExplanation:   res.ForecastExplanation,
	}
}

// RunResponse is returned by GET /api/v1/analyses/:id.
type RunResponse struct {
	Run             domain.AnalysisRun         `json:"run"`
	Metrics         []MetricsResponse          `json:"metrics"`
	Recommendations []domain.RecommendationRow `json:"recommendations"`
}

func toRunResponse(d *service.RunDetails) RunResponse {
	recs := d.Recommendations
	if recs == nil {
		recs = []domain.RecommendationRow{}
	}
	return RunResponse{
		Run:             d.Run,
		Metrics:         toMetricsResponse(d.Metrics),
		Recommendations: recs,
	}
}
