package handlers

import (
	"math"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/ingest"
	"github.com/andresuchdata/stockcast/internal/table"
)

// ParamsRequest overrides the service defaults. Absent fields keep the
// default, so an explicit zero is honoured.
type ParamsRequest struct {
	InterestRate    *float64 `json:"interest_rate" form:"interest_rate"`
	LeadTimeDays    *float64 `json:"lead_time_days" form:"lead_time_days"`
	SafetyFraction  *float64 `json:"safety_fraction" form:"safety_fraction"`
	Horizon         *int     `json:"horizon" form:"horizon"`
	Model           *string  `json:"model" form:"model"`
	Convention      *string  `json:"convention" form:"convention"`
	SeasonalPeriods *int     `json:"seasonal_periods" form:"seasonal_periods"`
	TestSize        *int     `json:"test_size" form:"test_size"`
}

func (p ParamsRequest) Apply(base domain.Params) domain.Params {
	if p.InterestRate != nil {
		base.InterestRate = *p.InterestRate
	}
	if p.LeadTimeDays != nil {
		base.LeadTimeDays = *p.LeadTimeDays
	}
	if p.SafetyFraction != nil {
		base.SafetyFraction = *p.SafetyFraction
	}
	if p.Horizon != nil {
		base.Horizon = *p.Horizon
	}
	if p.Model != nil {
		base.Model = strings.TrimSpace(*p.Model)
	}
	if p.Convention != nil {
		base.Convention = domain.Convention(strings.TrimSpace(*p.Convention))
	}
	if p.SeasonalPeriods != nil {
		base.SeasonalPeriods = *p.SeasonalPeriods
	}
	if p.TestSize != nil {
		base.TestSize = *p.TestSize
	}
	return base
}

type HistoryRow struct {
	Period      string   `json:"period"`
	Material    string   `json:"material"`
	Location    string   `json:"location"`
	Opening     float64  `json:"opening"`
	Closing     float64  `json:"closing"`
	Consumption *float64 `json:"consumption,omitempty"`
	Arrival     *float64 `json:"arrival,omitempty"`
	ClosingCost *float64 `json:"closing_cost,omitempty"`
}

type DemandRow struct {
	Period   string  `json:"period"`
	Material string  `json:"material"`
	Location string  `json:"location"`
	Demand   float64 `json:"demand"`
}

// AnalysisRequest is the JSON body of POST /api/v1/analyses.
type AnalysisRequest struct {
	History []HistoryRow  `json:"history"`
	Demand  []DemandRow   `json:"demand,omitempty"`
	Params  ParamsRequest `json:"params"`
}

// historySeries runs the rows through the same table validation as
// uploaded files. An optional column is present when any row sets it.
func historySeries(rows []HistoryRow) ([]domain.Series, error) {
	cols := table.DefaultHistoryColumns()
	n := len(rows)
	periods := make([]string, n)
	materials := make([]string, n)
	locations := make([]string, n)
	opening := make([]float64, n)
	closing := make([]float64, n)
	var consumption, arrival, cost []float64

	optional := func(dst *[]float64, i int, v *float64) {
		if v == nil {
			return
		}
		if *dst == nil {
			*dst = make([]float64, n)
			for j := range *dst {
				(*dst)[j] = math.NaN()
			}
		}
		(*dst)[i] = *v
	}

	for i, r := range rows {
		periods[i] = r.Period
		materials[i] = r.Material
		locations[i] = r.Location
		opening[i] = r.Opening
		closing[i] = r.Closing
		optional(&consumption, i, r.Consumption)
		optional(&arrival, i, r.Arrival)
		optional(&cost, i, r.ClosingCost)
	}

	f := table.NewFrame()
	if err := addTimes(f, cols.Timestamp, periods); err != nil {
		return nil, err
	}
	if err := f.AddStrings(cols.Material, materials); err != nil {
		return nil, err
	}
	if err := f.AddStrings(cols.Location, locations); err != nil {
		return nil, err
	}
	if err := f.AddNumbers(cols.Opening, opening); err != nil {
		return nil, err
	}
	if err := f.AddNumbers(cols.Closing, closing); err != nil {
		return nil, err
	}
	for name, values := range map[string][]float64{cols.Consumption: consumption, cols.Arrival: arrival, cols.ClosingCost: cost} {
		if values == nil {
			continue
		}
		if err := f.AddNumbers(name, values); err != nil {
			return nil, err
		}
	}
	return table.BuildSeries(f, cols.Present(f))
}

func demandSeries(rows []DemandRow) ([]domain.DemandSeries, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := table.DefaultDemandColumns()
	n := len(rows)
	periods := make([]string, n)
	materials := make([]string, n)
	locations := make([]string, n)
	demand := make([]float64, n)
	for i, r := range rows {
		periods[i] = r.Period
		materials[i] = r.Material
		locations[i] = r.Location
		demand[i] = r.Demand
	}

	f := table.NewFrame()
	if err := addTimes(f, cols.Timestamp, periods); err != nil {
		return nil, err
	}
	if err := f.AddStrings(cols.Material, materials); err != nil {
		return nil, err
	}
	if err := f.AddStrings(cols.Location, locations); err != nil {
		return nil, err
	}
	if err := f.AddNumbers(cols.Demand, demand); err != nil {
		return nil, err
	}
	return table.BuildDemand(f, cols)
}

func addTimes(f *table.Frame, name string, raw []string) error {
	values := make([]time.Time, len(raw))
	for i, v := range raw {
		t, err := ingest.ParseTime(strings.TrimSpace(v))
		if err != nil {
			return domain.NewColumnError(name, domain.ErrInvalidValue, "row %d: %v", i+1, err)
		}
		values[i] = t
	}
	return f.AddTimes(name, values)
}
