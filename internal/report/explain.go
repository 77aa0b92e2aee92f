package report

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/pipeline/history"
)

var funcs = template.FuncMap{
	"num":      func(v float64) string { return Float(v, 2) },
	"pct":      Percent,
	"turnover": Turnover,
	"date":     func(r domain.RecommendationRow) string { return r.Period.Format("2006-01") },
	"model":    ModelDescription,
	"window":   windowText,
}

var historicalTmpl = template.Must(template.New("historical").Funcs(funcs).Parse(
	`Worked example for {{.Row.Key.Material}} at {{.Row.Key.Location}} over {{.Row.Periods}} periods ({{num .Row.SpanMonths}} months):

1. Average usage: {{num .Row.AvgUsage}} per period (total {{num .Row.TotalUsage}}, deviation {{num .Row.UsageStdDev}}).
   ABC class {{.Row.ABC}}: A above {{num .Policy.ABCHigh}}, B above {{num .Policy.ABCMid}}, C otherwise.
2. Average inventory: {{num .Row.AvgInventory}}, the mean of each period's opening and closing midpoint.
3. Turnover: {{turnover .Row}} (total usage / average inventory), {{num .Row.TurnoverDays}} days of stock.
4. Seasonality: {{num .Row.Seasonality}} (deviation of the seasonal component / deviation of closing stock).
5. Trend: {{num .Row.Trend}} per period, the least-squares slope of closing stock.
6. XYZ class {{.Row.XYZ}} from a coefficient of variation of {{num .Row.CV}}: X below {{num .Policy.XYZLow}}, Y below {{num .Policy.XYZMid}}, Z otherwise.
7. Recommended stock level: {{num .Row.RecommendedStock}}, average usage x {{num .Policy.StockMultiple}} adjusted for seasonality and trend.
   Reorder point: {{num .Row.ReorderPoint}} for a {{num .Params.LeadTimeDays}} day lead time.
8. Lost opportunity: {{num .Row.LostOpportunity}}{{if .Row.Excess}}, closing stock exceeds {{num .Policy.ExcessMultiple}} x average usage at unit cost {{num .Row.UnitCost}} and {{num .Params.InterestRate}}% interest{{else}}, no excess stock{{end}}.
9. Deficits: {{.Row.DeficitPeriods}} periods ({{pct .Row.DeficitPct}}), average shortfall {{num .Row.AvgDeficit}}; fill rate {{pct .Row.FillRate}}.
10. Periods without movement: {{.Row.NoMovementPeriods}}{{if .Row.DeadStock}}; this item is dead stock{{end}}.
{{- range .Row.ValidationWarnings}}
Warning: {{.}}
{{- end}}
`))

var forecastTmpl = template.Must(template.New("forecast").Funcs(funcs).Parse(
	`Worked example for {{.Row.Key.Material}} at {{.Row.Key.Location}} in {{date .Row}}:

1. Planned demand: {{num .Row.Demand}}{{if .Row.Model}}, forecast by {{.Row.Model}}{{if .Fallback}} (fitted with {{.Row.Strategy}}){{end}}. {{model .Row.Model}}{{else}}, taken from the planned demand table.{{end}}
2. Projected opening balance: {{num .Row.ProjectedOpening}}{{if .Row.HasHistory}}, the last historical closing balance carried forward{{else}}; there is no history for this item so it starts at zero{{end}}.
3. Projected closing balance: {{num .Row.ProjectedOpening}} - {{num .Row.Demand}} = {{num .Row.ProjectedClosing}}.
4. Demand window: {{num .Row.DemandWindow}}, {{window .Window}}.
5. Safety stock: {{num .Row.SafetyStock}}, {{pct .SafetyPct}} of planned demand.
6. Purchase recommendation: max(0, {{num .Row.DemandWindow}} + {{num .Row.SafetyStock}} - {{num .Row.ProjectedClosing}}) = {{num .Row.Recommendation}}.
{{- if .Selection}}

Model selection: {{.Selection.Reason}}.
{{.Accuracy}}
{{- end}}
`))

// Historical explains the first metrics row.
func Historical(row domain.MetricsRow, params domain.Params, policy history.Policy) string {
	var b strings.Builder
	data := struct {
		Row    domain.MetricsRow
		Params domain.Params
		Policy history.Policy
	}{row, params, policy}
	if err := historicalTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// Forecast explains a recommendation row whose demand window spans window
// periods. selection may be nil.
func Forecast(row domain.RecommendationRow, safetyFraction float64, window int, selection *forecast.Selection) string {
	var b strings.Builder
	data := struct {
		Row       domain.RecommendationRow
		SafetyPct float64
		Window    int
		Fallback  bool
		Selection *forecast.Selection
		Accuracy  string
	}{
		Row:       row,
		SafetyPct: safetyFraction * 100,
		Window:    window,
		Fallback:  row.Strategy != "" && row.Strategy != row.Model,
		Selection: selection,
	}
	if selection != nil && !selection.Skipped {
		data.Accuracy = FormatAccuracy(selection.Metrics)
	}
	if err := forecastTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

func windowText(window int) string {
	switch {
	case window <= 1:
		return "the demand of this period"
	case window == 2:
		return "the demand of this period and the next one"
	}
	return "the demand of this period and the next " + strconv.Itoa(window-1)
}
