// Package report renders analysis results for people: sentinel-aware number
// formatting, accuracy tables and explanation text.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/forecast"
)

const (
	NotAvailable = "N/A"
	Infinite     = "inf"
)

// Locale picks the digit grouping and decimal separators.
type Locale struct {
	Thousands byte
	Decimal   byte
}

var (
	// English groups with commas: 1,234.5
	English = Locale{Thousands: ',', Decimal: '.'}
	// Indonesian groups with dots: 1.234,5
	Indonesian = Locale{Thousands: '.', Decimal: ','}
)

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// Float formats v in English with the given precision. NaN renders as N/A
// and infinities as inf / -inf.
func Float(v float64, decimals int) string {
	return English.Float(v, decimals)
}

// Float formats v with grouped thousands. When the fractional part is zero
// after rounding, the decimal part is omitted.
// Example (Indonesian): 1234.5 (2 decimals) => "1.234,50"; 1000.0 => "1.000".
func (l Locale) Float(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return NotAvailable
	case math.IsInf(v, 1):
		return Infinite
	case math.IsInf(v, -1):
		return "-" + Infinite
	}

	neg := v < 0
	if neg {
		v = -v
	}

	if decimals < 0 {
		decimals = 0
	}

	factor := math.Pow(10, float64(decimals))
	scaled := math.Round(v * factor)
	intPart := int64(scaled) / int64(factor)
	fracPart := int64(scaled) % int64(factor)

	s := group(strconv.FormatInt(intPart, 10), l.Thousands)

	prefix := ""
	if neg && scaled != 0 {
		prefix = "-"
	}

	if decimals == 0 || fracPart == 0 {
		return prefix + s
	}

	fracStr := strconv.FormatInt(fracPart, 10)
	for len(fracStr) < decimals {
		fracStr = "0" + fracStr
	}

	return fmt.Sprintf("%s%s%c%s", prefix, s, l.Decimal, fracStr)
}

func group(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var buf []byte
	count := 0
	for i := len(digits) - 1; i >= 0; i-- {
		buf = append(buf, digits[i])
		count++
		if count == 3 && i != 0 {
			buf = append(buf, sep)
			count = 0
		}
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Percent formats v followed by a percent sign, or N/A.
func Percent(v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return Float(v, 2) + "%"
}

// Turnover renders the turnover ratio, or its label when it has none.
func Turnover(row domain.MetricsRow) string {
	if row.TurnoverLabel != domain.TurnoverNumeric {
		return string(row.TurnoverLabel)
	}
	return Float(row.Turnover, 2)
}

// FormatAccuracy lists the backtest measures of every scored model.
func FormatAccuracy(metrics map[forecast.Kind]forecast.Accuracy) string {
	if len(metrics) == 0 {
		return "Metrics unavailable"
	}

	kinds := make([]forecast.Kind, 0, len(metrics))
	for k := range metrics {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var b strings.Builder
	for _, k := range kinds {
		m := metrics[k]
		fmt.Fprintf(&b, "%s:\n", strings.ToUpper(k.String()))
		fmt.Fprintf(&b, "  MAPE: %s\n", Percent(m.MAPE))
		fmt.Fprintf(&b, "  MAE:  %s\n", Float(m.MAE, 2))
		fmt.Fprintf(&b, "  RMSE: %s\n", Float(m.RMSE, 2))
		fmt.Fprintf(&b, "  Bias: %s\n", Float(m.Bias, 2))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ModelDescription describes a model name as accepted by the API, "auto"
// included.
func ModelDescription(name string) string {
	if strings.EqualFold(strings.TrimSpace(name), domain.ModelAuto) {
		return "Automatic selection of the model with the lowest backtest MAPE."
	}
	kind, err := forecast.ParseKind(name)
	if err != nil {
		return "Unknown model"
	}
	return kind.Description()
}
