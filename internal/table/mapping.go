package table

import (
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// HistoryColumns maps semantic roles to column names of a historical table.
// Consumption, Arrival and ClosingCost are optional; leave them empty when the
// dataset does not carry them.
type HistoryColumns struct {
	Timestamp   string `json:"timestamp"`
	Material    string `json:"material"`
	Location    string `json:"location"`
	Opening     string `json:"opening"`
	Closing     string `json:"closing"`
	Consumption string `json:"consumption,omitempty"`
	Arrival     string `json:"arrival,omitempty"`
	ClosingCost string `json:"closing_cost,omitempty"`
}

// DefaultHistoryColumns uses the role names as column names.
func DefaultHistoryColumns() HistoryColumns {
	return HistoryColumns{
		Timestamp:   "period",
		Material:    "material",
		Location:    "location",
		Opening:     "opening",
		Closing:     "closing",
		Consumption: "consumption",
		Arrival:     "arrival",
		ClosingCost: "closing_cost",
	}
}

// Present drops optional roles whose column is not in f.
func (c HistoryColumns) Present(f *Frame) HistoryColumns {
	if c.Consumption != "" && !f.Has(c.Consumption) {
		c.Consumption = ""
	}
	if c.Arrival != "" && !f.Has(c.Arrival) {
		c.Arrival = ""
	}
	if c.ClosingCost != "" && !f.Has(c.ClosingCost) {
		c.ClosingCost = ""
	}
	return c
}

// Numeric lists the numeric columns named by the mapping.
func (c HistoryColumns) Numeric() []string {
	return nonEmpty(c.Opening, c.Closing, c.Consumption, c.Arrival, c.ClosingCost)
}

// Validate checks that every required role is named and present with the right
// type, and that every named optional role is present too.
func (c HistoryColumns) Validate(f *Frame) error {
	required := []struct {
		role, name string
		kind       Kind
	}{
		{"timestamp", c.Timestamp, KindTime},
		{"material", c.Material, KindString},
		{"location", c.Location, KindString},
		{"opening", c.Opening, KindNumber},
		{"closing", c.Closing, KindNumber},
	}
	for _, r := range required {
		if r.name == "" {
			return domain.NewColumnError(r.role, domain.ErrMissingColumn, "no column mapped to role")
		}
		if _, err := f.get(r.name, r.kind); err != nil {
			return err
		}
	}
	for _, name := range nonEmpty(c.Consumption, c.Arrival, c.ClosingCost) {
		if _, err := f.get(name, KindNumber); err != nil {
			return err
		}
	}
	return nil
}

// DemandColumns maps semantic roles to column names of a future-demand table.
type DemandColumns struct {
	Timestamp string `json:"timestamp"`
	Material  string `json:"material"`
	Location  string `json:"location"`
	Demand    string `json:"demand"`
}

func DefaultDemandColumns() DemandColumns {
	return DemandColumns{
		Timestamp: "period",
		Material:  "material",
		Location:  "location",
		Demand:    "demand",
	}
}

func (c DemandColumns) Validate(f *Frame) error {
	required := []struct {
		role, name string
		kind       Kind
	}{
		{"timestamp", c.Timestamp, KindTime},
		{"material", c.Material, KindString},
		{"location", c.Location, KindString},
		{"demand", c.Demand, KindNumber},
	}
	for _, r := range required {
		if r.name == "" {
			return domain.NewColumnError(r.role, domain.ErrMissingColumn, "no column mapped to role")
		}
		if _, err := f.get(r.name, r.kind); err != nil {
			return err
		}
	}
	return nil
}

// BuildSeries groups the rows of f by SeriesKey, orders each group by period
// and rejects duplicate periods and non-finite required values. Blank optional
// values count as zero. The result is ordered by key.
func BuildSeries(f *Frame, c HistoryColumns) ([]domain.Series, error) {
	if err := c.Validate(f); err != nil {
		return nil, err
	}

	periods, _ := f.Times(c.Timestamp)
	materials, _ := f.Strings(c.Material)
	locations, _ := f.Strings(c.Location)
	opening, _ := f.Numbers(c.Opening)
	closing, _ := f.Numbers(c.Closing)
	consumption := optionalNumbers(f, c.Consumption)
	arrival := optionalNumbers(f, c.Arrival)
	cost := optionalNumbers(f, c.ClosingCost)

	index := make(map[domain.SeriesKey]int)
	var out []domain.Series
	for i := 0; i < f.Len(); i++ {
		key, err := rowKey(c.Material, c.Location, materials[i], locations[i], i)
		if err != nil {
			return nil, err
		}
		if err := finite(c.Opening, opening[i], i); err != nil {
			return nil, err
		}
		if err := finite(c.Closing, closing[i], i); err != nil {
			return nil, err
		}
		if periods[i].IsZero() {
			return nil, domain.NewColumnError(c.Timestamp, domain.ErrInvalidValue, "row %d has no timestamp", i+1)
		}

		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, domain.Series{
				Key:            key,
				HasConsumption: consumption != nil,
				HasArrival:     arrival != nil,
				HasClosingCost: cost != nil,
			})
		}
		out[pos].Records = append(out[pos].Records, domain.PeriodRecord{
			Period:      periods[i],
			Opening:     opening[i],
			Closing:     closing[i],
			Consumption: valueAt(consumption, i),
			Arrival:     valueAt(arrival, i),
			ClosingCost: valueAt(cost, i),
		})
	}

	for i := range out {
		recs := out[i].Records
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].Period.Before(recs[b].Period) })
		for j := 1; j < len(recs); j++ {
			if recs[j].Period.Equal(recs[j-1].Period) {
				return nil, domain.NewColumnError(c.Timestamp, domain.ErrDuplicatePeriod,
					"%s has two rows for %s", out[i].Key, recs[j].Period.Format("2006-01-02"))
			}
		}
	}

	domain.SortSeries(out)
	return out, nil
}

// BuildDemand groups a future-demand table by SeriesKey in period order.
func BuildDemand(f *Frame, c DemandColumns) ([]domain.DemandSeries, error) {
	if err := c.Validate(f); err != nil {
		return nil, err
	}

	periods, _ := f.Times(c.Timestamp)
	materials, _ := f.Strings(c.Material)
	locations, _ := f.Strings(c.Location)
	demand, _ := f.Numbers(c.Demand)

	index := make(map[domain.SeriesKey]int)
	var out []domain.DemandSeries
	for i := 0; i < f.Len(); i++ {
		key, err := rowKey(c.Material, c.Location, materials[i], locations[i], i)
		if err != nil {
			return nil, err
		}
		if err := finite(c.Demand, demand[i], i); err != nil {
			return nil, err
		}
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, domain.DemandSeries{Key: key})
		}
		out[pos].Points = append(out[pos].Points, domain.DemandPoint{Period: periods[i], Demand: demand[i]})
	}

	for i := range out {
		pts := out[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Period.Before(pts[b].Period) })
		for j := 1; j < len(pts); j++ {
			if pts[j].Period.Equal(pts[j-1].Period) {
				return nil, domain.NewColumnError(c.Timestamp, domain.ErrDuplicatePeriod,
					"%s has two rows for %s", out[i].Key, pts[j].Period.Format("2006-01-02"))
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

func rowKey(materialCol, locationCol, material, location string, row int) (domain.SeriesKey, error) {
	material = strings.TrimSpace(material)
	location = strings.TrimSpace(location)
	if material == "" {
		return domain.SeriesKey{}, domain.NewColumnError(materialCol, domain.ErrInvalidValue, "row %d is blank", row+1)
	}
	if location == "" {
		return domain.SeriesKey{}, domain.NewColumnError(locationCol, domain.ErrInvalidValue, "row %d is blank", row+1)
	}
	return domain.SeriesKey{Material: material, Location: location}, nil
}

func finite(name string, v float64, row int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewColumnError(name, domain.ErrInvalidValue, "row %d is not a finite number", row+1)
	}
	return nil
}

func optionalNumbers(f *Frame, name string) []float64 {
	if name == "" {
		return nil
	}
	v, _ := f.Numbers(name)
	return v
}

func valueAt(values []float64, i int) float64 {
	if values == nil {
		return 0
	}
	v := values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonEmpty(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
