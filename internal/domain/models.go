package domain

import (
	"math"
	"sort"
	"time"
)

// SeriesKey identifies one material at one location.
type SeriesKey struct {
	Material string `json:"material" db:"material"`
	Location string `json:"location" db:"location"`
}

func (k SeriesKey) String() string {
	return k.Material + "@" + k.Location
}

// Less orders keys by material, then location.
func (k SeriesKey) Less(other SeriesKey) bool {
	if k.Material != other.Material {
		return k.Material < other.Material
	}
	return k.Location < other.Location
}

// PeriodRecord is one historical period of a series. Optional columns that the
// dataset does not carry are left at zero; see the Has* flags on Series.
type PeriodRecord struct {
	Period      time.Time
	Opening     float64
	Closing     float64
	Consumption float64
	Arrival     float64
	ClosingCost float64
}

// Series holds the ordered history of one SeriesKey.
type Series struct {
	Key            SeriesKey
	Records        []PeriodRecord
	HasConsumption bool
	HasArrival     bool
	HasClosingCost bool
}

// Len returns the number of periods.
func (s Series) Len() int {
	return len(s.Records)
}

// Clone returns a deep copy so later stages can never mutate shared records.
func (s Series) Clone() Series {
	out := s
	out.Records = append([]PeriodRecord(nil), s.Records...)
	return out
}

// Last returns the most recent record.
func (s Series) Last() (PeriodRecord, bool) {
	if len(s.Records) == 0 {
		return PeriodRecord{}, false
	}
	return s.Records[len(s.Records)-1], true
}

func (s Series) Openings() []float64 {
	return s.column(func(r PeriodRecord) float64 { return r.Opening })
}

func (s Series) Closings() []float64 {
	return s.column(func(r PeriodRecord) float64 { return r.Closing })
}

func (s Series) Consumptions() []float64 {
	return s.column(func(r PeriodRecord) float64 { return r.Consumption })
}

func (s Series) Arrivals() []float64 {
	return s.column(func(r PeriodRecord) float64 { return r.Arrival })
}

// Usage returns the per-period demand signal: consumption when the dataset has
// it, otherwise the absolute balance movement.
func (s Series) Usage() []float64 {
	if s.HasConsumption {
		return s.Consumptions()
	}
	return s.column(func(r PeriodRecord) float64 { return math.Abs(r.Opening - r.Closing) })
}

func (s Series) column(get func(PeriodRecord) float64) []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = get(r)
	}
	return out
}

// DemandPoint is one planned (or forecast) period of demand.
type DemandPoint struct {
	Period time.Time
	Demand float64
}

// DemandSeries holds future demand for one SeriesKey in period order.
type DemandSeries struct {
	Key    SeriesKey
	Points []DemandPoint
}

// Values returns the demand quantities.
func (d DemandSeries) Values() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.Demand
	}
	return out
}

// SortSeries orders series by key in place.
func SortSeries(series []Series) {
	sort.Slice(series, func(i, j int) bool { return series[i].Key.Less(series[j].Key) })
}

// AnalysisRun is the persisted header of one analysis execution.
type AnalysisRun struct {
	ID              string     `json:"id" db:"id"`
	Status          RunStatus  `json:"status" db:"status"`
	Mode            string     `json:"mode" db:"mode"`
	Model           string     `json:"model" db:"model"`
	Convention      string     `json:"convention" db:"convention"`
	ConventionScore float64    `json:"convention_confidence" db:"convention_confidence"`
	SeriesCount     int        `json:"series_count" db:"series_count"`
	Horizon         int        `json:"horizon" db:"horizon"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage    string     `json:"error_message,omitempty" db:"error_message"`
	ExportLocation  string     `json:"export_location,omitempty" db:"export_location"`
}
