package domain

import "time"

// TurnoverLabel explains why a turnover ratio is not a plain number.
type TurnoverLabel string

const (
	TurnoverNumeric    TurnoverLabel = ""
	TurnoverNoMovement TurnoverLabel = "no movement"
	TurnoverNoUsage    TurnoverLabel = "no usage"
	TurnoverNoStock    TurnoverLabel = "no stock"
	TurnoverDataError  TurnoverLabel = "data error"
)

type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

type XYZClass string

const (
	ClassX XYZClass = "X"
	ClassY XYZClass = "Y"
	ClassZ XYZClass = "Z"
)

// MetricsRow is the historical analysis of one series. Undefined numeric
// values are NaN; growth with a zero starting balance is +Inf. Use Number when
// encoding it to JSON.
type MetricsRow struct {
	Key                SeriesKey
	Periods            int
	GrowthRatio        float64
	SpanMonths         float64
	AvgUsage           float64
	TotalUsage         float64
	UsageStdDev        float64
	AvgInventory       float64
	Turnover           float64
	TurnoverLabel      TurnoverLabel
	TurnoverDays       float64
	Seasonality        float64
	Trend              float64
	ABC                ABCClass
	XYZ                XYZClass
	CV                 float64
	RecommendedStock   float64
	ReorderPoint       float64
	Excess             bool
	UnitCost           float64
	LostOpportunity    float64
	DeficitPeriods     int
	DeficitPct         float64
	AvgDeficit         float64
	FillRate           float64
	NoMovementPeriods  int
	DeadStock          bool
	ValidationWarnings []string
}

// RecommendationRow is one future period of the purchase plan for a series.
type RecommendationRow struct {
	Key              SeriesKey `json:"key"`
	Period           time.Time `json:"period"`
	Step             int       `json:"step"`
	Demand           float64   `json:"demand"`
	ProjectedOpening float64   `json:"projected_opening"`
	ProjectedClosing float64   `json:"projected_closing"`
	DemandWindow     float64   `json:"demand_window"`
	SafetyStock      float64   `json:"safety_stock"`
	Recommendation   float64   `json:"recommendation"`
	Model            string    `json:"model"`
	Strategy         string    `json:"strategy,omitempty"`
	HasHistory       bool      `json:"has_history"`
}
