package history

// Policy holds the classification thresholds and planning factors.
type Policy struct {
	ABCHigh float64 // |avg usage| above this is class A
	ABCMid  float64 // above this is class B

	XYZLow float64 // cv below this is class X
	XYZMid float64 // below this is class Y

	ServiceFactor    float64 // z-score of the reorder point safety term
	ExcessMultiple   float64 // closing above this many months of usage is excess
	StockMultiple    float64 // recommended stock in months of usage
	SeasonalBoost    float64
	SeasonalityLimit float64
	TrendBoost       float64
	DeadStockShare   float64 // share of no-movement periods that marks dead stock
	MaxUnitCost      float64 // unit costs above this produce a warning
}

func DefaultPolicy() Policy {
	return Policy{
		ABCHigh:          100,
		ABCMid:           50,
		XYZLow:           0.1,
		XYZMid:           0.3,
		ServiceFactor:    1.65,
		ExcessMultiple:   2,
		StockMultiple:    2,
		SeasonalBoost:    1.2,
		SeasonalityLimit: 0.5,
		TrendBoost:       1.1,
		DeadStockShare:   0.5,
		MaxUnitCost:      1_000_000,
	}
}
