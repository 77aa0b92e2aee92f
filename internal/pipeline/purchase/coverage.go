package purchase

import (
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Coverage compares projected stock with planned demand.
type Coverage struct {
	TotalOpening float64
	TotalDemand  float64
	Ratio        float64 // NaN when there is no demand
	Shortage     float64
	Sufficient   bool
}

// AnalyzeCoverage sums projected openings and demand over rows.
func AnalyzeCoverage(rows []domain.RecommendationRow) Coverage {
	var c Coverage
	for _, r := range rows {
		c.TotalOpening += r.ProjectedOpening
		c.TotalDemand += r.Demand
	}
	if c.TotalDemand <= 0 {
		c.Ratio = math.NaN()
		c.Sufficient = true
		return c
	}
	c.Ratio = c.TotalOpening / c.TotalDemand
	c.Sufficient = c.Ratio >= 1
	if !c.Sufficient {
		c.Shortage = c.TotalDemand - c.TotalOpening
	}
	return c
}
