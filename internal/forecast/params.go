package forecast

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Component selects how trend or seasonality combines with the level.
type Component int

const (
	ComponentNone Component = iota
	Additive
	Multiplicative
)

func (c Component) String() string {
	switch c {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	}
	return "none"
}

// ParseComponent accepts "add"/"additive", "mul"/"multiplicative" and "none".
func ParseComponent(s string) (Component, error) {
	switch s {
	case "", "none":
		return ComponentNone, nil
	case "add", "additive":
		return Additive, nil
	case "mul", "multiplicative":
		return Multiplicative, nil
	}
	return ComponentNone, fmt.Errorf("%w: unknown component %q", domain.ErrInvalidParams, s)
}

// Order is a non-seasonal ARIMA order.
type Order struct {
	P, D, Q int
}

// SeasonalOrder is a seasonal ARIMA order with period S.
type SeasonalOrder struct {
	P, D, Q, S int
}

// FitOptions bound every numerical fit. Zero values mean no bound.
type FitOptions struct {
	MaxIterations  int
	MaxEvaluations int
	Timeout        time.Duration
}

// Params configures every model. Build it with DefaultParams and override
// fields as needed.
type Params struct {
	Window          int
	Alpha           float64
	SeasonalPeriods int
	Trend           Component
	Seasonal        Component
	Order           Order
	SeasonalOrder   SeasonalOrder
	Fit             FitOptions
}

func DefaultParams() Params {
	return Params{
		Window:          3,
		Alpha:           0.3,
		SeasonalPeriods: 12,
		Trend:           Additive,
		Seasonal:        Additive,
		Order:           Order{P: 1, D: 1, Q: 1},
		SeasonalOrder:   SeasonalOrder{P: 1, D: 1, Q: 1, S: 12},
		Fit: FitOptions{
			MaxIterations:  200,
			MaxEvaluations: 2000,
			Timeout:        5 * time.Second,
		},
	}
}

// WithSeason sets the seasonal period used by Holt-Winters and SARIMA.
func (p Params) WithSeason(period int) Params {
	if period > 1 {
		p.SeasonalPeriods = period
		p.SeasonalOrder.S = period
	}
	return p
}

// SARIMAMinObservations is the shortest series SARIMA fits on its own.
func (p Params) SARIMAMinObservations() int {
	n := p.Order.P + p.Order.Q + p.SeasonalOrder.P + p.SeasonalOrder.Q + p.SeasonalOrder.S
	if n < 20 {
		return 20
	}
	return n
}

func (p Params) Validate() error {
	switch {
	case p.Window < 1:
		return fmt.Errorf("%w: window must be >= 1, got %d", domain.ErrInvalidParams, p.Window)
	case p.Alpha <= 0 || p.Alpha >= 1:
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", domain.ErrInvalidParams, p.Alpha)
	case p.SeasonalPeriods < 2:
		return fmt.Errorf("%w: seasonal periods must be >= 2, got %d", domain.ErrInvalidParams, p.SeasonalPeriods)
	case p.Order.P < 0 || p.Order.D < 0 || p.Order.Q < 0:
		return fmt.Errorf("%w: negative ARIMA order %+v", domain.ErrInvalidParams, p.Order)
	case p.SeasonalOrder.P < 0 || p.SeasonalOrder.D < 0 || p.SeasonalOrder.Q < 0 || p.SeasonalOrder.S < 2:
		return fmt.Errorf("%w: bad seasonal ARIMA order %+v", domain.ErrInvalidParams, p.SeasonalOrder)
	}
	return nil
}
