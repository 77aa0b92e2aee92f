package domain

import (
	"fmt"
	"strings"
)

// Convention is how a dataset signs its consumption column.
type Convention string

const (
	ConventionAuto           Convention = "auto"
	ConventionPositive       Convention = "positive"
	ConventionNegative       Convention = "negative"
	ConventionAbs            Convention = "abs"
	ConventionMostlyPositive Convention = "mostly_positive"
	ConventionMostlyNegative Convention = "mostly_negative"
	ConventionMixed          Convention = "mixed"
)

// ParseConvention accepts the conventions a caller may request.
func ParseConvention(s string) (Convention, error) {
	c := Convention(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "":
		return ConventionAuto, nil
	case ConventionAuto, ConventionPositive, ConventionNegative, ConventionAbs:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConvention, s)
}

// ModelAuto requests backtest-driven model selection.
const ModelAuto = "auto"

// Mode says where future demand comes from.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// Params are the caller-supplied analysis parameters.
type Params struct {
	InterestRate    float64    `json:"interest_rate"` // percent per year
	LeadTimeDays    float64    `json:"lead_time_days"`
	SafetyFraction  float64    `json:"safety_fraction"`
	Horizon         int        `json:"horizon"`
	Model           string     `json:"model"`
	Convention      Convention `json:"convention"`
	SeasonalPeriods int        `json:"seasonal_periods"`
	TestSize        int        `json:"test_size"`
}

// DefaultParams returns the parameters used when a caller supplies none.
func DefaultParams() Params {
	return Params{
		InterestRate:    5,
		LeadTimeDays:    30,
		SafetyFraction:  0.20,
		Horizon:         12,
		Model:           ModelAuto,
		Convention:      ConventionAuto,
		SeasonalPeriods: 12,
		TestSize:        3,
	}
}

// WithDefaults fills zero-valued fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.LeadTimeDays == 0 {
		p.LeadTimeDays = d.LeadTimeDays
	}
	if p.Horizon == 0 {
		p.Horizon = d.Horizon
	}
	if p.Model == "" {
		p.Model = d.Model
	}
	if p.Convention == "" {
		p.Convention = d.Convention
	}
	if p.SeasonalPeriods == 0 {
		p.SeasonalPeriods = d.SeasonalPeriods
	}
	if p.TestSize == 0 {
		p.TestSize = d.TestSize
	}
	return p
}

// Validate rejects out-of-range parameters.
func (p Params) Validate() error {
	switch {
	case p.InterestRate < 0:
		return fmt.Errorf("%w: interest rate must be >= 0, got %v", ErrInvalidParams, p.InterestRate)
	case p.LeadTimeDays < 0:
		return fmt.Errorf("%w: lead time must be >= 0, got %v", ErrInvalidParams, p.LeadTimeDays)
	case p.SafetyFraction < 0:
		return fmt.Errorf("%w: safety fraction must be >= 0, got %v", ErrInvalidParams, p.SafetyFraction)
	case p.Horizon < 1:
		return fmt.Errorf("%w: horizon must be >= 1, got %d", ErrInvalidParams, p.Horizon)
	case p.SeasonalPeriods < 2:
		return fmt.Errorf("%w: seasonal periods must be >= 2, got %d", ErrInvalidParams, p.SeasonalPeriods)
	case p.TestSize < 1:
		return fmt.Errorf("%w: test size must be >= 1, got %d", ErrInvalidParams, p.TestSize)
	}
	if _, err := ParseConvention(string(p.Convention)); err != nil {
		return err
	}
	return nil
}
