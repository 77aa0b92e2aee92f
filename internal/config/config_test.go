package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func TestAnalysisConfigParams(t *testing.T) {
	a := AnalysisConfig{
		InterestRate:    7.5,
		LeadTimeDays:    14,
		SafetyFraction:  0.2,
		Horizon:         6,
		Model:           "ses",
		Convention:      "negative",
		SeasonalPeriods: 4,
		TestSize:        3,
		Workers:         8,
	}

	assert.Equal(t, domain.Params{
		InterestRate:    7.5,
		LeadTimeDays:    14,
		SafetyFraction:  0.2,
		Horizon:         6,
		Model:           "ses",
		Convention:      domain.ConventionNegative,
		SeasonalPeriods: 4,
		TestSize:        3,
	}, a.Params())
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir() + "/nested/out"

	ensureDir(dir)

	assert.DirExists(t, dir)
}
