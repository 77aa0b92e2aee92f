// Package forecast holds the demand forecasting models, their fallback chains
// and the backtest that picks a model for a series.
package forecast

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Kind is one of the forecasting models the library knows about.
type Kind int

const (
	Naive Kind = iota
	MovingAverage
	ExponentialSmoothing
	HoltWinters
	SARIMA
)

var kindNames = [...]string{
	Naive:                "naive",
	MovingAverage:        "moving_average",
	ExponentialSmoothing: "exponential_smoothing",
	HoltWinters:          "holt_winters",
	SARIMA:               "sarima",
}

var kindDescriptions = [...]string{
	Naive:                "Repeats the last observed value for every future period.",
	MovingAverage:        "Averages the most recent periods (3 by default) and projects it flat.",
	ExponentialSmoothing: "Single exponential smoothing with a fixed smoothing factor; flat projection of the final level.",
	HoltWinters:          "Triple exponential smoothing with level, trend and yearly seasonality, smoothing factors fit to the data.",
	SARIMA:               "Seasonal ARIMA(1,1,1)(1,1,1,12) fit by conditional sum of squares; needs at least 20 observations.",
}

// Kinds lists every model in backtest order.
func Kinds() []Kind {
	return []Kind{Naive, MovingAverage, ExponentialSmoothing, HoltWinters, SARIMA}
}

func (k Kind) valid() bool {
	return k >= Naive && k <= SARIMA
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Description is a one-line human explanation of the model.
func (k Kind) Description() string {
	if !k.valid() {
		return ""
	}
	return kindDescriptions[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownModel, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a model name. "auto" is not a Kind; callers handle it.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	switch n {
	case "ses", "exponential":
		return ExponentialSmoothing, nil
	case "hw":
		return HoltWinters, nil
	case "ma":
		return MovingAverage, nil
	}
	for k, candidate := range kindNames {
		if candidate == n {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownModel, name)
}
