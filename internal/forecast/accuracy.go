package forecast

import (
	"math"
)

// Accuracy holds backtest error measures. MAPE is in percent and skips zero
// actuals; it is NaN when every actual is zero.
type Accuracy struct {
	MAPE float64
	MAE  float64
	RMSE float64
	Bias float64
}

// Evaluate compares predicted against actual over their common length.
func Evaluate(actual, predicted []float64) Accuracy {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return Accuracy{MAPE: math.NaN(), MAE: math.NaN(), RMSE: math.NaN(), Bias: math.NaN()}
	}

	var absSum, sqSum, biasSum, apeSum float64
	nonZero := 0
	for i := 0; i < n; i++ {
		diff := predicted[i] - actual[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		biasSum += diff
		if actual[i] != 0 {
			apeSum += math.Abs(diff / actual[i])
			nonZero++
		}
	}

	acc := Accuracy{
		MAPE: math.NaN(),
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
		Bias: biasSum / float64(n),
	}
	if nonZero > 0 {
		acc.MAPE = apeSum / float64(nonZero) * 100
	}
	return acc
}
