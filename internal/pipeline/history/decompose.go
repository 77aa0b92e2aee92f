package history

import "gonum.org/v1/gonum/stat"

// seasonalComponent returns the seasonal part of a classical additive
// decomposition: a centered moving average removes the trend, the detrended
// values are averaged per phase and the phase means are centered on zero.
// Phases without a detrended value contribute zero.
func seasonalComponent(y []float64, period int) []float64 {
	n := len(y)
	if period < 2 || n <= period {
		return nil
	}

	half := period / 2
	sums := make([]float64, period)
	counts := make([]int, period)
	for t := half; t < n-half; t++ {
		var trend float64
		if period%2 == 0 {
			trend = 0.5*y[t-half] + 0.5*y[t+half]
			for j := -half + 1; j < half; j++ {
				trend += y[t+j]
			}
		} else {
			for j := -half; j <= half; j++ {
				trend += y[t+j]
			}
		}
		trend /= float64(period)
		sums[t%period] += y[t] - trend
		counts[t%period]++
	}

	index := make([]float64, period)
	for i := range index {
		if counts[i] > 0 {
			index[i] = sums[i] / float64(counts[i])
		}
	}
	mean := stat.Mean(index, nil)
	for i := range index {
		index[i] -= mean
	}

	out := make([]float64, n)
	for t := range out {
		out[t] = index[t%period]
	}
	return out
}
