package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
)

var (
	ErrInsufficientData = errors.New("forecast: insufficient data")
	ErrFitFailed        = errors.New("forecast: fit failed")
	ErrNonFinite        = errors.New("forecast: non-finite forecast")
)

// minimize runs Nelder-Mead on objective from x0 within the bounds of opts and
// the context deadline. Hitting an iteration, evaluation or time limit keeps
// the best point found so far; cancellation is an error.
func minimize(ctx context.Context, objective func(x []float64) float64, x0 []float64, opts FitOptions) ([]float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		FuncEvaluations: opts.MaxEvaluations,
		Runtime:         opts.Timeout,
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, context.DeadlineExceeded
		}
		if settings.Runtime == 0 || remaining < settings.Runtime {
			settings.Runtime = remaining
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return math.Inf(1)
			}
			v := objective(x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return math.Inf(1)
			}
			return v
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, 0, ctxErr
	}
	if result == nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	if result.Status == optimize.Failure {
		return nil, 0, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	if math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return nil, 0, fmt.Errorf("%w: objective is not finite at optimum", ErrFitFailed)
	}
	return result.X, result.F, nil
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
