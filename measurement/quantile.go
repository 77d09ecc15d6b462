package measurement

import (
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Estimator selects how a quantile is read off a sorted sample.
type Estimator int

const (
	// LinearInterpolation interpolates between the order statistics around h = (n-1)p. This is the
	// default of numpy and R (type 7).
	LinearInterpolation Estimator = iota
	// EmpiricalQuantile returns the smallest sample whose empirical CDF reaches p.
	EmpiricalQuantile
	// PiecewiseLinear interpolates the empirical CDF between samples (gonum's LinInterp).
	PiecewiseLinear
)

func (e Estimator) String() string {
	switch e {
	case LinearInterpolation:
		return "linear"
	case EmpiricalQuantile:
		return "empirical"
	case PiecewiseLinear:
		return "gonum_lininterp"
	default:
		return "unknown"
	}
}

// EstimatorFromString parses the names returned by Estimator.String.
func EstimatorFromString(name string) (Estimator, error) {
	switch strings.ToLower(name) {
	case "", "linear":
		return LinearInterpolation, nil
	case "empirical":
		return EmpiricalQuantile, nil
	case "gonum_lininterp":
		return PiecewiseLinear, nil
	}
	return LinearInterpolation, errors.Errorf("unknown quantile estimator %q", name)
}

func validatePercentile(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return errors.Errorf("percentile must be within [0, 1], got %v", p)
	}
	return nil
}

// quantileOf returns the p-quantile of values, which is left unmodified.
func quantileOf(values []float64, p float64, estimator Estimator) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoSamplesCollected
	}
	if err := validatePercentile(p); err != nil {
		return 0, err
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	switch estimator {
	case LinearInterpolation:
		h := float64(len(sorted)-1) * p
		lo := math.Floor(h)
		lower := sorted[int(lo)]
		if int(lo) == len(sorted)-1 {
			return lower, nil
		}
		return lower + (h-lo)*(sorted[int(lo)+1]-lower), nil
	case EmpiricalQuantile:
		return stat.Quantile(p, stat.Empirical, sorted, nil), nil
	case PiecewiseLinear:
		return stat.Quantile(p, stat.LinInterp, sorted, nil), nil
	default:
		return 0, errors.Errorf("unknown quantile estimator %d", estimator)
	}
}
