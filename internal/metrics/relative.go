package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Benchmark-relative statistics. s and b are aligned on the overlap window.

// Beta is cov(s, b) / var(b)
func Beta(s, b []float64) (float64, error) {
	if len(s) < 2 {
		return math.NaN(), insufficient(len(s), 2)
	}
	v := stat.Variance(b, nil)
	if v < zeroTolerance*zeroTolerance {
		return math.NaN(), errZeroVariance
	}
	return stat.Covariance(s, b, nil) / v, nil
}

// Alpha is mean(s - beta*b) × periodsPerYear
func Alpha(s, b []float64, periodsPerYear int) (float64, error) {
	beta, err := Beta(s, b)
	if err != nil {
		return math.NaN(), err
	}

	residual := make([]float64, len(s))
	for i := range s {
		residual[i] = s[i] - beta*b[i]
	}
	return stat.Mean(residual, nil) * float64(periodsPerYear), nil
}

func active(s, b []float64) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i] - b[i]
	}
	return out
}

// TrackingError is std(s - b) × √periodsPerYear
func TrackingError(s, b []float64, periodsPerYear int) (float64, error) {
	if len(s) < 2 {
		return math.NaN(), insufficient(len(s), 2)
	}
	return stat.StdDev(active(s, b), nil) * math.Sqrt(float64(periodsPerYear)), nil
}

// InformationRatio is mean(s - b) × periodsPerYear / tracking error.
// Undefined when the tracking error is zero, e.g. a series against itself.
func InformationRatio(s, b []float64, periodsPerYear int) (float64, error) {
	te, err := TrackingError(s, b, periodsPerYear)
	if err != nil {
		return math.NaN(), err
	}
	if te < zeroTolerance {
		return math.NaN(), errZeroTrackingError
	}
	return stat.Mean(active(s, b), nil) * float64(periodsPerYear) / te, nil
}

// Correlation is the Pearson correlation of s and b
func Correlation(s, b []float64) (float64, error) {
	if len(s) < 2 {
		return math.NaN(), insufficient(len(s), 2)
	}
	if stat.StdDev(s, nil) < zeroTolerance || stat.StdDev(b, nil) < zeroTolerance {
		return math.NaN(), errZeroVariance
	}
	return stat.Correlation(s, b, nil), nil
}
