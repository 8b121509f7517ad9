package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// zeroTolerance treats a dispersion this small as exactly zero
const zeroTolerance = 1e-14

var (
	errZeroVariance      = errors.New("standard deviation is zero")
	errZeroTrackingError = errors.New("tracking error is zero")
)

func insufficient(n, need int) error {
	return fmt.Errorf("%w: %d observations, need %d", contracts.ErrInsufficientData, n, need)
}

// EquityPath compounds returns from 1.0. The result has len(r)+1 values, path[0] = 1.
func EquityPath(r []float64) []float64 {
	path := make([]float64, len(r)+1)
	path[0] = 1.0
	for i, x := range r {
		path[i+1] = path[i] * (1 + x)
	}
	return path
}

// TotalReturn is the compounded return over the whole series
func TotalReturn(r []float64) (float64, error) {
	if len(r) < 1 {
		return math.NaN(), insufficient(len(r), 1)
	}
	path := EquityPath(r)
	return path[len(path)-1] - 1, nil
}

// CAGR = (final/initial)^(periodsPerYear/N) - 1 over a path compounded from 1.0
func CAGR(r []float64, periodsPerYear int) (float64, error) {
	if len(r) < 1 {
		return math.NaN(), insufficient(len(r), 1)
	}
	path := EquityPath(r)
	final := path[len(path)-1]
	if final <= 0 {
		return math.NaN(), fmt.Errorf("terminal value %.6g is not positive", final)
	}
	return math.Pow(final, float64(periodsPerYear)/float64(len(r))) - 1, nil
}

// Volatility is the sample standard deviation annualized by √periodsPerYear
func Volatility(r []float64, periodsPerYear int) (float64, error) {
	if len(r) < 2 {
		return math.NaN(), insufficient(len(r), 2)
	}
	return stat.StdDev(r, nil) * math.Sqrt(float64(periodsPerYear)), nil
}

// Sharpe is mean/std of excess returns annualized by √periodsPerYear.
// riskFree is annual, the per-period rate is riskFree/periodsPerYear.
func Sharpe(r []float64, riskFree float64, periodsPerYear int) (float64, error) {
	if len(r) < 2 {
		return math.NaN(), insufficient(len(r), 2)
	}

	rfPeriod := riskFree / float64(periodsPerYear)
	excess := make([]float64, len(r))
	for i, x := range r {
		excess[i] = x - rfPeriod
	}

	mean, std := stat.MeanStdDev(excess, nil)
	if std < zeroTolerance {
		return math.NaN(), errZeroVariance
	}
	return mean / std * math.Sqrt(float64(periodsPerYear)), nil
}

// MaxDrawdown is the most negative value/peak - 1 along the path, starting value included.
// Always <= 0.
func MaxDrawdown(r []float64) (float64, error) {
	if len(r) < 1 {
		return math.NaN(), insufficient(len(r), 1)
	}

	worst := 0.0
	peak := 1.0
	value := 1.0
	for _, x := range r {
		value *= 1 + x
		peak = math.Max(peak, value)
		if dd := value/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst, nil
}

// HistoricalVaR returns VaR and CVaR by historical simulation, losses positive.
// VaR is the negated (1-confidence) quantile, CVaR the negated mean of the tail up to it.
func HistoricalVaR(r []float64, confidence float64) (varValue, cvar float64, err error) {
	if len(r) < 1 {
		return math.NaN(), math.NaN(), insufficient(len(r), 1)
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(r))
	copy(sorted, r)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return -sorted[idx], -stat.Mean(sorted[:idx+1], nil), nil
}
