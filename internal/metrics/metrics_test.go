package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCAGR(t *testing.T) {
	got, err := CAGR(repeat(0.001, 252), 252)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1.001, 252)-1, got, 1e-12)

	// half a year of growth annualizes to the square
	got, err = CAGR(repeat(0.001, 126), 252)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1.001, 252)-1, got, 1e-12)

	got, err = CAGR(nil, 252)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	assert.True(t, math.IsNaN(got))

	got, err = CAGR([]float64{-1.0}, 252)
	assert.Error(t, err)
	assert.True(t, math.IsNaN(got))
}

func TestVolatility(t *testing.T) {
	got, err := Volatility([]float64{0.01, -0.01}, 252)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(252), got, 1e-12)

	got, err = Volatility([]float64{0.01}, 252)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	assert.True(t, math.IsNaN(got))
}

func TestSharpe(t *testing.T) {
	r := []float64{0.01, 0.02, 0.0, -0.01}
	got, err := Sharpe(r, 0, 252)
	require.NoError(t, err)

	mean := 0.005
	std := math.Sqrt((0.005*0.005 + 0.015*0.015 + 0.005*0.005 + 0.015*0.015) / 3)
	assert.InDelta(t, mean/std*math.Sqrt(252), got, 1e-9)

	// risk-free shifts the mean only
	withRf, err := Sharpe(r, 0.252, 252)
	require.NoError(t, err)
	assert.InDelta(t, (mean-0.001)/std*math.Sqrt(252), withRf, 1e-9)

	flat, err := Sharpe(repeat(0.001, 10), 0, 252)
	assert.ErrorIs(t, err, errZeroVariance)
	assert.True(t, math.IsNaN(flat), "zero std is undefined, not an error")
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name string
		r    []float64
		want float64
	}{
		{"peak then crash", []float64{0.1, -0.5, 0.2}, -0.5},
		{"non-decreasing", []float64{0.01, 0.0, 0.02}, 0},
		{"first day loss counts", []float64{-0.1, 0.05}, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaxDrawdown(tt.r)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMaxDrawdown_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(50)
		r := make([]float64, n)
		nonDecreasing := true
		for j := range r {
			r[j] = rng.NormFloat64() * 0.02
			if i%4 == 0 {
				r[j] = math.Abs(r[j])
			}
			if r[j] < 0 {
				nonDecreasing = false
			}
		}

		dd, err := MaxDrawdown(r)
		require.NoError(t, err)
		assert.LessOrEqual(t, dd, 0.0)
		assert.Equal(t, nonDecreasing, dd == 0, "drawdown is zero only on a non-decreasing path")
	}
}

func TestHistoricalVaR(t *testing.T) {
	r := make([]float64, 20)
	for i := range r {
		r[i] = float64(i-5) / 100 // -0.05 … 0.14
	}

	v, cvar, err := HistoricalVaR(r, 0.95)
	require.NoError(t, err)
	// idx = floor(0.05*20) = 1 → sorted[1] = -0.04
	assert.InDelta(t, 0.04, v, 1e-12)
	assert.InDelta(t, 0.045, cvar, 1e-12)

	_, _, err = HistoricalVaR(nil, 0.95)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestRelative(t *testing.T) {
	b := []float64{0.01, -0.02, 0.015, 0.003, -0.007}
	s := make([]float64, len(b))
	for i := range b {
		s[i] = 2 * b[i]
	}

	beta, err := Beta(s, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, beta, 1e-12)

	alpha, err := Alpha(s, b, 252)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, alpha, 1e-12)

	corr, err := Correlation(s, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, corr, 1e-12)

	te, err := TrackingError(s, b, 252)
	require.NoError(t, err)
	assert.Greater(t, te, 0.0)

	ir, err := InformationRatio(s, b, 252)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(ir))
}

func TestInformationRatio_SelfIsUndefined(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		s := make([]float64, 2+rng.Intn(300))
		for j := range s {
			s[j] = rng.NormFloat64() * 0.01
		}

		ir, err := InformationRatio(s, s, 252)
		assert.ErrorIs(t, err, errZeroTrackingError)
		assert.True(t, math.IsNaN(ir))

		te, err := TrackingError(s, s, 252)
		require.NoError(t, err)
		assert.Zero(t, te)
	}
}

func TestRelative_Degenerate(t *testing.T) {
	_, err := Beta([]float64{0.01}, []float64{0.02})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	flat := repeat(0.01, 5)
	beta, err := Beta([]float64{0.01, 0.02, 0.0, 0.01, 0.03}, flat)
	assert.ErrorIs(t, err, errZeroVariance)
	assert.True(t, math.IsNaN(beta))

	alpha, _ := Alpha([]float64{0.01, 0.02, 0.0, 0.01, 0.03}, flat, 252)
	assert.True(t, math.IsNaN(alpha))

	corr, _ := Correlation(flat, flat)
	assert.True(t, math.IsNaN(corr))
}
