package metrics

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/panel"
)

func randomSeries(name string, seed int64, n int, start time.Time) contracts.ReturnSeries {
	rng := rand.New(rand.NewSource(seed))
	s := contracts.ReturnSeries{Name: name}
	for i := 0; i < n; i++ {
		s.Points = append(s.Points, contracts.Point{
			Date:  start.AddDate(0, 0, i),
			Value: 0.0004 + rng.NormFloat64()*0.01,
		})
	}
	return s
}

var t0 = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func TestEngine_Compute(t *testing.T) {
	port := randomSeries("p", 1, 300, t0)
	bench := randomSeries("b", 2, 280, t0.AddDate(0, 0, 40)) // starts later, ends later
	extra := randomSeries("TLT", 3, 100, t0)

	p, err := panel.Build(port, bench, extra)
	require.NoError(t, err)

	report, err := NewEngine(DefaultOptions()).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)

	assert.Equal(t, 300, report.Observations)
	assert.Equal(t, 260, report.OverlapObservations)
	assert.Equal(t, t0, report.Start)

	for _, key := range append(append([]string{}, contracts.CoreMetricKeys...), contracts.RelativeMetricKeys...) {
		v, ok := report.Point[key]
		require.True(t, ok, key)
		assert.False(t, math.IsNaN(v), key)
	}
	assert.LessOrEqual(t, report.Point[contracts.MetricMaxDrawdown], 0.0)

	// relative stats use the overlap only
	_, xs, ys := p.Overlap(contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	wantBeta, _ := Beta(xs, ys)
	assert.InDelta(t, wantBeta, report.Point[contracts.MetricBeta], 1e-12)

	// point metrics use the portfolio's own full range
	wantVol, _ := Volatility(port.Values(), 252)
	assert.InDelta(t, wantVol, report.Point[contracts.MetricVolatility], 1e-12)

	// per column tables
	require.Contains(t, report.Columns, "TLT")
	assert.Contains(t, report.Columns["TLT"], contracts.MetricBeta)
	assert.NotContains(t, report.Columns[contracts.ColumnBenchmark], contracts.MetricBeta)

	// rolling aligned to the portfolio's own dates
	rv := report.Rolling[contracts.SeriesRollingVolatility]
	require.Len(t, rv.Points, 300-63+1)
	assert.Equal(t, port.Points[62].Date, rv.Points[0].Date)
	assert.Len(t, report.Rolling[contracts.SeriesEquityCurve].Points, 300)
	assert.Empty(t, report.Notes)
}

func TestEngine_SelfBenchmark(t *testing.T) {
	s := randomSeries("SPY", 9, 120, t0)
	p, err := panel.Build(s, s)
	require.NoError(t, err)

	report, err := NewEngine(Options{}).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(report.Point[contracts.MetricInformationRatio]))
	assert.Equal(t, 0.0, report.Point[contracts.MetricTrackingError])
	assert.InDelta(t, 1.0, report.Point[contracts.MetricBeta], 1e-12)
	assert.InDelta(t, 1.0, report.Point[contracts.MetricCorrelation], 1e-12)
	assert.Contains(t, report.Notes, contracts.MetricInformationRatio)
}

func TestEngine_ShortBenchmarkDegradesPerMetric(t *testing.T) {
	port := randomSeries("p", 4, 30, t0)
	bench := randomSeries("b", 5, 1, t0.AddDate(0, 0, 29))
	p, err := panel.Build(port, bench)
	require.NoError(t, err)

	report, err := NewEngine(DefaultOptions()).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)

	// portfolio point metrics still computed
	assert.False(t, math.IsNaN(report.Point[contracts.MetricVolatility]))
	assert.False(t, math.IsNaN(report.Point[contracts.MetricCAGR]))

	for _, key := range contracts.RelativeMetricKeys {
		assert.True(t, math.IsNaN(report.Point[key]), key)
		assert.Contains(t, report.Notes[key], "insufficient data")
	}
	// benchmark's own volatility needs two observations
	assert.Contains(t, report.Notes, "benchmark."+contracts.MetricVolatility)

	// 30 < 63
	assert.Empty(t, report.Rolling[contracts.SeriesRollingSharpe].Points)
	assert.Contains(t, report.Notes, contracts.SeriesRollingSharpe)
}

func TestEngine_Deterministic(t *testing.T) {
	p, err := panel.Build(randomSeries("p", 11, 200, t0), randomSeries("b", 12, 200, t0))
	require.NoError(t, err)

	engine := NewEngine(DefaultOptions())
	first, err := engine.Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)
	second, err := engine.Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestEngine_Errors(t *testing.T) {
	p, err := panel.Build(randomSeries("p", 1, 10, t0), randomSeries("b", 2, 10, t0))
	require.NoError(t, err)

	_, err = NewEngine(DefaultOptions()).Compute(p, "missing", contracts.ColumnBenchmark)
	assert.Error(t, err)

	_, err = NewEngine(DefaultOptions()).Compute(p, contracts.ColumnPortfolio, "missing")
	assert.Error(t, err)

	_, err = NewEngine(Options{Window: 1}).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	assert.Error(t, err)
}
