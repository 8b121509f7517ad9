package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// Point metric keys
const (
	MetricCAGR        = "cagr"
	MetricVolatility  = "volatility"
	MetricSharpe      = "sharpe"
	MetricMaxDrawdown = "max_drawdown"
	MetricTotalReturn = "total_return"
	MetricVaR95       = "var_95"
	MetricCVaR95      = "cvar_95"

	MetricBeta             = "beta"
	MetricAlpha            = "alpha_annual"
	MetricTrackingError    = "tracking_error"
	MetricInformationRatio = "information_ratio"
	MetricCorrelation      = "correlation"
)

// Rolling series keys
const (
	SeriesRollingVolatility = "rolling_volatility"
	SeriesRollingSharpe     = "rolling_sharpe"
	SeriesEquityCurve       = "equity_curve"
	SeriesDrawdown          = "drawdown"
)

// CoreMetricKeys lists the per-column core statistics in display order
var CoreMetricKeys = []string{
	MetricCAGR, MetricVolatility, MetricSharpe, MetricMaxDrawdown,
	MetricTotalReturn, MetricVaR95, MetricCVaR95,
}

// RelativeMetricKeys lists the benchmark-relative statistics in display order
var RelativeMetricKeys = []string{
	MetricBeta, MetricAlpha, MetricTrackingError, MetricInformationRatio, MetricCorrelation,
}

// MetricsReport is the MetricsEngine output.
// NaN means undefined, Notes explains why.
type MetricsReport struct {
	Portfolio string
	Benchmark string

	Observations        int // portfolio observations
	OverlapObservations int // portfolio ∩ benchmark
	Start               time.Time
	End                 time.Time

	Point   map[string]float64
	Rolling map[string]ReturnSeries
	Columns map[string]map[string]float64
	Notes   map[string]string
}

// NewMetricsReport returns a report with initialized maps
func NewMetricsReport(portfolio, benchmark string) *MetricsReport {
	return &MetricsReport{
		Portfolio: portfolio,
		Benchmark: benchmark,
		Point:     make(map[string]float64),
		Rolling:   make(map[string]ReturnSeries),
		Columns:   make(map[string]map[string]float64),
		Notes:     make(map[string]string),
	}
}

// Metric returns a point metric, NaN when absent
func (r *MetricsReport) Metric(key string) float64 {
	v, ok := r.Point[key]
	if !ok {
		return math.NaN()
	}
	return v
}

// Note records why key is undefined, keeping the first reason
func (r *MetricsReport) Note(key, reason string) {
	if _, exists := r.Notes[key]; !exists {
		r.Notes[key] = reason
	}
}

// MarshalJSON renders NaN metrics as null
func (r *MetricsReport) MarshalJSON() ([]byte, error) {
	point := make(map[string]*float64, len(r.Point))
	for k, v := range r.Point {
		point[k] = nullable(v)
	}

	columns := make(map[string]map[string]*float64, len(r.Columns))
	for name, stats := range r.Columns {
		m := make(map[string]*float64, len(stats))
		for k, v := range stats {
			m[k] = nullable(v)
		}
		columns[name] = m
	}

	var start, end string
	if !r.Start.IsZero() {
		start = r.Start.Format(DateLayout)
	}
	if !r.End.IsZero() {
		end = r.End.Format(DateLayout)
	}

	return json.Marshal(struct {
		Portfolio           string                         `json:"portfolio"`
		Benchmark           string                         `json:"benchmark"`
		Observations        int                            `json:"observations"`
		OverlapObservations int                            `json:"overlap_observations"`
		Start               string                         `json:"start,omitempty"`
		End                 string                         `json:"end,omitempty"`
		Point               map[string]*float64            `json:"point"`
		Rolling             map[string]ReturnSeries        `json:"rolling"`
		Columns             map[string]map[string]*float64 `json:"columns"`
		Notes               map[string]string              `json:"notes,omitempty"`
	}{
		r.Portfolio, r.Benchmark, r.Observations, r.OverlapObservations,
		start, end, point, r.Rolling, columns, r.Notes,
	})
}
