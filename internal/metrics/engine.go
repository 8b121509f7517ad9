// Package metrics computes point, benchmark-relative and rolling statistics
// over a ReturnPanel. Undefined statistics are NaN with a note, never errors.
package metrics

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// =============================================================================
// Options
// =============================================================================

// Options controls annualization and windows
type Options struct {
	Window         int     `json:"window"`           // rolling window (observations)
	PeriodsPerYear int     `json:"periods_per_year"` // 252 trading days
	RiskFreeRate   float64 `json:"risk_free_rate"`   // annual
	VaRConfidence  float64 `json:"var_confidence"`
}

// DefaultOptions returns a 63-observation window, 252 periods and zero risk-free rate
func DefaultOptions() Options {
	return Options{
		Window:         63,
		PeriodsPerYear: 252,
		RiskFreeRate:   0,
		VaRConfidence:  0.95,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.Window < 2 {
		return fmt.Errorf("rolling window must be >= 2, got %d", o.Window)
	}
	if o.PeriodsPerYear < 1 {
		return fmt.Errorf("periods per year must be >= 1, got %d", o.PeriodsPerYear)
	}
	if o.VaRConfidence <= 0 || o.VaRConfidence >= 1 {
		return fmt.Errorf("VaR confidence must be in (0, 1), got %v", o.VaRConfidence)
	}
	if math.IsNaN(o.RiskFreeRate) || math.IsInf(o.RiskFreeRate, 0) {
		return fmt.Errorf("risk-free rate must be finite")
	}
	return nil
}

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine computes a MetricsReport from a panel
// ⭐ SSOT: 지표 계산은 여기서만 (I/O 없음)
type Engine struct {
	opts Options
}

// NewEngine creates an engine, zero fields fall back to DefaultOptions
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Window == 0 {
		opts.Window = def.Window
	}
	if opts.PeriodsPerYear == 0 {
		opts.PeriodsPerYear = def.PeriodsPerYear
	}
	if opts.VaRConfidence == 0 {
		opts.VaRConfidence = def.VaRConfidence
	}
	return &Engine{opts: opts}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// Compute builds the report for portfolioCol against benchmarkCol.
// It fails only when a column is missing or the options are invalid.
func (e *Engine) Compute(p *contracts.ReturnPanel, portfolioCol, benchmarkCol string) (*contracts.MetricsReport, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	port, ok := p.Series(portfolioCol)
	if !ok {
		return nil, fmt.Errorf("panel has no column %q", portfolioCol)
	}
	if _, ok := p.Column(benchmarkCol); !ok {
		return nil, fmt.Errorf("panel has no column %q", benchmarkCol)
	}

	report := contracts.NewMetricsReport(portfolioCol, benchmarkCol)
	report.Observations = port.Len()
	if port.Len() > 0 {
		report.Start = port.Points[0].Date
		report.End = port.Points[port.Len()-1].Date
	}

	// Per column tables, the portfolio column doubles as the headline metrics
	for _, name := range p.Names {
		s, _ := p.Series(name)
		stats := make(map[string]float64, len(contracts.CoreMetricKeys)+len(contracts.RelativeMetricKeys))
		prefix := name + "."
		if name == portfolioCol {
			prefix = ""
		}

		e.coreStats(s.Values(), stats, report, prefix)
		if name != benchmarkCol || name == portfolioCol {
			_, xs, ys := p.Overlap(name, benchmarkCol)
			if name == portfolioCol {
				report.OverlapObservations = len(xs)
			}
			e.relativeStats(xs, ys, stats, report, prefix)
		}
		report.Columns[name] = stats
	}

	for k, v := range report.Columns[portfolioCol] {
		report.Point[k] = v
	}

	e.rollingSeries(port, report)
	return report, nil
}

// record stores v under key and a note when err is set
func record(stats map[string]float64, report *contracts.MetricsReport, prefix, key string, v float64, err error) {
	stats[key] = v
	if err != nil {
		report.Note(prefix+key, err.Error())
	}
}

func (e *Engine) coreStats(r []float64, stats map[string]float64, report *contracts.MetricsReport, prefix string) {
	ppy := e.opts.PeriodsPerYear

	v, err := CAGR(r, ppy)
	record(stats, report, prefix, contracts.MetricCAGR, v, err)

	v, err = Volatility(r, ppy)
	record(stats, report, prefix, contracts.MetricVolatility, v, err)

	v, err = Sharpe(r, e.opts.RiskFreeRate, ppy)
	record(stats, report, prefix, contracts.MetricSharpe, v, err)

	v, err = MaxDrawdown(r)
	record(stats, report, prefix, contracts.MetricMaxDrawdown, v, err)

	v, err = TotalReturn(r)
	record(stats, report, prefix, contracts.MetricTotalReturn, v, err)

	varValue, cvar, err := HistoricalVaR(r, e.opts.VaRConfidence)
	record(stats, report, prefix, contracts.MetricVaR95, varValue, err)
	record(stats, report, prefix, contracts.MetricCVaR95, cvar, err)
}

func (e *Engine) relativeStats(s, b []float64, stats map[string]float64, report *contracts.MetricsReport, prefix string) {
	ppy := e.opts.PeriodsPerYear

	v, err := Beta(s, b)
	record(stats, report, prefix, contracts.MetricBeta, v, err)

	v, err = Alpha(s, b, ppy)
	record(stats, report, prefix, contracts.MetricAlpha, v, err)

	v, err = TrackingError(s, b, ppy)
	record(stats, report, prefix, contracts.MetricTrackingError, v, err)

	v, err = InformationRatio(s, b, ppy)
	record(stats, report, prefix, contracts.MetricInformationRatio, v, err)

	v, err = Correlation(s, b)
	record(stats, report, prefix, contracts.MetricCorrelation, v, err)
}

func (e *Engine) rollingSeries(port contracts.ReturnSeries, report *contracts.MetricsReport) {
	w := e.opts.Window

	report.Rolling[contracts.SeriesRollingVolatility] = RollingVolatility(port, w, e.opts.PeriodsPerYear)
	report.Rolling[contracts.SeriesRollingSharpe] = RollingSharpe(port, w, e.opts.PeriodsPerYear, e.opts.RiskFreeRate)
	report.Rolling[contracts.SeriesEquityCurve] = EquityCurve(port)
	report.Rolling[contracts.SeriesDrawdown] = DrawdownSeries(port)

	if port.Len() < w {
		reason := insufficient(port.Len(), w).Error()
		report.Note(contracts.SeriesRollingVolatility, reason)
		report.Note(contracts.SeriesRollingSharpe, reason)
	}
}
