// Package analysis runs the pipeline: weights, series, panel, metrics.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/metrics"
	"github.com/wonny/aegis-analytics/internal/panel"
	"github.com/wonny/aegis-analytics/internal/portfolio"
	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/internal/series"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// Result is the outcome of one run
type Result struct {
	RunID     string                            `json:"run_id"`
	StartedAt time.Time                         `json:"started_at"`
	Duration  time.Duration                     `json:"duration_ns"`
	Request   Request                           `json:"-"`
	Weights   map[string]contracts.WeightVector `json:"weights,omitempty"`
	Inputs    map[string]string                 `json:"inputs"`
	Panel     *contracts.ReturnPanel            `json:"panel"`
	Report    *contracts.MetricsReport          `json:"report"`
}

// Runner executes analysis requests synchronously
// ⭐ SSOT: SeriesSource → WeightResolver → PanelBuilder → MetricsEngine 조립은 여기서만
type Runner struct {
	fetcher series.PriceFetcher
	store   pricecache.Store
	logger  *logger.Logger
	now     func() time.Time
}

// NewRunner creates a runner over a price feed and cache store
func NewRunner(fetcher series.PriceFetcher, store pricecache.Store, log *logger.Logger) *Runner {
	return &Runner{
		fetcher: fetcher,
		store:   store,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock overrides the clock (cache freshness and timestamps)
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes req. Input errors abort the run, undefined metrics do not.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Request:   req,
		Weights:   make(map[string]contracts.WeightVector),
		Inputs: map[string]string{
			contracts.ColumnPortfolio: req.Portfolio.Describe(),
			contracts.ColumnBenchmark: req.Benchmark.Describe(),
		},
	}
	log := r.logger.WithField("run_id", res.RunID)

	// 1. 비중 검증: 어떤 I/O보다 먼저
	sides := []struct {
		name  string
		input Input
	}{
		{contracts.ColumnPortfolio, req.Portfolio},
		{contracts.ColumnBenchmark, req.Benchmark},
	}
	for _, side := range sides {
		if in, ok := side.input.(TickerInput); ok {
			w, err := portfolio.Resolve(in.Tickers, in.Weights)
			if err != nil {
				return nil, fmt.Errorf("%s weights: %w", side.name, err)
			}
			res.Weights[side.name] = w
		}
	}

	// 2. 시계열 확보
	src := series.NewSource(r.fetcher, r.store, req.CacheDays, log).WithClock(r.now)
	resolved := make(map[string]contracts.ReturnSeries, len(sides))
	for _, side := range sides {
		s, err := r.resolveSide(ctx, src, side.name, side.input, res.Weights[side.name], req)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", side.name, err)
		}
		resolved[side.name] = s
	}

	// 중복 extras는 한 번만 (대소문자 무시)
	extras := make([]contracts.ReturnSeries, 0, len(req.Extras))
	seen := make(map[string]bool, len(req.Extras))
	for _, ticker := range portfolio.ParseTickers(strings.Join(req.Extras, ",")) {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		s, err := src.Resolve(ctx, series.TickerSpec{Ticker: ticker}, req.Range)
		if err != nil {
			return nil, fmt.Errorf("resolve extra %s: %w", ticker, err)
		}
		extras = append(extras, s)
	}

	// 3. 패널
	p, err := panel.Build(resolved[contracts.ColumnPortfolio], resolved[contracts.ColumnBenchmark], extras...)
	if err != nil {
		return nil, fmt.Errorf("build panel: %w", err)
	}
	res.Panel = p

	// 4. 지표
	report, err := metrics.NewEngine(req.Options).Compute(p, contracts.ColumnPortfolio, contracts.ColumnBenchmark)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}
	res.Report = report
	res.Duration = r.now().Sub(res.StartedAt)

	log.WithFields(map[string]interface{}{
		"rows":         p.Len(),
		"columns":      len(p.Names),
		"observations": report.Observations,
		"overlap":      report.OverlapObservations,
		"undefined":    len(report.Notes),
	}).Info("Analysis completed")

	return res, nil
}

func (r *Runner) resolveSide(ctx context.Context, src *series.Source, name string, in Input, w contracts.WeightVector, req Request) (contracts.ReturnSeries, error) {
	switch v := in.(type) {
	case CSVInput:
		return src.Resolve(ctx, series.CSVSpec{Path: v.Path, Format: v.Format}, req.Range)

	case TickerInput:
		if len(w) == 1 {
			return src.Resolve(ctx, series.TickerSpec{Ticker: w[0].Ticker}, req.Range)
		}
		constituents := make(map[string]contracts.ReturnSeries, len(w))
		for _, x := range w {
			s, err := src.Resolve(ctx, series.TickerSpec{Ticker: x.Ticker}, req.Range)
			if err != nil {
				return contracts.ReturnSeries{}, err
			}
			constituents[x.Ticker] = s
		}
		return portfolio.BuyAndHold(name, w, constituents, req.capital())

	default:
		return contracts.ReturnSeries{}, fmt.Errorf("unsupported input %T", in)
	}
}
