package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/series"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// PriceWarmer is the part of series.Source the warm job needs
type PriceWarmer interface {
	Prices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, series.CacheStatus, error)
}

// CacheWarmJob refreshes stale or missing price cache entries ahead of analysis runs
type CacheWarmJob struct {
	source   PriceWarmer
	tickers  []string
	rng      contracts.DateRange
	schedule string
	logger   *logger.Logger
}

// NewCacheWarmJob creates a warm job for tickers over rng (open end, same key as analyze runs)
func NewCacheWarmJob(source PriceWarmer, tickers []string, rng contracts.DateRange, schedule string, log *logger.Logger) *CacheWarmJob {
	return &CacheWarmJob{
		source:   source,
		tickers:  tickers,
		rng:      rng,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheWarmJob) Name() string {
	return "cache_warm"
}

// Schedule returns the cron schedule (WARM_SCHEDULE)
func (j *CacheWarmJob) Schedule() string {
	return j.schedule
}

// Run fetches every ticker through the cache. Fresh entries are left alone.
func (j *CacheWarmJob) Run(ctx context.Context) error {
	counts := map[series.CacheStatus]int{}
	var errs []error

	for _, ticker := range j.tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, status, err := j.source.Prices(ctx, ticker, j.rng)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		counts[status]++
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers": len(j.tickers),
		"hit":     counts[series.CacheHit],
		"miss":    counts[series.CacheMiss],
		"stale":   counts[series.CacheStale],
		"failed":  len(errs),
		"range":   j.rng.String(),
	}).Info("Cache warm completed")

	return errors.Join(errs...)
}
