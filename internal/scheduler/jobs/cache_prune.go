package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// CachePruneJob removes cache entries older than maxAgeDays
type CachePruneJob struct {
	store      pricecache.Store
	maxAgeDays int
	logger     *logger.Logger
	now        func() time.Time
}

// NewCachePruneJob creates a new cache prune job
func NewCachePruneJob(store pricecache.Store, maxAgeDays int, log *logger.Logger) *CachePruneJob {
	return &CachePruneJob{
		store:      store,
		maxAgeDays: maxAgeDays,
		logger:     log,
		now:        time.Now,
	}
}

// Name returns the job name
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *CachePruneJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes every entry no longer fresh under maxAgeDays
func (j *CachePruneJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache prune")

	infos, err := j.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	now := j.now()
	removed := 0
	for _, info := range infos {
		if pricecache.IsFresh(pricecache.Entry{Key: info.Key, FetchedAt: info.FetchedAt}, now, j.maxAgeDays) {
			continue
		}
		if err := j.store.Delete(ctx, info.Key); err != nil {
			return fmt.Errorf("delete %s: %w", info.Key, err)
		}
		removed++
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache prune completed")
	}

	return nil
}
