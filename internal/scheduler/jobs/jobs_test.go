package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/internal/series"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

type countingFetcher struct{ calls map[string]int }

func (f *countingFetcher) FetchPrices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, error) {
	f.calls[ticker]++
	if ticker == "GONE" {
		return contracts.PriceSeries{}, errors.New("delisted")
	}
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return contracts.PriceSeries{Ticker: ticker, Points: []contracts.Point{
		{Date: d, Value: 100},
		{Date: d.AddDate(0, 0, 1), Value: 101},
	}}, nil
}

func TestCacheWarmJob(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}}
	store := pricecache.NewMemoryStore()
	now := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	src := series.NewSource(f, store, 3, logger.Nop()).WithClock(func() time.Time { return now })

	rng := contracts.DateRange{Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)}
	job := NewCacheWarmJob(src, []string{"SPY", "TLT"}, rng, "0 30 18 * * 1-5", logger.Nop())
	assert.Equal(t, "cache_warm", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	// 두 번째 실행은 캐시 적중
	assert.Equal(t, map[string]int{"SPY": 1, "TLT": 1}, f.calls)

	_, found, err := store.Get(context.Background(), pricecache.KeyFor("SPY", rng))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCacheWarmJob_ReportsFailures(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}}
	src := series.NewSource(f, pricecache.NewMemoryStore(), 3, logger.Nop())

	job := NewCacheWarmJob(src, []string{"GONE", "SPY"}, contracts.DateRange{}, "@daily", logger.Nop())
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "GONE")
	assert.Equal(t, 1, f.calls["SPY"], "one failure does not stop the rest")
}

func TestCachePruneJob(t *testing.T) {
	ctx := context.Background()
	store := pricecache.NewMemoryStore()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	put := func(ticker string, age time.Duration) {
		require.NoError(t, store.Put(ctx, pricecache.Entry{
			Key:       pricecache.Key{Ticker: ticker},
			Prices:    contracts.PriceSeries{Ticker: ticker},
			FetchedAt: now.Add(-age),
		}))
	}
	put("OLD", 31*24*time.Hour)
	put("EDGE", 30*24*time.Hour)
	put("NEW", time.Hour)

	job := NewCachePruneJob(store, 30, logger.Nop())
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run(ctx))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	tickers := make([]string, 0, len(infos))
	for _, info := range infos {
		tickers = append(tickers, info.Key.Ticker)
	}
	assert.ElementsMatch(t, []string{"EDGE", "NEW"}, tickers)
}
