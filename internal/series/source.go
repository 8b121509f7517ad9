// Package series resolves one named input into a return series,
// from the remote price feed through the cache or from a CSV file.
package series

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// PriceFetcher downloads adjusted closes for one ticker
type PriceFetcher interface {
	FetchPrices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, error)
}

// Spec is either a TickerSpec or a CSVSpec
type Spec interface {
	Label() string
	isSpec()
}

// TickerSpec resolves through the price feed and cache
type TickerSpec struct {
	Ticker string
}

func (s TickerSpec) Label() string { return strings.ToUpper(strings.TrimSpace(s.Ticker)) }
func (TickerSpec) isSpec()         {}

// CSVSpec resolves from a user supplied two-column file
type CSVSpec struct {
	Path   string
	Format contracts.ValueFormat
}

func (s CSVSpec) Label() string {
	return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
}
func (CSVSpec) isSpec() {}

// CacheStatus tells where a price path came from
type CacheStatus string

const (
	CacheHit   CacheStatus = "hit"
	CacheMiss  CacheStatus = "miss"
	CacheStale CacheStatus = "stale"
)

// Source resolves specs into return series
// ⭐ SSOT: 가격 캐시를 변경하는 유일한 컴포넌트
type Source struct {
	fetcher   PriceFetcher
	store     pricecache.Store
	cacheDays int
	logger    *logger.Logger
	now       func() time.Time
}

// NewSource creates a Source. cacheDays is the freshness threshold in days.
func NewSource(fetcher PriceFetcher, store pricecache.Store, cacheDays int, log *logger.Logger) *Source {
	return &Source{
		fetcher:   fetcher,
		store:     store,
		cacheDays: cacheDays,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for freshness checks
func (s *Source) WithClock(now func() time.Time) *Source {
	s.now = now
	return s
}

// Resolve produces the return series of spec filtered to rng
func (s *Source) Resolve(ctx context.Context, spec Spec, rng contracts.DateRange) (contracts.ReturnSeries, error) {
	var prices []contracts.Point

	switch sp := spec.(type) {
	case TickerSpec:
		ps, _, err := s.Prices(ctx, sp.Ticker, rng)
		if err != nil {
			return contracts.ReturnSeries{}, err
		}
		prices = Truncate(ps.Points, rng)

	case CSVSpec:
		points, err := ReadCSV(sp.Path, sp.Format)
		if err != nil {
			return contracts.ReturnSeries{}, err
		}
		points = Truncate(points, rng)
		if sp.Format == contracts.FormatReturns {
			if len(points) == 0 {
				return contracts.ReturnSeries{}, &contracts.DataUnavailableError{
					Ticker: sp.Label(), Range: rng, Err: errors.New("no observations in range"),
				}
			}
			return contracts.ReturnSeries{Name: sp.Label(), Points: points}, nil
		}
		prices = points

	default:
		return contracts.ReturnSeries{}, fmt.Errorf("unsupported series spec %T", spec)
	}

	if len(prices) == 0 {
		return contracts.ReturnSeries{}, &contracts.DataUnavailableError{
			Ticker: spec.Label(), Range: rng, Err: errors.New("no prices in range"),
		}
	}
	return ToReturns(spec.Label(), prices), nil
}

// Prices returns the price path for ticker, from the cache when fresh.
// Cache failures are logged and never fail the call.
func (s *Source) Prices(ctx context.Context, ticker string, rng contracts.DateRange) (contracts.PriceSeries, CacheStatus, error) {
	key := pricecache.KeyFor(strings.TrimSpace(ticker), rng)
	log := s.logger.WithField("cache_key", key.String())

	status := CacheMiss
	entry, found, err := s.store.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("Price cache read failed, fetching")
	} else if found {
		if pricecache.IsFresh(entry, s.now(), s.cacheDays) {
			log.Debug("Price cache hit")
			return entry.Prices, CacheHit, nil
		}
		status = CacheStale
	}

	prices, err := s.fetcher.FetchPrices(ctx, key.Ticker, rng)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			return contracts.PriceSeries{}, status, err
		}
		return contracts.PriceSeries{}, status, &contracts.DataUnavailableError{Ticker: key.Ticker, Range: rng, Err: err}
	}
	if prices.Len() == 0 {
		return contracts.PriceSeries{}, status, &contracts.DataUnavailableError{
			Ticker: key.Ticker, Range: rng, Err: errors.New("feed returned no rows"),
		}
	}

	if err := s.store.Put(ctx, pricecache.Entry{Key: key, Prices: prices, FetchedAt: s.now()}); err != nil {
		log.WithError(err).Warn("Price cache write failed")
	}

	log.WithFields(map[string]interface{}{
		"status": string(status),
		"rows":   prices.Len(),
	}).Info("Prices fetched")

	return prices, status, nil
}
