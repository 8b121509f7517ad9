// Package pricecache persists fetched price paths keyed by (ticker, start, end)
// so repeated runs inside the freshness window skip the remote feed.
package pricecache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// Interval is the only bar size the feed is queried with
const Interval = "1d"

// Key identifies one cached request. Empty End means "latest".
type Key struct {
	Ticker string `json:"ticker"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// KeyFor builds the cache key of a ticker request
func KeyFor(ticker string, rng contracts.DateRange) Key {
	k := Key{Ticker: strings.ToUpper(ticker)}
	if !rng.Start.IsZero() {
		k.Start = rng.Start.Format(contracts.DateLayout)
	}
	if !rng.End.IsZero() {
		k.End = rng.End.Format(contracts.DateLayout)
	}
	return k
}

// String renders TICKER_start_end_1d
func (k Key) String() string {
	start := k.Start
	if start == "" {
		start = "earliest"
	}
	end := k.End
	if end == "" {
		end = "latest"
	}
	return fmt.Sprintf("%s_%s_%s_%s", k.Ticker, start, end, Interval)
}

// ParseKey is the inverse of Key.String. Tickers may contain '_'.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 4 || parts[len(parts)-1] != Interval {
		return Key{}, fmt.Errorf("invalid cache key %q", s)
	}

	n := len(parts)
	k := Key{
		Ticker: strings.Join(parts[:n-3], "_"),
		Start:  parts[n-3],
		End:    parts[n-2],
	}
	if k.Start == "earliest" {
		k.Start = ""
	}
	if k.End == "latest" {
		k.End = ""
	}
	if k.Ticker == "" {
		return Key{}, fmt.Errorf("invalid cache key %q: empty ticker", s)
	}
	return k, nil
}

// Entry is a cached price path with its fetch time
type Entry struct {
	Key       Key                   `json:"key"`
	Prices    contracts.PriceSeries `json:"prices"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// Info summarizes an entry for listings
type Info struct {
	Key       Key       `json:"key"`
	Rows      int       `json:"rows"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Info returns the listing summary of e
func (e Entry) Info() Info {
	return Info{Key: e.Key, Rows: e.Prices.Len(), FetchedAt: e.FetchedAt}
}

// IsFresh reports whether the entry may be reused: age <= cacheDays days.
// Negative cacheDays disables reuse.
func IsFresh(e Entry, now time.Time, cacheDays int) bool {
	if cacheDays < 0 {
		return false
	}
	return now.Sub(e.FetchedAt) <= time.Duration(cacheDays)*24*time.Hour
}

// Store is the injectable cache backend
// ⭐ SSOT: 가격 캐시 읽기/쓰기는 이 인터페이스로만
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context) ([]Info, error)
	Clear(ctx context.Context) (int, error)
	Close() error
}
