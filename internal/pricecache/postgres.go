package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps entries in a jsonb table
type PostgresStore struct {
	pool    *pgxpool.Pool
	closeFn func()
}

// NewPostgresStore ensures the cache table exists
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate price cache: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS price_cache (
			cache_key  TEXT PRIMARY KEY,
			ticker     TEXT NOT NULL,
			start_date TEXT NOT NULL DEFAULT '',
			end_date   TEXT NOT NULL DEFAULT '',
			rows       INTEGER NOT NULL,
			prices     JSONB NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	query := `
		SELECT prices, fetched_at
		FROM price_cache
		WHERE cache_key = $1
	`

	var raw []byte
	var fetchedAt time.Time
	err := s.pool.QueryRow(ctx, query, key.String()).Scan(&raw, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache entry %s: %w", key, err)
	}

	e := Entry{Key: key, FetchedAt: fetchedAt.UTC()}
	if err := json.Unmarshal(raw, &e.Prices); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Prices)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Key, err)
	}

	query := `
		INSERT INTO price_cache (cache_key, ticker, start_date, end_date, rows, prices, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cache_key) DO UPDATE SET
			rows = EXCLUDED.rows,
			prices = EXCLUDED.prices,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err = s.pool.Exec(ctx, query,
		e.Key.String(),
		e.Key.Ticker,
		e.Key.Start,
		e.Key.End,
		e.Prices.Len(),
		string(data),
		e.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("save cache entry %s: %w", e.Key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM price_cache WHERE cache_key = $1`, key.String()); err != nil {
		return fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Info, error) {
	query := `
		SELECT ticker, start_date, end_date, rows, fetched_at
		FROM price_cache
		ORDER BY cache_key
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Key.Ticker, &info.Key.Start, &info.Key.End, &info.Rows, &info.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		info.FetchedAt = info.FetchedAt.UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the pool when the store was opened by Open
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
