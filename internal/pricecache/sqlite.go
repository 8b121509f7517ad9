package pricecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single-file SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 단일 프로세스 도구: 연결 하나로 직렬화
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS price_cache (
		cache_key  TEXT PRIMARY KEY,
		ticker     TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date   TEXT NOT NULL DEFAULT '',
		rows       INTEGER NOT NULL,
		prices     TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	var raw string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT prices, fetched_at FROM price_cache WHERE cache_key = ?`, key.String(),
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache entry %s: %w", key, err)
	}

	e := Entry{Key: key, FetchedAt: time.Unix(0, fetchedAt).UTC()}
	if err := json.Unmarshal([]byte(raw), &e.Prices); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Prices)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO price_cache (cache_key, ticker, start_date, end_date, rows, prices, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			rows = excluded.rows,
			prices = excluded.prices,
			fetched_at = excluded.fetched_at`,
		e.Key.String(), e.Key.Ticker, e.Key.Start, e.Key.End,
		e.Prices.Len(), string(data), e.FetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save cache entry %s: %w", e.Key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM price_cache WHERE cache_key = ?`, key.String()); err != nil {
		return fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, start_date, end_date, rows, fetched_at FROM price_cache ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var fetchedAt int64
		if err := rows.Scan(&info.Key.Ticker, &info.Key.Start, &info.Key.End, &info.Rows, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		info.FetchedAt = time.Unix(0, fetchedAt).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
