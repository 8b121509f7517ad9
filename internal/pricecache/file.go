package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileSuffix = ".json"

// FileStore keeps one JSON document per key under a directory
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, key.String()+fileSuffix)
}

func (s *FileStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

// Put writes to a temp file and renames it over the target
func (s *FileStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry %s: %w", e.Key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(e.Key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit cache entry %s: %w", e.Key, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key Key) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) files() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, filepath.Join(s.dir, name))
	}
	return names, nil
}

func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	names, err := s.files()
	if err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			// 손상된 파일은 목록에서 제외
			continue
		}
		out = append(out, e.Info())
	}
	sortInfos(out)
	return out, nil
}

func (s *FileStore) Clear(ctx context.Context) (int, error) {
	names, err := s.files()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }
