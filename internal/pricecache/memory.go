package pricecache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry

	// counters for tests and diagnostics
	gets, puts int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	e, ok := s.entries[key.String()]
	return e, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	s.entries[e.Key.String()] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key.String())
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Info())
	}
	sortInfos(out)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]Entry)
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

// Stats returns how many Get and Put calls were made
func (s *MemoryStore) Stats() (gets, puts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gets, s.puts
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key.String() < infos[j].Key.String()
	})
}
