package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/aegis-analytics/internal/pricecache"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// CacheHandler exposes the price cache
type CacheHandler struct {
	store     pricecache.Store
	cacheDays int
	logger    *logger.Logger
	now       func() time.Time
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(store pricecache.Store, cacheDays int, log *logger.Logger) *CacheHandler {
	return &CacheHandler{
		store:     store,
		cacheDays: cacheDays,
		logger:    log,
		now:       time.Now,
	}
}

// CacheEntry is one listed cache entry
type CacheEntry struct {
	pricecache.Info
	Fresh bool `json:"fresh"`
}

// List returns the cached entries with their freshness
// GET /api/cache
func (h *CacheHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cache")
		respondError(w, http.StatusInternalServerError, "Failed to list cache")
		return
	}

	now := h.now()
	entries := make([]CacheEntry, 0, len(infos))
	for _, info := range infos {
		fresh := pricecache.IsFresh(pricecache.Entry{Key: info.Key, FetchedAt: info.FetchedAt}, now, h.cacheDays)
		entries = append(entries, CacheEntry{Info: info, Fresh: fresh})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cache_days": h.cacheDays,
		"count":      len(entries),
		"entries":    entries,
	})
}

// Clear removes every cached entry
// DELETE /api/cache
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Clear(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to clear cache")
		respondError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	h.logger.WithField("removed", n).Info("Cache cleared")
	respondJSON(w, http.StatusOK, map[string]int{"removed": n})
}
