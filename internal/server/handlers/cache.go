// internal/server/handlers/cache.go

package handlers

import (
	"net/http"

	"trendscout/internal/adapter/cache"
)

// CacheHandler handles cache administration requests
type CacheHandler struct {
	cache *cache.RedisCache
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(c *cache.RedisCache) *CacheHandler {
	return &CacheHandler{
		cache: c,
	}
}

// Stats returns cache backend statistics
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// Clear removes cached entries matching the given pattern, or every
// entry this service owns when no pattern is supplied
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	deleted := h.cache.ClearPattern(r.Context(), pattern)

	respondWithJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
