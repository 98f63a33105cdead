package llm

import (
	"sync"
	"time"

	"github.com/krishhsuri/Orbit/internal/model"
)

type cacheEntry struct {
	expiry     time.Time
	extraction model.Extraction
}

// extractionCache holds successful extractions keyed by email source id.
type extractionCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

func newExtractionCache(ttl time.Duration) *extractionCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &extractionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get retrieves an extraction if it exists and hasn't expired.
func (c *extractionCache) get(key string) (model.Extraction, bool) {
	if key == "" {
		return model.Extraction{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiry) {
		return model.Extraction{}, false
	}
	return entry.extraction, true
}

// set stores an extraction and evicts anything already expired.
func (c *extractionCache) set(key string, extraction model.Extraction) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{extraction: extraction, expiry: now.Add(c.ttl)}
}

func (c *extractionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
