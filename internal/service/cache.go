// Package service provides caching for the prediction path.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/goalodds/internal/metrics"
)

// CacheKey identifies one cached probability set. The artifact version is part
// of the key, so a promotion naturally stops serving stale entries without an
// explicit invalidation sweep.
type CacheKey struct {
	FixtureID    uuid.UUID
	ModelVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.FixtureID, k.ModelVersion)
}

// PredictionCache provides in-memory caching for served probability sets
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction, or nil on a miss
func (pc *PredictionCache) Get(key CacheKey) *Prediction {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if entry, found := pc.cache.Get(key.String()); found {
		if prediction, ok := entry.(*Prediction); ok {
			pc.hitCount++
			metrics.RecordCacheHit()
			return prediction
		}
	}

	pc.missCount++
	metrics.RecordCacheMiss()
	return nil
}

// Set stores a prediction under the fixture and artifact version
func (pc *PredictionCache) Set(key CacheKey, prediction *Prediction) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Check size limit
	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
	}

	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	hits = pc.hitCount
	misses = pc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
