package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
)

// CachedProvider wraps a Provider and reuses its readings within a time bucket.
// Entries are keyed by provider, location and bucket start, so all requests in
// the same TTL-sized window share one upstream call.
type CachedProvider struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time
	metrics  *Metrics

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	reading fusion.SourceReading
	bucket  time.Time
}

// NewCachedProvider creates a new cached wrapper around a provider. Hits and
// misses are counted in metrics, which may be nil.
func NewCachedProvider(provider Provider, ttl time.Duration, metrics *Metrics) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		metrics:  metrics,
		entries:  make(map[string]cacheEntry),
	}
}

// Name returns the wrapped provider's name unchanged; the merger's priority
// table refers to sources by that name.
func (c *CachedProvider) Name() string {
	return c.provider.Name()
}

// Fetch returns the cached reading for the current bucket, or fetches a fresh
// one. Errors and unavailable readings are never cached.
func (c *CachedProvider) Fetch(ctx context.Context, loc Location) (fusion.SourceReading, error) {
	if c.ttl <= 0 {
		return c.provider.Fetch(ctx, loc)
	}

	bucket := c.now().UTC().Truncate(c.ttl)
	key := c.key(loc, bucket)

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	c.metrics.observeCache(c.provider.Name(), found)
	if found {
		log.Printf("DEBUG: cache hit for %s from %s", loc.Key(), c.provider.Name())
		return entry.reading, nil
	}

	reading, err := c.provider.Fetch(ctx, loc)
	if err != nil {
		return reading, err
	}
	if !reading.Available {
		return reading, nil
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{reading: reading, bucket: bucket}
	c.evictBefore(bucket)
	c.mu.Unlock()

	return reading, nil
}

func (c *CachedProvider) key(loc Location, bucket time.Time) string {
	coords := ""
	if loc.HasCoordinates() {
		coords = fmt.Sprintf("%.4f,%.4f", *loc.Lat, *loc.Lng)
	}
	return fmt.Sprintf("%s|%s|%s|%d", c.provider.Name(), loc.Key(), coords, bucket.Unix())
}

// evictBefore drops entries from earlier buckets. Callers hold c.mu.
func (c *CachedProvider) evictBefore(bucket time.Time) {
	for k, e := range c.entries {
		if e.bucket.Before(bucket) {
			delete(c.entries, k)
		}
	}
}

// Ensure CachedProvider implements the Provider interface
var _ Provider = (*CachedProvider)(nil)
