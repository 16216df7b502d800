package stats

import (
	"sync"
	"time"

	"sales-observer/src/models"
)

// -----------------------------------------------------------------------------
// Snapshot Cache (single slot, throttle + retention windows)
// -----------------------------------------------------------------------------

// SnapshotCache holds the most recent stats snapshot. A snapshot is served
// only while younger than the throttle window; the slot itself survives until
// invalidated or swept past the retention window.
type SnapshotCache struct {
	mu        sync.RWMutex
	entry     *models.MCacheEntry
	throttle  time.Duration
	retention time.Duration
}

// -----------------------------------------------------------------------------

func NewSnapshotCache(throttle, retention time.Duration) *SnapshotCache {
	return &SnapshotCache{
		throttle:  throttle,
		retention: retention,
	}
}

// -----------------------------------------------------------------------------

// Get returns the stored snapshot iff now-computedAt < throttle window.
// Staleness alone does not delete the entry; it stays for fallback reads.
func (c *SnapshotCache) Get(now time.Time) (models.MStatsSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return models.MStatsSnapshot{}, false
	}
	if now.Sub(c.entry.ComputedAt) >= c.throttle {
		return models.MStatsSnapshot{}, false
	}
	return c.entry.Snapshot, true
}

// -----------------------------------------------------------------------------

// Last returns the stored snapshot regardless of freshness. Used as the
// fallback when recomputation fails.
func (c *SnapshotCache) Last() (models.MStatsSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return models.MStatsSnapshot{}, false
	}
	return c.entry.Snapshot, true
}

// -----------------------------------------------------------------------------

// ComputedAt reports when the retained snapshot was computed.
func (c *SnapshotCache) ComputedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return time.Time{}, false
	}
	return c.entry.ComputedAt, true
}

// -----------------------------------------------------------------------------

// Put overwrites the slot with a fresh snapshot.
func (c *SnapshotCache) Put(snap models.MStatsSnapshot, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = &models.MCacheEntry{Snapshot: snap, ComputedAt: now}
}

// -----------------------------------------------------------------------------

// Invalidate clears the slot unconditionally. Called when a new insert is
// observed so the next tick recomputes instead of serving stale aggregates.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
}

// -----------------------------------------------------------------------------

// Sweep removes the slot if it idled past the retention window. Bounds memory
// when the dashboard sits unused.
func (c *SnapshotCache) Sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && now.Sub(c.entry.ComputedAt) > c.retention {
		c.entry = nil
	}
}
