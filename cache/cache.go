package cache

import (
	"sync"
	"time"
)

type FeedEntry struct {
	Payload   []byte
	Timestamp time.Time
}

// FeedCache keeps the most recent feed frames per user so a client that
// reconnects can catch up on what it missed.
type FeedCache struct {
	mu       sync.RWMutex
	entries  map[uint][]FeedEntry // map[userID][]entries, oldest first
	capacity int
	now      func() time.Time
}

func NewFeedCache(capacity int) *FeedCache {
	if capacity <= 0 {
		capacity = 50
	}
	return &FeedCache{
		entries:  make(map[uint][]FeedEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add stores payload for userID, evicting the oldest entry once the user's
// backlog is full.
func (fc *FeedCache) Add(userID uint, payload []byte) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entry := FeedEntry{
		Payload:   payload,
		Timestamp: fc.now(),
	}

	backlog := append(fc.entries[userID], entry)
	if len(backlog) > fc.capacity {
		backlog = backlog[len(backlog)-fc.capacity:]
	}
	fc.entries[userID] = backlog
}

// Recent returns a copy of the user's backlog, oldest first.
func (fc *FeedCache) Recent(userID uint) []FeedEntry {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	backlog := fc.entries[userID]
	out := make([]FeedEntry, len(backlog))
	copy(out, backlog)
	return out
}

// Prune drops entries older than cutoff and returns how many were removed.
func (fc *FeedCache) Prune(cutoff time.Time) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	removed := 0
	for userID := range fc.entries {
		removed += fc.pruneUser(userID, cutoff)
	}
	return removed
}

// PruneUser is Prune limited to one user's backlog.
func (fc *FeedCache) PruneUser(userID uint, cutoff time.Time) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.pruneUser(userID, cutoff)
}

// pruneUser requires fc.mu to be held for writing.
func (fc *FeedCache) pruneUser(userID uint, cutoff time.Time) int {
	backlog := fc.entries[userID]
	stale := 0
	for stale < len(backlog) && backlog[stale].Timestamp.Before(cutoff) {
		stale++
	}
	if stale == len(backlog) {
		delete(fc.entries, userID)
		return stale
	}
	fc.entries[userID] = backlog[stale:]
	return stale
}

// GetCacheStats returns statistics about the current cache
func (fc *FeedCache) GetCacheStats() map[string]interface{} {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	total := 0
	for _, backlog := range fc.entries {
		total += len(backlog)
	}

	return map[string]interface{}{
		"total_users":   len(fc.entries),
		"total_entries": total,
		"capacity":      fc.capacity,
	}
}
