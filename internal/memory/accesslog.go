// Package memory implements the short-term side of the two-tier memory
// subsystem: the working context, the pending-promotion staging area, the
// access log, the importance scorer, the promotion engine and its triggers.
package memory

import (
	"sync"
	"time"

	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/types"
)

// DefaultMaxAccessEntries is the default bound on AccessLog size.
const DefaultMaxAccessEntries = 1000

// AccessEntry is one recorded access against a working-context key or a
// long-term memory id.
type AccessEntry struct {
	Key        string
	Timestamp  time.Time
	AccessKind types.AccessKind
}

// AccessLog is a bounded, newest-first sequence of access records. It is safe
// for concurrent use: every method takes its internal lock.
type AccessLog struct {
	mu         sync.RWMutex
	entries    []AccessEntry // entries[0] is newest
	maxEntries int
}

// NewAccessLog creates an access log bounded to maxEntries (DefaultMaxAccessEntries if <= 0).
func NewAccessLog(maxEntries int) *AccessLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxAccessEntries
	}
	return &AccessLog{maxEntries: maxEntries}
}

// Record appends a new access entry at the front, dropping the oldest entry
// if the log is at capacity.
func (l *AccessLog) Record(key string, kind types.AccessKind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := AccessEntry{Key: key, Timestamp: time.Now(), AccessKind: kind}
	l.entries = append([]AccessEntry{entry}, l.entries...)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[:l.maxEntries]
	}
	logging.Get(logging.CategoryMemory).Debug("access recorded: key=%s kind=%s", key, kind)
}

// GetFrequency returns the number of recorded accesses for key.
func (l *AccessLog) GetFrequency(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, e := range l.entries {
		if e.Key == key {
			count++
		}
	}
	return count
}

// GetRecency returns the timestamp of the most recent access for key, and
// whether any access was found.
func (l *AccessLog) GetRecency(key string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Key == key {
			return e.Timestamp, true
		}
	}
	return time.Time{}, false
}

// Stats summarizes frequency and recency for a single key.
type Stats struct {
	Frequency      int
	LastAccessed   time.Time
	HasLastAccess  bool
	KindCounts     map[types.AccessKind]int
}

// GetStats returns the combined frequency/recency/kind-count view for key.
func (l *AccessLog) GetStats(key string) Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{KindCounts: make(map[types.AccessKind]int)}
	for _, e := range l.entries {
		if e.Key != key {
			continue
		}
		stats.Frequency++
		stats.KindCounts[e.AccessKind]++
		if !stats.HasLastAccess {
			stats.LastAccessed = e.Timestamp
			stats.HasLastAccess = true
		}
	}
	return stats
}

// RecentAccesses returns up to n of the newest entries.
func (l *AccessLog) RecentAccesses(n int) []AccessEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]AccessEntry, n)
	copy(out, l.entries[:n])
	return out
}

// EntriesFor returns every entry for key, newest-first.
func (l *AccessLog) EntriesFor(key string) []AccessEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []AccessEntry
	for _, e := range l.entries {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

// UniqueKeys returns the distinct keys present in the log.
func (l *AccessLog) UniqueKeys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range l.entries {
		if !seen[e.Key] {
			seen[e.Key] = true
			out = append(out, e.Key)
		}
	}
	return out
}

// AccessTypeCounts returns the per-AccessKind count for key.
func (l *AccessLog) AccessTypeCounts(key string) map[types.AccessKind]int {
	return l.GetStats(key).KindCounts
}

// Clear empties the log.
func (l *AccessLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Size returns the current entry count.
func (l *AccessLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot returns a read-only copy of all entries, newest-first.
func (l *AccessLog) Snapshot() []AccessEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AccessEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
