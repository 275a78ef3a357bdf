package store

import (
	"errors"
	"sync"
	"time"

	"github.com/b31417592/location-insights/internal/traffic"
)

var (
	// ErrNoSnapshot is returned when a target has no cached foot-traffic
	// snapshots (or none in the requested range).
	ErrNoSnapshot = errors.New("no foot traffic snapshots for target")
)

// TrafficSnapshot is one refreshed venue ranking for a target.
type TrafficSnapshot struct {
	Timestamp time.Time             `json:"timestamp"`
	Source    string                `json:"source"`
	Venues    []traffic.RankedVenue `json:"venues"`
}

type snapshotHistory struct {
	snapshots []TrafficSnapshot
}

// SnapshotCache is a concurrency-safe in-memory history of foot-traffic
// snapshots per target, fed by the refresh scheduler and read by the
// history endpoints.
type SnapshotCache struct {
	mu sync.RWMutex

	// key: target public id, value: history
	data map[string]*snapshotHistory

	maxHistory int           // max number of snapshots per target
	maxAge     time.Duration // optional max age for snapshots
}

// NewSnapshotCache creates a cache with optional limits. A maxHistory <= 0
// means unlimited count; a maxAge <= 0 means unlimited age.
func NewSnapshotCache(maxHistory int, maxAge time.Duration) *SnapshotCache {
	return &SnapshotCache{
		data:       make(map[string]*snapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Add appends a snapshot for a target and enforces retention.
func (c *SnapshotCache) Add(targetID string, snap TrafficSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, ok := c.data[targetID]
	if !ok {
		history = &snapshotHistory{}
		c.data[targetID] = history
	}

	history.snapshots = append(history.snapshots, snap)

	// Retention by count.
	if c.maxHistory > 0 && len(history.snapshots) > c.maxHistory {
		over := len(history.snapshots) - c.maxHistory
		history.snapshots = history.snapshots[over:]
	}

	// Retention by age.
	if c.maxAge > 0 {
		cutoff := time.Now().Add(-c.maxAge)
		i := 0
		for ; i < len(history.snapshots); i++ {
			if !history.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.snapshots) {
			history.snapshots = history.snapshots[i:]
		}
	}
}

// Latest returns the most recent snapshot for a target.
func (c *SnapshotCache) Latest(targetID string) (TrafficSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history, ok := c.data[targetID]
	if !ok || len(history.snapshots) == 0 {
		return TrafficSnapshot{}, ErrNoSnapshot
	}
	return history.snapshots[len(history.snapshots)-1], nil
}

// Range returns the target's snapshots between from and to (inclusive).
func (c *SnapshotCache) Range(targetID string, from, to time.Time) ([]TrafficSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history, ok := c.data[targetID]
	if !ok || len(history.snapshots) == 0 {
		return nil, ErrNoSnapshot
	}

	var result []TrafficSnapshot
	for _, snap := range history.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoSnapshot
	}
	return result, nil
}
