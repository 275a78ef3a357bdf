package store

import (
	"testing"
	"time"

	"github.com/b31417592/location-insights/internal/traffic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapAt(ts time.Time) TrafficSnapshot {
	return TrafficSnapshot{
		Timestamp: ts,
		Source:    "besttime",
		Venues:    []traffic.RankedVenue{{Venue: traffic.Venue{Name: "Kapetolyo"}}},
	}
}

func TestSnapshotCacheLatest(t *testing.T) {
	c := NewSnapshotCache(0, 0)

	_, err := c.Latest("t-1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	now := time.Now()
	c.Add("t-1", snapAt(now.Add(-time.Hour)))
	c.Add("t-1", snapAt(now))

	got, err := c.Latest("t-1")
	require.NoError(t, err)
	assert.Equal(t, now, got.Timestamp)

	_, err = c.Latest("t-2")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotCacheCountRetention(t *testing.T) {
	c := NewSnapshotCache(2, 0)
	base := time.Now()

	for i := 0; i < 5; i++ {
		c.Add("t-1", snapAt(base.Add(time.Duration(i)*time.Minute)))
	}

	got, err := c.Range("t-1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(3*time.Minute), got[0].Timestamp)
	assert.Equal(t, base.Add(4*time.Minute), got[1].Timestamp)
}

func TestSnapshotCacheAgeRetention(t *testing.T) {
	c := NewSnapshotCache(0, time.Hour)
	now := time.Now()

	c.Add("t-1", snapAt(now.Add(-2*time.Hour)))
	c.Add("t-1", snapAt(now))

	got, err := c.Range("t-1", now.Add(-24*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, now, got[0].Timestamp)
}

func TestSnapshotCacheRangeBounds(t *testing.T) {
	c := NewSnapshotCache(0, 0)
	now := time.Now()
	c.Add("t-1", snapAt(now))

	got, err := c.Range("t-1", now, now)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = c.Range("t-1", now.Add(-2*time.Hour), now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = c.Range("unknown", now.Add(-time.Hour), now)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
