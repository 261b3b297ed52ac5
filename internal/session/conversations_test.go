package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_SaveAndGet(t *testing.T) {
	tr := NewTracker(time.Hour)
	tr.Save("a", "deepseek-v3")
	c := tr.Save("a", "deepseek-r1")

	assert.Equal(t, 2, c.MessageCount)
	got, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, "deepseek-r1", got.Model)
	_, ok = tr.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_Cleanup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(time.Hour)
	tr.now = func() time.Time { return now }

	tr.Save("old", "m")
	now = now.Add(50 * time.Minute)
	tr.Save("new", "m")
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, tr.Cleanup())
	_, ok := tr.Get("old")
	assert.False(t, ok)
	_, ok = tr.Get("new")
	assert.True(t, ok)
}

func TestTracker_ZeroMaxAgeKeepsEverything(t *testing.T) {
	tr := NewTracker(0)
	tr.Save("a", "m")
	assert.Equal(t, 0, tr.Cleanup())
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_StatsOrder(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(time.Hour)
	tr.now = func() time.Time { return now }
	tr.Save("first", "m")
	now = now.Add(time.Minute)
	tr.Save("second", "m")

	stats := tr.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "second", stats[0].ID)
}
