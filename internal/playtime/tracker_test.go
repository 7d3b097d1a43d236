package playtime

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestTracker(t *testing.T) (*Tracker, *fakeClock) {
	t.Helper()
	store, err := LoadStore(filepath.Join(t.TempDir(), "playtime.json"))
	require.NoError(t, err)

	clock := newFakeClock()
	tracker := NewTracker(store, nil)
	tracker.SetClock(clock.Now)
	return tracker, clock
}

func TestJoinLeaveAccumulates(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Join("Alice")
	clock.Advance(5000 * time.Millisecond)
	elapsed, ok := tracker.Leave("Alice")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, elapsed)

	report := tracker.Report()
	require.Len(t, report, 1)
	assert.Equal(t, "Alice", report[0].Player)
	assert.Equal(t, 5*time.Second, report[0].Total)

	// A second session adds on top.
	tracker.Join("Alice")
	clock.Advance(3000 * time.Millisecond)
	_, ok = tracker.Leave("Alice")
	require.True(t, ok)

	report = tracker.Report()
	require.Len(t, report, 1)
	assert.Equal(t, 8*time.Second, report[0].Total)
}

func TestReportIncludesElapsedForOnlinePlayer(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Join("Bob")
	clock.Advance(10 * time.Second)
	tracker.Leave("Bob")

	tracker.Join("Bob")
	clock.Advance(90 * time.Second)

	report := tracker.Report()
	require.Len(t, report, 1)
	assert.Equal(t, 100*time.Second, report[0].Total)
}

func TestDuplicateJoinRefreshesLoginInstant(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Join("Carol")
	clock.Advance(60 * time.Second)
	tracker.Join("Carol")
	clock.Advance(5 * time.Second)

	elapsed, ok := tracker.Leave("Carol")
	require.True(t, ok)
	// Only the time since the refreshed login counts; no double counting.
	assert.Equal(t, 5*time.Second, elapsed)
	assert.Equal(t, 1, tracker.OnlineCount())
}

func TestUnmatchedLeaveIsNoOp(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, ok := tracker.Leave("Ghost")
	assert.False(t, ok)
	assert.Empty(t, tracker.Report())
}

func TestDuplicateJoinKeepsOneSession(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Join("Dave")
	tracker.Join("Dave")
	assert.Equal(t, []string{"Dave"}, tracker.Online())
}

func TestOnlineSorted(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Join("zeta")
	tracker.Join("alpha")
	tracker.Join("mid")
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, tracker.Online())
	assert.True(t, tracker.IsOnline("mid"))
	assert.False(t, tracker.IsOnline("nobody"))
}

func TestReportSortedAscendingByTotal(t *testing.T) {
	tracker, clock := newTestTracker(t)

	tracker.Join("long")
	tracker.Join("short")
	clock.Advance(time.Second)
	tracker.Leave("short")
	clock.Advance(time.Hour)
	tracker.Leave("long")

	report := tracker.Report()
	require.Len(t, report, 2)
	assert.Equal(t, "short", report[0].Player)
	assert.Equal(t, "long", report[1].Player)
}

func TestJoinSeedsZeroTotal(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.Join("new")

	report := tracker.Report()
	require.Len(t, report, 1)
	assert.Equal(t, time.Duration(0), report[0].Total)
}
