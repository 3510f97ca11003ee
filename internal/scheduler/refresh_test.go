package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/people-weather/internal/people"
)

type countingUpdater struct {
	mu    sync.Mutex
	calls map[people.UserID]int
}

func newCountingUpdater() *countingUpdater {
	return &countingUpdater{calls: make(map[people.UserID]int)}
}

func (u *countingUpdater) UpdateWeather(ctx context.Context, id people.UserID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[id]++
	return true
}

func (u *countingUpdater) count(id people.UserID) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[id]
}

func newTestScheduler(t *testing.T, u Updater, interval time.Duration) *RefreshScheduler {
	t.Helper()
	s, err := New(u, interval, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestTrackRunsPeriodically(t *testing.T) {
	u := newCountingUpdater()
	s := newTestScheduler(t, u, 20*time.Millisecond)

	require.NoError(t, s.Track("a"))

	assert.Eventually(t, func() bool { return u.count("a") >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, u.count("b"))
}

func TestTrackIsIdempotent(t *testing.T) {
	s := newTestScheduler(t, newCountingUpdater(), time.Hour)

	require.NoError(t, s.Track("a"))
	require.NoError(t, s.Track("a"))

	assert.Equal(t, []people.UserID{"a"}, s.Tracked())
	assert.Len(t, s.scheduler.Jobs(), 1)
}

func TestUntrackStopsRefreshes(t *testing.T) {
	u := newCountingUpdater()
	s := newTestScheduler(t, u, 20*time.Millisecond)

	require.NoError(t, s.Track("a"))
	require.Eventually(t, func() bool { return u.count("a") >= 1 }, 2*time.Second, 5*time.Millisecond)

	s.Untrack("a")
	after := u.count("a")
	time.Sleep(100 * time.Millisecond)

	assert.LessOrEqual(t, u.count("a"), after+1)
	assert.Empty(t, s.Tracked())
	assert.Eventually(t, func() bool { return len(s.scheduler.Jobs()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestUntrackUnknownIsNoop(t *testing.T) {
	s := newTestScheduler(t, newCountingUpdater(), time.Hour)
	s.Untrack("missing")
	assert.Empty(t, s.Tracked())
}

func TestSyncArmsAndDisarms(t *testing.T) {
	s := newTestScheduler(t, newCountingUpdater(), time.Hour)

	s.Sync([]people.UserID{"a", "b", "c"})
	assert.Equal(t, []people.UserID{"a", "b", "c"}, s.Tracked())

	s.Sync([]people.UserID{"c", "d"})
	assert.Equal(t, []people.UserID{"c", "d"}, s.Tracked())
	assert.Len(t, s.scheduler.Jobs(), 2)
}

func TestNewDefaultInterval(t *testing.T) {
	s := newTestScheduler(t, newCountingUpdater(), 0)
	assert.Equal(t, DefaultInterval, s.interval)
}
