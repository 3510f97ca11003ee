package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns the queued errors in order, then succeeds.
type scriptedProvider struct {
	failures []error
	calls    atomic.Int32
	snap     Snapshot
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Fetch(ctx context.Context, coords Coordinates) (Snapshot, error) {
	n := int(p.calls.Add(1))
	if n <= len(p.failures) {
		return Snapshot{}, p.failures[n-1]
	}
	return p.snap, nil
}

var errTransport = errors.New("connection reset")

func TestFetcherFirstAttemptSucceeds(t *testing.T) {
	p := &scriptedProvider{snap: Snapshot{Current: Current{Temperature: 21}}}
	f := NewFetcher(p, time.Millisecond, zerolog.Nop())

	snap, err := f.Fetch(context.Background(), Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	assert.Equal(t, 21.0, snap.Current.Temperature)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestFetcherRetriesOnce(t *testing.T) {
	p := &scriptedProvider{
		failures: []error{errTransport},
		snap:     Snapshot{Current: Current{Temperature: 9.5, WeatherCode: 61}},
	}
	f := NewFetcher(p, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	snap, err := f.Fetch(context.Background(), Coordinates{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 9.5, snap.Current.Temperature)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestFetcherGivesUpAfterTwoAttempts(t *testing.T) {
	p := &scriptedProvider{failures: []error{errTransport, errTransport, errTransport}}
	f := NewFetcher(p, time.Millisecond, zerolog.Nop())

	_, err := f.Fetch(context.Background(), Coordinates{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(MaxAttempts), p.calls.Load())
}

func TestFetcherHonoursContextDuringDelay(t *testing.T) {
	p := &scriptedProvider{failures: []error{errTransport}}
	f := NewFetcher(p, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, Coordinates{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestNewFetcherDefaultDelay(t *testing.T) {
	f := NewFetcher(&scriptedProvider{}, 0, zerolog.Nop())
	assert.Equal(t, DefaultRetryDelay, f.retryDelay)
}
