package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable is returned once every attempt for a fetch has failed.
var ErrUnavailable = errors.New("weather unavailable")

const (
	// MaxAttempts is the total number of provider calls a single Fetch may make.
	MaxAttempts = 2

	DefaultRetryDelay = 1000 * time.Millisecond
)

// Fetcher wraps a Provider with a single fixed-delay retry.
type Fetcher struct {
	provider   Provider
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher. A non-positive retryDelay selects DefaultRetryDelay.
func NewFetcher(provider Provider, retryDelay time.Duration, logger zerolog.Logger) *Fetcher {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Fetcher{
		provider:   provider,
		retryDelay: retryDelay,
		logger:     logger.With().Str("component", "weather").Logger(),
	}
}

// Fetch returns the current weather at coords. If the first attempt fails it
// waits the retry delay and tries once more; if that fails too it returns an
// error wrapping ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, coords Coordinates) (Snapshot, error) {
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		snap, err := f.provider.Fetch(ctx, coords)
		if err == nil {
			if attempt > 1 {
				f.logger.Debug().
					Str("provider", f.provider.Name()).
					Int("attempt", attempt).
					Msg("weather fetch succeeded on retry")
			}
			return snap, nil
		}
		lastErr = err

		if attempt == MaxAttempts {
			break
		}

		f.logger.Debug().
			Err(err).
			Str("provider", f.provider.Name()).
			Float64("lat", coords.Latitude).
			Float64("lon", coords.Longitude).
			Msg("weather fetch failed, retrying")

		timer := time.NewTimer(f.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	f.logger.Warn().
		Err(lastErr).
		Str("provider", f.provider.Name()).
		Float64("lat", coords.Latitude).
		Float64("lon", coords.Longitude).
		Msg("weather fetch failed after retry")
	return Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
