package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/people-weather/internal/people"
)

const (
	DefaultInterval = 300000 * time.Millisecond

	// updateTimeout bounds a single refresh, retry delay included.
	updateTimeout = 30 * time.Second
)

// Updater refreshes the weather of one displayed user.
type Updater interface {
	UpdateWeather(ctx context.Context, id people.UserID) bool
}

// RefreshScheduler runs one recurring weather refresh per displayed user.
// Jobs are keyed by user id, so an id never has more than one timer.
type RefreshScheduler struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	updater   Updater
	interval  time.Duration
	jobs      map[people.UserID]uuid.UUID
	logger    zerolog.Logger
}

// New creates a RefreshScheduler. A non-positive interval selects DefaultInterval.
func New(updater Updater, interval time.Duration, logger zerolog.Logger) (*RefreshScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create refresh scheduler: %w", err)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &RefreshScheduler{
		scheduler: s,
		updater:   updater,
		interval:  interval,
		jobs:      make(map[people.UserID]uuid.UUID),
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start begins executing the registered jobs.
func (s *RefreshScheduler) Start() {
	s.scheduler.Start()
	s.logger.Info().Dur("interval", s.interval).Msg("refresh scheduler started")
}

// Track arms the refresh timer for id. Tracking an id twice is a no-op.
func (s *RefreshScheduler) Track(id people.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.trackLocked(id)
}

// Untrack disarms the refresh timer for id. Unknown ids are ignored.
func (s *RefreshScheduler) Untrack(id people.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.untrackLocked(id)
}

// Sync makes the set of armed timers equal to ids.
func (s *RefreshScheduler) Sync(ids []people.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[people.UserID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	for id := range s.jobs {
		if _, ok := want[id]; !ok {
			s.untrackLocked(id)
		}
	}
	for _, id := range ids {
		if err := s.trackLocked(id); err != nil {
			s.logger.Error().Err(err).Str("user_id", string(id)).Msg("failed to arm refresh")
		}
	}
}

// Tracked returns the ids with an armed timer, sorted.
func (s *RefreshScheduler) Tracked() []people.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]people.UserID, 0, len(s.jobs))
	for id := range s.jobs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stop shuts down the scheduler and waits for running refreshes to finish.
func (s *RefreshScheduler) Stop() error {
	s.mu.Lock()
	s.jobs = make(map[people.UserID]uuid.UUID)
	s.mu.Unlock()

	return s.scheduler.Shutdown()
}

func (s *RefreshScheduler) trackLocked(id people.UserID) error {
	if _, ok := s.jobs[id]; ok {
		return nil
	}

	j, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.refresh, id),
		gocron.WithName("refresh:"+string(id)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create refresh job for %s: %w", id, err)
	}

	s.jobs[id] = j.ID()
	s.logger.Debug().Str("user_id", string(id)).Msg("refresh armed")
	return nil
}

func (s *RefreshScheduler) untrackLocked(id people.UserID) {
	jobID, ok := s.jobs[id]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(jobID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", string(id)).Msg("failed to remove refresh job")
	}
	delete(s.jobs, id)
	s.logger.Debug().Str("user_id", string(id)).Msg("refresh disarmed")
}

func (s *RefreshScheduler) refresh(id people.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	if s.updater.UpdateWeather(ctx, id) {
		s.logger.Debug().Str("user_id", string(id)).Msg("weather refreshed")
	}
}
