package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/people-weather/internal/people"
	"github.com/i474232898/people-weather/internal/store"
	"github.com/i474232898/people-weather/internal/weather"
)

// ErrUnknownUser is returned when an operation names a user not in the live list.
var ErrUnknownUser = errors.New("user is not in the live list")

// Defaults used when no option overrides them.
const (
	DefaultPageSize       = 5
	DefaultSavedThreshold = 5
)

// Entry pairs a user with its latest weather. Weather is nil when the fetch
// failed or has not succeeded yet.
type Entry struct {
	User    people.User       `json:"user"`
	Weather *weather.Snapshot `json:"weather"`
}

// WeatherFetcher is satisfied by *weather.Fetcher.
type WeatherFetcher interface {
	Fetch(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error)
}

// SavedStore is satisfied by *store.SavedUserStore.
type SavedStore interface {
	Load(ctx context.Context) []people.User
	Save(ctx context.Context, u people.User) (store.Outcome, error)
}

// Listener is notified with the ids of the live list after it changes.
type Listener func(ids []people.UserID)

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize sets the batch size used by Initialize and the LoadMore default.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithSavedThreshold sets how many saved users make the remote fetch on
// Initialize unnecessary.
func WithSavedThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.savedThreshold = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "aggregate").Logger()
	}
}

// Engine owns the live list of entries and the merge/dedup policy over the
// people source, the weather fetcher and the saved store. Network calls never
// run while the list lock is held.
type Engine struct {
	source  people.Source
	fetcher WeatherFetcher
	saved   SavedStore

	pageSize       int
	savedThreshold int
	logger         zerolog.Logger

	mu      sync.RWMutex
	entries []Entry
	index   map[people.UserID]int

	listenerMu sync.Mutex
	listeners  []Listener
}

// NewEngine creates an Engine with an empty live list.
func NewEngine(source people.Source, fetcher WeatherFetcher, saved SavedStore, opts ...Option) *Engine {
	e := &Engine{
		source:         source,
		fetcher:        fetcher,
		saved:          saved,
		pageSize:       DefaultPageSize,
		savedThreshold: DefaultSavedThreshold,
		logger:         zerolog.Nop(),
		index:          make(map[people.UserID]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers l to be called after every change to the list membership.
// Listeners must not call OnChange.
func (e *Engine) OnChange(l Listener) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Initialize loads the saved users, tops them up from the people source when
// there are fewer than the threshold, attaches weather and replaces the live list.
//
// When the remote fetch fails but saved users exist, the saved users are still
// published and the error is returned alongside. With nothing to publish the
// previous list is left untouched.
func (e *Engine) Initialize(ctx context.Context) error {
	saved := e.saved.Load(ctx)

	var remote []people.User
	var remoteErr error
	if len(saved) < e.savedThreshold {
		remote, remoteErr = e.source.FetchBatch(ctx, e.pageSize)
		if remoteErr != nil {
			remoteErr = fmt.Errorf("initialize: %w", remoteErr)
			if len(saved) == 0 {
				return remoteErr
			}
			e.logger.Warn().Err(remoteErr).Int("saved", len(saved)).Msg("remote fetch failed; showing saved users only")
		}
	}

	users := mergeUnique(saved, remote)
	entries := e.attachWeather(ctx, users)

	e.mu.Lock()
	e.entries = entries
	e.index = make(map[people.UserID]int, len(entries))
	for i, en := range entries {
		e.index[en.User.Key()] = i
	}
	e.mu.Unlock()

	e.logger.Info().
		Int("saved", len(saved)).
		Int("remote", len(remote)).
		Int("entries", len(entries)).
		Msg("live list initialized")

	e.notify()
	return remoteErr
}

// LoadMore fetches count more users and appends those not already in the live
// list. It returns the entries that were appended.
func (e *Engine) LoadMore(ctx context.Context, count int) ([]Entry, error) {
	if count <= 0 {
		count = e.pageSize
	}

	candidates, err := e.source.FetchBatch(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("load more: %w", err)
	}

	e.mu.RLock()
	fresh := make([]people.User, 0, len(candidates))
	seen := make(map[people.UserID]struct{}, len(candidates))
	for _, u := range candidates {
		key := u.Key()
		if key == "" {
			continue
		}
		if _, live := e.index[key]; live {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, u)
	}
	e.mu.RUnlock()

	if len(fresh) == 0 {
		e.logger.Debug().Int("candidates", len(candidates)).Msg("load more: nothing new")
		return nil, nil
	}

	entries := e.attachWeather(ctx, fresh)

	// Another LoadMore may have appended some of these ids while weather was
	// being fetched; the check below is against the list as it is now.
	e.mu.Lock()
	appended := make([]Entry, 0, len(entries))
	for _, en := range entries {
		key := en.User.Key()
		if _, live := e.index[key]; live {
			continue
		}
		e.index[key] = len(e.entries)
		e.entries = append(e.entries, en)
		appended = append(appended, en)
	}
	total := len(e.entries)
	e.mu.Unlock()

	e.logger.Info().
		Int("candidates", len(candidates)).
		Int("appended", len(appended)).
		Int("entries", total).
		Msg("load more complete")

	if len(appended) > 0 {
		e.notify()
	}
	return appended, nil
}

// UpdateWeather re-fetches weather for id and replaces that entry's snapshot.
// Unknown ids are ignored and a failed fetch keeps the previous snapshot. A
// snapshot fetched for coordinates the entry no longer has is discarded. It
// reports whether a new snapshot was stored.
func (e *Engine) UpdateWeather(ctx context.Context, id people.UserID) bool {
	e.mu.RLock()
	i, ok := e.index[id]
	var u people.User
	if ok {
		u = e.entries[i].User
	}
	e.mu.RUnlock()
	if !ok {
		return false
	}

	snap, ok := e.fetchWeather(ctx, u)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The list may have been replaced by Initialize in the meantime, possibly
	// with a different record for the same id.
	i, ok = e.index[id]
	if !ok || e.entries[i].User.Location.Coordinates != u.Location.Coordinates {
		return false
	}
	e.entries[i].Weather = snap
	return true
}

// Save persists the live record for id in the saved store.
func (e *Engine) Save(ctx context.Context, id people.UserID) (store.Outcome, error) {
	u, ok := e.user(id)
	if !ok {
		return 0, ErrUnknownUser
	}
	return e.saved.Save(ctx, u)
}

// Entries returns a copy of the live list.
func (e *Engine) Entries() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Entry returns the live entry for id.
func (e *Engine) Entry(id people.UserID) (Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i, ok := e.index[id]
	if !ok {
		return Entry{}, false
	}
	return e.entries[i], true
}

func (e *Engine) user(id people.UserID) (people.User, bool) {
	en, ok := e.Entry(id)
	return en.User, ok
}

// attachWeather fetches weather for every user concurrently and returns the
// entries in the order of users. Individual failures leave Weather nil.
func (e *Engine) attachWeather(ctx context.Context, users []people.User) []Entry {
	entries := make([]Entry, len(users))

	var g errgroup.Group
	for i, u := range users {
		g.Go(func() error {
			snap, _ := e.fetchWeather(ctx, u)
			entries[i] = Entry{User: u, Weather: snap}
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

func (e *Engine) fetchWeather(ctx context.Context, u people.User) (*weather.Snapshot, bool) {
	coords, err := u.Location.Coordinates.Parse()
	if err != nil {
		e.logger.Debug().Str("user_id", string(u.Key())).Err(err).Msg("skipping weather fetch")
		return nil, false
	}

	snap, err := e.fetcher.Fetch(ctx, coords)
	if err != nil {
		return nil, false
	}
	return &snap, true
}

// IDs returns the ids of the live list in display order.
func (e *Engine) IDs() []people.UserID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]people.UserID, len(e.entries))
	for i, en := range e.entries {
		ids[i] = en.User.Key()
	}
	return ids
}

// notify delivers the current ids to every listener. Notifications are
// serialized and read the list at delivery time.
func (e *Engine) notify() {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	if len(e.listeners) == 0 {
		return
	}
	ids := e.IDs()
	for _, l := range e.listeners {
		l(ids)
	}
}

// mergeUnique concatenates the groups and keeps the first user seen for each
// id. Users without an id are dropped.
func mergeUnique(groups ...[]people.User) []people.User {
	var total int
	for _, g := range groups {
		total += len(g)
	}

	out := make([]people.User, 0, total)
	seen := make(map[people.UserID]struct{}, total)
	for _, g := range groups {
		for _, u := range g {
			key := u.Key()
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
