package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/i474232898/people-weather/internal/people"
)

// ErrUnaddressableUser is returned when saving a user without an identifier.
var ErrUnaddressableUser = errors.New("user has no identifier")

// Outcome reports what Save did.
type Outcome int

const (
	Added Outcome = iota + 1
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// savedSetVersion is the current on-disk format version.
const savedSetVersion = 1

// savedSetRecord is the persisted envelope. Version 0 (field missing) is read
// as the current version; the legacy format was a bare JSON array of users.
type savedSetRecord struct {
	Version int           `json:"version"`
	Users   []people.User `json:"users"`
}

// SavedUserStore is the persisted set of users the client chose to keep.
// Membership only grows; saving is idempotent by user id.
type SavedUserStore struct {
	mu     sync.Mutex
	slot   Slot
	logger zerolog.Logger
}

func NewSavedUserStore(slot Slot, logger zerolog.Logger) *SavedUserStore {
	return &SavedUserStore{
		slot:   slot,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Load returns the saved users in the order they were saved. A missing or
// unreadable blob yields an empty slice.
func (s *SavedUserStore) Load(ctx context.Context) []people.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Save adds u to the set unless a user with the same id is already present.
func (s *SavedUserStore) Save(ctx context.Context, u people.User) (Outcome, error) {
	if u.Key() == "" {
		return 0, ErrUnaddressableUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read saved set: %w", err)
	}
	users := s.decode(data)
	for _, existing := range users {
		if existing.Key() == u.Key() {
			return AlreadyPresent, nil
		}
	}

	users = append(users, u)
	data, err = json.Marshal(savedSetRecord{Version: savedSetVersion, Users: users})
	if err != nil {
		return 0, fmt.Errorf("encode saved set: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		return 0, fmt.Errorf("write saved set: %w", err)
	}

	s.logger.Info().Str("user_id", string(u.Key())).Int("saved", len(users)).Msg("user saved")
	return Added, nil
}

func (s *SavedUserStore) load(ctx context.Context) []people.User {
	data, err := s.read(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read saved set; treating as empty")
		return []people.User{}
	}
	return s.decode(data)
}

// read returns the raw blob. A slot that was never written yields nil data.
func (s *SavedUserStore) read(ctx context.Context) ([]byte, error) {
	data, err := s.slot.Read(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return nil, nil
	}
	return data, err
}

// decode parses the blob. A corrupt blob decodes to an empty set and is
// replaced by the next successful Save.
func (s *SavedUserStore) decode(data []byte) []people.User {
	if data == nil {
		return []people.User{}
	}
	users, err := decodeSavedSet(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("saved set is unreadable; treating as empty")
		return []people.User{}
	}
	return users
}

func decodeSavedSet(data []byte) ([]people.User, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty blob")
	}

	var users []people.User
	if data[0] == '[' {
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, err
		}
	} else {
		var rec savedSetRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		if rec.Version > savedSetVersion {
			return nil, fmt.Errorf("unsupported saved set version %d", rec.Version)
		}
		users = rec.Users
	}

	out := make([]people.User, 0, len(users))
	seen := make(map[people.UserID]struct{}, len(users))
	for _, u := range users {
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
	return out, nil
}
