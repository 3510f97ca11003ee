package store

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSlotEmpty is returned by Read when nothing has been written yet.
	ErrSlotEmpty = errors.New("slot is empty")
)

// SlotName is the single persistence slot holding the saved set.
const SlotName = "savedUsers"

// Slot is a single named blob. Writes replace the whole value.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// MemorySlot is a concurrency-safe in-memory Slot. Contents do not survive the process.
type MemorySlot struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Read(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *MemorySlot) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemorySlot) Close() error { return nil }
