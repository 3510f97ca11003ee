package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := slot.Read(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, slot.Write(ctx, []byte("first")))
	require.NoError(t, slot.Write(ctx, []byte("second")))

	data, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestMemorySlot(t *testing.T) {
	exerciseSlot(t, NewMemorySlot())
}

func TestFileSlot(t *testing.T) {
	slot, err := NewFileSlot(filepath.Join(t.TempDir(), "nested", "saved.json"))
	require.NoError(t, err)
	exerciseSlot(t, slot)
}

func TestSQLiteSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.db")

	slot, err := NewSQLiteSlot(path, "", zerolog.Nop())
	require.NoError(t, err)
	exerciseSlot(t, slot)
	require.NoError(t, slot.Close())

	reopened, err := NewSQLiteSlot(path, "", zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSQLiteSlotsAreIsolatedByName(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saved.db")

	a, err := NewSQLiteSlot(path, "a", zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteSlot(path, "b", zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Write(ctx, []byte("only-a")))
	_, err = b.Read(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestNewFileSlotRequiresPath(t *testing.T) {
	_, err := NewFileSlot("")
	assert.Error(t, err)
}
