package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// SQLiteSlot stores the blob as one row of a key/value table.
type SQLiteSlot struct {
	db   *sql.DB
	name string
}

// NewSQLiteSlot opens (or creates) the database at path and ensures the schema.
func NewSQLiteSlot(path, name string, logger zerolog.Logger) (*SQLiteSlot, error) {
	if name == "" {
		name = SlotName
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn().Err(err).Str("component", "store").Msg("could not set WAL mode")
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
        name TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at TEXT NOT NULL
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSlot{db: db, name: name}, nil
}

func (s *SQLiteSlot) Read(ctx context.Context) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, s.name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteSlot) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(name, value, updated_at) VALUES(?,?,?)`,
		s.name, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
