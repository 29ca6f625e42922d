package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"simexerciser/internal/exercise"
)

// SQLiteStore keeps the snapshot as a single keyed row in a SQLite database,
// for setups that prefer one durable file shared across tools.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the snapshot database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared", path))
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL,
		data TEXT NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads and decodes the snapshot row, or (nil, nil) when absent.
func (s *SQLiteStore) Load() (*exercise.Snapshot, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE key = ?`, Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode([]byte(data))
}

// Save upserts the snapshot row.
func (s *SQLiteStore) Save(snap exercise.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots(key, updated_at, data) VALUES (?,?,?)
		 ON CONFLICT(key) DO UPDATE SET updated_at=excluded.updated_at, data=excluded.data`,
		Key, time.Now().UTC().Format(time.RFC3339), string(data),
	)
	return err
}

// Clear deletes the snapshot row.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, Key)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
