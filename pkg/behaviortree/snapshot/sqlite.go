package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// schema is applied in order on open; every statement is idempotent.
var schema = []string{
	`PRAGMA journal_mode=WAL`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		run_id   TEXT    NOT NULL,
		node_id  TEXT    NOT NULL,
		version  INTEGER NOT NULL,
		sequence INTEGER NOT NULL,
		taken_at INTEGER NOT NULL,
		size     INTEGER NOT NULL,
		data     BLOB    NOT NULL,
		PRIMARY KEY (run_id, node_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_run_sequence
		ON snapshots(run_id, sequence DESC)`,
}

// SQLiteStore persists snapshots to a SQLite database, one row per
// (run, node). Rows carry the format version, the engine's sequence number
// and the encoded size as columns, so List and Latest never decode
// payloads they do not return.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a snapshot database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	// One connection: a :memory: database lives per connection, and a
	// single writer is all a tree run produces.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply snapshot schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(snap *Snapshot) (Info, error) {
	data, err := snap.Marshal()
	if err != nil {
		return Info{}, err
	}
	info := snap.info(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Info{}, ErrStoreClosed
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (run_id, node_id, version, sequence, taken_at, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, node_id) DO UPDATE SET
			version  = excluded.version,
			sequence = excluded.sequence,
			taken_at = excluded.taken_at,
			size     = excluded.size,
			data     = excluded.data
	`, info.RunID, info.NodeID, info.Version, info.Sequence, info.Timestamp.UnixNano(), info.Size, data)
	if err != nil {
		return Info{}, fmt.Errorf("save snapshot %s/%s: %w", info.RunID, info.NodeID, err)
	}
	return info, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(runID, nodeID string) (*Snapshot, error) {
	return s.queryOne(`
		SELECT version, data FROM snapshots
		WHERE run_id = ? AND node_id = ?
	`, runID, nodeID)
}

// Latest implements Store. It reads a single row through the
// (run_id, sequence) index.
func (s *SQLiteStore) Latest(runID string) (*Snapshot, error) {
	return s.queryOne(`
		SELECT version, data FROM snapshots
		WHERE run_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`, runID)
}

// queryOne decodes the single (version, data) row selected by query.
// Rows from a newer format are rejected before decoding.
func (s *SQLiteStore) queryOne(query string, args ...any) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		version int
		data    []byte
	)
	err := s.db.QueryRow(query, args...).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if version > Version {
		return nil, fmt.Errorf("%w: got %d, support %d", ErrVersionMismatch, version, Version)
	}
	return Unmarshal(data)
}

// List implements Store.
func (s *SQLiteStore) List(runID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT node_id, version, sequence, taken_at, size
		FROM snapshots
		WHERE run_id = ?
		ORDER BY sequence, node_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		info := Info{RunID: runID}
		var takenAt int64
		if err := rows.Scan(&info.NodeID, &info.Version, &info.Sequence, &takenAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot info: %w", err)
		}
		info.Timestamp = time.Unix(0, takenAt).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run snapshots: %w", err)
	}
	return nil
}

// Close implements Store. Closing twice is safe.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
