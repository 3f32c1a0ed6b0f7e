package snapshot

import (
	"errors"
	"time"
)

// Store persists snapshots, at most one per (run, node).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores s under (s.RunID, s.NodeID), replacing an earlier
	// snapshot of the same node, and returns what was stored.
	Save(s *Snapshot) (Info, error)

	// Load retrieves the snapshot taken after nodeID completed.
	// Returns ErrNotFound if it doesn't exist.
	Load(runID, nodeID string) (*Snapshot, error)

	// Latest retrieves the snapshot with the highest sequence in runID.
	// Returns ErrNotFound if the run has none.
	Latest(runID string) (*Snapshot, error)

	// List returns metadata for all snapshots of a run, ordered by sequence.
	// Returns empty slice (not error) if the run has none.
	List(runID string) ([]Info, error)

	// DeleteRun removes all snapshots for a run.
	// Returns nil if the run has none.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without decoding the full snapshot.
type Info struct {
	RunID     string
	NodeID    string
	Version   int
	Sequence  int
	Timestamp time.Time
	// Size is the encoded size in bytes.
	Size int64
}

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")

	// ErrVersionMismatch indicates data written by a newer format version.
	ErrVersionMismatch = errors.New("snapshot version mismatch")
)
