// Package snapshot stores point-in-time records of a behavior tree's node
// states, for post-mortem diagnostics of a run.
//
// The engine saves one snapshot each time a node completes, keyed by run ID
// and node path, so List(runID) replays how the tree settled. Snapshots
// describe execution state only; tree definitions are never persisted.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the current snapshot format version.
// Increment when making breaking changes to snapshot structure.
const Version = 1

// NodeRecord is one node's state at snapshot time.
type NodeRecord struct {
	// Path is the dotted index path ("root", "root.0", "root.0.1").
	Path  string `json:"path"`
	Label string `json:"label"`
	State string `json:"state"`
	Depth int    `json:"depth"`
}

// Snapshot is the persisted view of a tree after one node completed.
type Snapshot struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	Nodes []NodeRecord `json:"nodes"`

	// Dump is the rendered tree, as produced by behaviortree.Render.
	Dump string `json:"dump,omitempty"`
}

// New creates a snapshot taken after nodeID completed.
func New(runID, nodeID string, sequence int, nodes []NodeRecord) *Snapshot {
	return &Snapshot{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		Nodes:     nodes,
	}
}

// WithDump attaches the rendered tree.
func (s *Snapshot) WithDump(dump string) *Snapshot {
	s.Dump = dump
	return s
}

// Node returns the record at path.
func (s *Snapshot) Node(path string) (NodeRecord, bool) {
	for _, n := range s.Nodes {
		if n.Path == path {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// info describes s as stored in size bytes.
func (s *Snapshot) info(size int) Info {
	return Info{
		RunID:     s.RunID,
		NodeID:    s.NodeID,
		Version:   s.Version,
		Sequence:  s.Sequence,
		Timestamp: s.Timestamp,
		Size:      int64(size),
	}
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON, rejecting newer format versions.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > Version {
		return nil, fmt.Errorf("%w: got %d, support %d", ErrVersionMismatch, s.Version, Version)
	}
	return &s, nil
}
