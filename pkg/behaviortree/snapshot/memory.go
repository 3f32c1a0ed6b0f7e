package snapshot

import (
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in process memory, for tests and short-lived
// processes. Snapshots are held encoded, so callers never share them.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]map[string]memoryEntry // runID -> nodeID -> entry
	closed bool
}

type memoryEntry struct {
	info Info
	data []byte
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]map[string]memoryEntry)}
}

// Save implements Store.
func (m *MemoryStore) Save(s *Snapshot) (Info, error) {
	data, err := s.Marshal()
	if err != nil {
		return Info{}, err
	}
	info := s.info(len(data))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Info{}, ErrStoreClosed
	}
	nodes, ok := m.runs[s.RunID]
	if !ok {
		nodes = make(map[string]memoryEntry)
		m.runs[s.RunID] = nodes
	}
	nodes[s.NodeID] = memoryEntry{info: info, data: data}
	return info, nil
}

// Load implements Store.
func (m *MemoryStore) Load(runID, nodeID string) (*Snapshot, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	e, ok := m.runs[runID][nodeID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return Unmarshal(e.data)
}

// Latest implements Store.
func (m *MemoryStore) Latest(runID string) (*Snapshot, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	var latest *memoryEntry
	for _, e := range m.runs[runID] {
		if latest == nil || e.info.Sequence > latest.info.Sequence {
			e := e
			latest = &e
		}
	}
	m.mu.RUnlock()

	if latest == nil {
		return nil, ErrNotFound
	}
	return Unmarshal(latest.data)
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	nodes := m.runs[runID]
	infos := make([]Info, 0, len(nodes))
	for _, e := range nodes {
		infos = append(infos, e.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Sequence != infos[j].Sequence {
			return infos[i].Sequence < infos[j].Sequence
		}
		return infos[i].NodeID < infos[j].NodeID
	})
	return infos, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.runs, runID)
	return nil
}

// Close implements Store. The store drops its contents.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}
