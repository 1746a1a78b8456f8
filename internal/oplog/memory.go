package oplog

import (
	"context"
	"sync"
)

// MemoryLog is the default Log implementation: entries live only in
// process memory. Used for tests and for single-process demos where
// durability does not matter. Matches the original source's behavior,
// where the operation log is declared but never survives a restart.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Log = (*MemoryLog)(nil)

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Append(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryLog) Entries(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryLog) Close() error { return nil }
