// Package raftlog durably replicates the operation log through a
// hashicorp/raft group. It mirrors the teacher's config/raftfsm +
// config/raftstore split: FSM applies committed log entries into an
// in-memory store, and Log routes writes through raft.Apply() so they
// persist to the raft log (boltdb) before the FSM ever sees them.
//
// Multi-node consensus is explicitly out of scope for this core (spec
// §1 Non-goals: "multi-master consensus"); by default this runs as a
// single-voter group, which still buys a real write-ahead log and
// snapshot/compaction machinery instead of the bare interface the
// original source declares.
package raftlog

import (
	"fmt"
	"io"
	"sync"

	"distfs/internal/oplog"

	"github.com/hashicorp/raft"
)

// FSM applies committed oplog entries to an in-memory replica.
type FSM struct {
	mu      sync.Mutex
	entries []oplog.Entry
}

var _ raft.FSM = (*FSM)(nil)

// NewFSM creates an FSM with an empty replica.
func NewFSM() *FSM {
	return &FSM{}
}

// Apply deserializes a committed raft log entry and appends it to the
// in-memory replica. Returns an error value (not panicking) on malformed
// data, which raft surfaces through the ApplyFuture.
func (f *FSM) Apply(l *raft.Log) interface{} {
	entry, err := oplog.Unmarshal(l.Data)
	if err != nil {
		return fmt.Errorf("unmarshal oplog entry: %w", err)
	}
	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()
	return nil
}

// Entries returns a copy of every entry applied so far, in order.
func (f *FSM) Entries() []oplog.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]oplog.Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Snapshot returns a point-in-time copy of the replica for raft's
// snapshot/compaction machinery.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	return &fsmSnapshot{entries: f.Entries()}, nil
}

// Restore replaces the replica wholesale from a previously taken snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	entries, err := decodeSnapshot(rc)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()
	return nil
}

type fsmSnapshot struct {
	entries []oplog.Entry
}

// Persist writes the snapshot through sink, compressed with zstd so that
// long-lived masters don't accumulate uncompressed operation-log history
// on disk across snapshot generations.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := encodeSnapshot(sink, s.entries)
	if err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}
