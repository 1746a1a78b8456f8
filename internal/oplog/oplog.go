// Package oplog defines the append-only operation log described (but not
// wired to persistence) in spec §3/§5: "an append-only sequence of
// metadata mutations (mkdir, create_file, delete_file, allocate_chunk)...
// Interface only; persistence/replay is out of scope here."
//
// SPEC_FULL.md supplements this with a real implementation: entries are
// appended before the RPC handler responds (spec §7's ordering
// requirement), encoded with msgpack, and — via the raftlog subpackage —
// durably replicated through a single-voter hashicorp/raft log. Recovery
// (replaying the log into a fresh MetadataIndex on startup) remains future
// work, exactly as spec §9 leaves it.
package oplog

import "context"

// Op identifies the kind of mutation an Entry records.
type Op uint8

const (
	OpMkdir Op = iota + 1
	OpCreateFile
	OpDeleteFile
	OpAllocateChunk
)

// Entry is one mutation record. Fields are a union over the four Op kinds;
// only the fields relevant to Op are populated.
type Entry struct {
	Op         Op
	Path       string
	ChunkIndex uint64 // OpAllocateChunk only
	Handle     uint64 // OpAllocateChunk only, recorded after hashing
}

// Log is the append-only operation log interface. Appenders call Append
// before acknowledging the RPC that produced the entry, so that a crash
// after the ack leaves no phantom state (spec §7).
type Log interface {
	// Append persists entry and returns once it is durable according to
	// the implementation's durability contract (in-memory: immediately;
	// raftlog: once committed to a quorum of the raft group).
	Append(ctx context.Context, entry Entry) error

	// Entries returns every entry appended so far, in append order.
	// Intended for recovery/replay and for tests; not for the hot path.
	Entries(ctx context.Context) ([]Entry, error)

	// Close releases any resources held by the log.
	Close() error
}
