// Package metadata hosts the Index: the join point over the namespace
// tree, the file→chunk-handle map, the chunk-handle→location map, and the
// chunk-server roster (spec §4.3). It is the only component permitted to
// hold references to any of those structures; everything else reaches them
// through Index's methods, each of which takes and releases its own locks
// internally per the hierarchy in spec §5.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/logging"
	"distfs/internal/namespace"
	"distfs/internal/oplog"
	"distfs/internal/roster"

	"github.com/google/uuid"
)

// Location is one proposed or confirmed host for a chunk. Primary is set on
// exactly one entry — the address designated to hold the write lease —
// following the spec §4.3 step 5 requirement that at minimum the first
// returned address be tagged primary even when the lease RPC itself fails.
// When no chunk server is known, AllocateChunk returns no locations at all.
type Location struct {
	Address gfs.ServerAddress
	Primary bool
}

// ChunkMetadata is the result of a successful AllocateChunk call.
type ChunkMetadata struct {
	Handle    gfs.ChunkHandle
	Locations []Location
	LeaseID   string
}

// LeaseGranter issues a write lease to a chunk's designated primary. It is
// the out-of-core collaborator spec §6 calls GrantLease; Index depends on
// it only through this interface so that the transport implementation can
// live in its own package without an import cycle.
type LeaseGranter interface {
	GrantLease(ctx context.Context, primary gfs.ServerAddress, handle gfs.ChunkHandle, secondaries []gfs.ServerAddress, leaseID string, expiry time.Time) error
}

// Index is the metadata engine: namespace + FileToHandles + HandleToLocations
// + roster + operation log, composed behind one API. Lock acquisition
// within its methods follows spec §5's hierarchy: roster, then
// filepath_to_chunk_handles, then handle_to_chunk_servers, then namespace,
// then operation_log.
type Index struct {
	namespace *namespace.Tree
	roster    *roster.Roster
	log       oplog.Log
	granter   LeaseGranter
	logger    *slog.Logger

	fthMu         sync.RWMutex
	fileToHandles map[string]map[gfs.ChunkHandle]struct{}
	reverseIndex  map[gfs.ChunkHandle]string // handle -> owning file path

	htlMu             sync.RWMutex
	handleToLocations map[gfs.ChunkHandle]map[gfs.ServerAddress]struct{}
}

// New composes an Index over a fresh namespace and roster. log must not be
// nil; pass oplog.NewMemoryLog() for a process-local, non-durable log.
// granter may be nil, in which case AllocateChunk skips lease issuance
// entirely (equivalent to every lease attempt failing).
func New(log oplog.Log, granter LeaseGranter, logger *slog.Logger) *Index {
	logger = logging.Default(logger).With("component", "metadata")
	return &Index{
		namespace:         namespace.New(logger),
		roster:            roster.New(logger),
		log:               log,
		granter:           granter,
		logger:            logger,
		fileToHandles:     make(map[string]map[gfs.ChunkHandle]struct{}),
		reverseIndex:      make(map[gfs.ChunkHandle]string),
		handleToLocations: make(map[gfs.ChunkHandle]map[gfs.ServerAddress]struct{}),
	}
}

// Roster exposes the underlying roster, e.g. for the background liveness
// sweep to call Reap against.
func (idx *Index) Roster() *roster.Roster { return idx.roster }

func (idx *Index) appendLog(ctx context.Context, entry oplog.Entry) error {
	if err := idx.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("append operation log: %w", err)
	}
	return nil
}

// Mkdir delegates to the namespace tree and records the mutation.
func (idx *Index) Mkdir(ctx context.Context, path string) error {
	if err := idx.namespace.Mkdir(path); err != nil {
		return err
	}
	return idx.appendLog(ctx, oplog.Entry{Op: oplog.OpMkdir, Path: path})
}

// Ls delegates to the namespace tree. Read-only; not logged.
func (idx *Index) Ls(path string) ([]string, error) {
	return idx.namespace.Ls(path)
}

// CreateFile delegates to the namespace tree and, on success, ensures an
// empty handle set exists in FileToHandles (spec §4.3: "insert empty set").
func (idx *Index) CreateFile(ctx context.Context, path string) error {
	if err := idx.namespace.CreateFile(path); err != nil {
		return err
	}
	idx.fthMu.Lock()
	if _, ok := idx.fileToHandles[path]; !ok {
		idx.fileToHandles[path] = make(map[gfs.ChunkHandle]struct{})
	}
	idx.fthMu.Unlock()
	return idx.appendLog(ctx, oplog.Entry{Op: oplog.OpCreateFile, Path: path})
}

// DeleteFile delegates to the namespace tree and removes the FileToHandles
// entry. The reverse index is left intact: a handle that was assigned to
// this file still maps back to it, so a chunk server that keeps reporting
// the handle is correctly classified Condemned (spec §4.3 state table)
// rather than silently forgotten.
func (idx *Index) DeleteFile(ctx context.Context, path string) error {
	if err := idx.namespace.DeleteFile(path); err != nil {
		return err
	}
	idx.fthMu.Lock()
	delete(idx.fileToHandles, path)
	idx.fthMu.Unlock()
	return idx.appendLog(ctx, oplog.Entry{Op: oplog.OpDeleteFile, Path: path})
}

// AllocateChunk computes a deterministic handle for (filePath, chunkIndex),
// registers it against the file, consults placement, and best-effort
// issues a lease to the designated primary. Acquires filepath_to_chunk_handles
// before roster, per spec §5: "allocate_chunk acquires #2 then #1."
func (idx *Index) AllocateChunk(ctx context.Context, filePath string, chunkIndex uint64) (ChunkMetadata, error) {
	handle := computeHandle(filePath, chunkIndex)

	idx.fthMu.Lock()
	set, ok := idx.fileToHandles[filePath]
	if !ok {
		idx.fthMu.Unlock()
		return ChunkMetadata{}, gfs.NewError(gfs.KindFileNotFound, filePath)
	}
	if _, exists := set[handle]; !exists {
		set[handle] = struct{}{}
		idx.reverseIndex[handle] = filePath
	}
	idx.fthMu.Unlock()

	addrs := idx.roster.Placement()
	if len(addrs) < gfs.DefaultNumReplicas {
		idx.logger.Warn("placement degraded: fewer than desired replicas available",
			"file_path", filePath, "got", len(addrs), "want", gfs.DefaultNumReplicas)
	}

	locations := make([]Location, len(addrs))
	for i, addr := range addrs {
		locations[i] = Location{Address: addr, Primary: i == 0}
	}

	leaseID := uuid.NewString()
	if idx.granter != nil && len(addrs) > 0 {
		expiry := time.Now().Add(gfs.DefaultLeaseExpiry)
		if err := idx.granter.GrantLease(ctx, addrs[0], handle, addrs[1:], leaseID, expiry); err != nil {
			// Lease issuance failing does not fail allocation (spec §5, §7):
			// the chunk is effectively primary-less until the next attempt.
			idx.logger.Warn("lease grant failed, allocation still succeeds",
				"handle", handle, "primary", addrs[0], "error", err)
		}
	}

	meta := ChunkMetadata{Handle: handle, Locations: locations, LeaseID: leaseID}
	entry := oplog.Entry{Op: oplog.OpAllocateChunk, Path: filePath, ChunkIndex: chunkIndex, Handle: uint64(handle)}
	if err := idx.appendLog(ctx, entry); err != nil {
		return ChunkMetadata{}, err
	}
	return meta, nil
}

// HeartbeatUpdate upserts the reporting server's status, folds its reported
// handles into HandleToLocations, and returns the handles that should be
// deleted locally. Lock order: roster (#1), then handle_to_chunk_servers
// (#3), then filepath_to_chunk_handles + namespace (#2 + #4) inside
// GetOutdatedChunks — matching spec §5 exactly.
func (idx *Index) HeartbeatUpdate(ctx context.Context, addr gfs.ServerAddress, used, available uint64, handles []gfs.ChunkHandle) []gfs.ChunkHandle {
	idx.roster.Upsert(addr, used, available, handles, time.Now())

	idx.htlMu.Lock()
	for _, h := range handles {
		set, ok := idx.handleToLocations[h]
		if !ok {
			set = make(map[gfs.ServerAddress]struct{})
			idx.handleToLocations[h] = set
		}
		set[addr] = struct{}{}
	}
	idx.htlMu.Unlock()

	return idx.GetOutdatedChunks(handles)
}

// GetOutdatedChunks classifies each reported handle using the reverse
// index built up by AllocateChunk, avoiding the linear scan over
// FileToHandles the original source performs. A handle is outdated if no
// file currently claims it, or the claiming file is not Active.
//
// The reverse index is never cleared on DeleteFile (see its comment), so a
// stale reverseIndex[h] entry can survive a delete-then-recreate cycle on
// the same path. Trusting reverseIndex plus IsActive alone would then
// misclassify h as current once the path is Active again, even though the
// recreated file's FileToHandles set does not contain h. Re-checking
// membership in the path's *current* set closes that gap.
func (idx *Index) GetOutdatedChunks(reported []gfs.ChunkHandle) []gfs.ChunkHandle {
	type lookup struct {
		path  string
		found bool
	}
	lookups := make([]lookup, len(reported))

	idx.fthMu.RLock()
	for i, h := range reported {
		path, ok := idx.reverseIndex[h]
		if !ok {
			continue
		}
		if set, ok := idx.fileToHandles[path]; ok {
			if _, member := set[h]; member {
				lookups[i] = lookup{path: path, found: true}
			}
		}
	}
	idx.fthMu.RUnlock()

	var outdated []gfs.ChunkHandle
	for i, h := range reported {
		if !lookups[i].found {
			outdated = append(outdated, h)
			continue
		}
		active, err := idx.namespace.IsActive(lookups[i].path)
		if err != nil || !active {
			outdated = append(outdated, h)
		}
	}
	return outdated
}

// Chunks returns every handle currently registered against filePath, in no
// particular order. Used by OpenFile to enumerate a file's chunks without
// re-running allocation.
func (idx *Index) Chunks(filePath string) ([]gfs.ChunkHandle, error) {
	idx.fthMu.RLock()
	defer idx.fthMu.RUnlock()
	set, ok := idx.fileToHandles[filePath]
	if !ok {
		return nil, gfs.NewError(gfs.KindFileNotFound, filePath)
	}
	out := make([]gfs.ChunkHandle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	return out, nil
}

// HandleLocations returns a copy of the currently known server set for a
// handle, primarily for tests and diagnostics.
func (idx *Index) HandleLocations(h gfs.ChunkHandle) []gfs.ServerAddress {
	idx.htlMu.RLock()
	defer idx.htlMu.RUnlock()
	set, ok := idx.handleToLocations[h]
	if !ok {
		return nil
	}
	out := make([]gfs.ServerAddress, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	return out
}

// Reap removes chunk servers that have gone quiet for longer than
// threshold and retracts their handles from HandleToLocations, so that a
// subsequently Lost handle stops reporting a server that no longer exists.
func (idx *Index) Reap(threshold time.Duration) map[gfs.ServerAddress][]gfs.ChunkHandle {
	removed := idx.roster.Reap(time.Now(), threshold)
	if len(removed) == 0 {
		return removed
	}
	idx.htlMu.Lock()
	for addr, handles := range removed {
		for _, h := range handles {
			if set, ok := idx.handleToLocations[h]; ok {
				delete(set, addr)
				if len(set) == 0 {
					delete(idx.handleToLocations, h)
				}
			}
		}
	}
	idx.htlMu.Unlock()
	return removed
}
