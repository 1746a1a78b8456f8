package metadata

import (
	"context"
	"testing"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/oplog"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(oplog.NewMemoryLog(), nil, nil)
}

// Invariant 5: allocate_chunk is idempotent for the same (file, index).
func TestAllocateChunkIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.CreateFile(ctx, "/a"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	idx.Roster().Upsert("s1", 0, 10, nil, time.Now())

	m1, err := idx.AllocateChunk(ctx, "/a", 1)
	if err != nil {
		t.Fatalf("allocate 1: %v", err)
	}
	m2, err := idx.AllocateChunk(ctx, "/a", 1)
	if err != nil {
		t.Fatalf("allocate 2: %v", err)
	}
	if m1.Handle != m2.Handle {
		t.Fatalf("expected same handle, got %v and %v", m1.Handle, m2.Handle)
	}

	idx.fthMu.RLock()
	n := len(idx.fileToHandles["/a"])
	idx.fthMu.RUnlock()
	if n != 1 {
		t.Fatalf("expected set cardinality 1, got %d", n)
	}
}

func TestAllocateChunkFileNotFound(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.AllocateChunk(context.Background(), "/missing", 0)
	if !gfs.Is(err, gfs.KindFileNotFound) {
		t.Fatalf("expected FileNotFound, got %v", err)
	}
}

// S4: placement by free space.
func TestAllocateChunkPlacementByFreeSpace(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	idx.Roster().Upsert("s1", 0, 1_000_000, nil, time.Now())
	idx.Roster().Upsert("s2", 0, 2_000_000, nil, time.Now())
	idx.Roster().Upsert("s3", 0, 3_000_000, nil, time.Now())

	if err := idx.CreateFile(ctx, "/t/x.txt"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := idx.Mkdir(ctx, "/t"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	meta, err := idx.AllocateChunk(ctx, "/t/x.txt", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(meta.Locations) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(meta.Locations))
	}
	if meta.Locations[0].Address != "s3" || !meta.Locations[0].Primary {
		t.Fatalf("expected s3 first and primary, got %+v", meta.Locations[0])
	}
}

// S5: heartbeat garbage collection of an unknown handle.
func TestHeartbeatGarbageCollectsUnknownHandle(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.CreateFile(ctx, "/a"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	meta, err := idx.AllocateChunk(ctx, "/a", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	toDelete := idx.HeartbeatUpdate(ctx, "s1", 0, 10, []gfs.ChunkHandle{meta.Handle, 9999})
	if len(toDelete) != 1 || toDelete[0] != 9999 {
		t.Fatalf("expected to_delete={9999}, got %v", toDelete)
	}

	locs := idx.HandleLocations(meta.Handle)
	if len(locs) != 1 || locs[0] != "s1" {
		t.Fatalf("expected handle location {s1}, got %v", locs)
	}
}

// S6: deleting the file condemns a previously reported handle.
func TestHeartbeatAfterDeleteCondemnsHandle(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.CreateFile(ctx, "/a"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	meta, err := idx.AllocateChunk(ctx, "/a", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	toDelete := idx.HeartbeatUpdate(ctx, "s1", 0, 10, []gfs.ChunkHandle{meta.Handle})
	if len(toDelete) != 0 {
		t.Fatalf("expected no deletions before file delete, got %v", toDelete)
	}

	if err := idx.DeleteFile(ctx, "/a"); err != nil {
		t.Fatalf("delete file: %v", err)
	}

	toDelete = idx.HeartbeatUpdate(ctx, "s1", 0, 10, []gfs.ChunkHandle{meta.Handle})
	if len(toDelete) != 1 || toDelete[0] != meta.Handle {
		t.Fatalf("expected handle to be condemned, got %v", toDelete)
	}
}

// A handle from a deleted file must still be condemned after the same path
// is recreated, even though the recreated file is Active again and the
// reverse index still points the old handle at that path: the recreated
// file's FileToHandles set does not contain the stale handle.
func TestHeartbeatAfterDeleteAndRecreateStillCondemnsStaleHandle(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.CreateFile(ctx, "/a"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	meta, err := idx.AllocateChunk(ctx, "/a", 1)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := idx.DeleteFile(ctx, "/a"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if err := idx.CreateFile(ctx, "/a"); err != nil {
		t.Fatalf("recreate file: %v", err)
	}

	toDelete := idx.HeartbeatUpdate(ctx, "s1", 0, 10, []gfs.ChunkHandle{meta.Handle})
	if len(toDelete) != 1 || toDelete[0] != meta.Handle {
		t.Fatalf("expected stale handle from before recreation to be condemned, got %v", toDelete)
	}
}

func TestMkdirLsCreateDeleteDelegation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Mkdir(ctx, "/path/to/new/directory"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	names, err := idx.Ls("/path")
	if err != nil || len(names) != 1 || names[0] != "to" {
		t.Fatalf("ls /path = %v, %v", names, err)
	}

	if err := idx.CreateFile(ctx, "/path/to/new/directory/new_file"); err != nil {
		t.Fatalf("create file: %v", err)
	}
	names, err = idx.Ls("/path/to/new/directory")
	if err != nil || len(names) != 1 || names[0] != "new_file" {
		t.Fatalf("ls directory = %v, %v", names, err)
	}

	if err := idx.DeleteFile(ctx, "/path/to/new/directory/new_file"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	names, err = idx.Ls("/path/to/new/directory")
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty listing after delete, got %v, %v", names, err)
	}
}
