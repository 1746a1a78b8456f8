package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"distfs/internal/gfs"
)

func TestOpenScansExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "42"), []byte("data"), 0o644); err != nil {
		t.Fatalf("seed chunk file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "not-a-handle"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed stray file: %v", err)
	}

	store, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	handles := store.Handles()
	if len(handles) != 1 || handles[0] != gfs.ChunkHandle(42) {
		t.Fatalf("unexpected handles: %v", handles)
	}
}

func TestRunPicksUpNewFilesAndDeleteRemovesThem(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "7"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write chunk file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hasHandle(store.Handles(), 7) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !hasHandle(store.Handles(), 7) {
		t.Fatal("new chunk file was never picked up")
	}

	if err := store.Delete(gfs.ChunkHandle(7)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if hasHandle(store.Handles(), 7) {
		t.Fatal("deleted handle still reported")
	}
	if _, err := os.Stat(filepath.Join(dir, "7")); !os.IsNotExist(err) {
		t.Fatal("chunk file still present on disk after delete")
	}
}

func hasHandle(handles []gfs.ChunkHandle, want gfs.ChunkHandle) bool {
	for _, h := range handles {
		if h == want {
			return true
		}
	}
	return false
}

func TestDiskUsageReportsNonZero(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	used, available, err := store.DiskUsage()
	if err != nil {
		t.Fatalf("disk usage: %v", err)
	}
	if used == 0 && available == 0 {
		t.Fatal("expected non-zero disk usage stats")
	}
}
