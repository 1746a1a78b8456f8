package raftlog

import (
	"context"
	"testing"
	"time"

	"distfs/internal/oplog"

	"github.com/hashicorp/raft"
)

func TestAppendAndEntries(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(Config{
		Dir:      dir,
		ServerID: raft.ServerID("test-node"),
		BindAddr: "test-node",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	waitForLeader(t, l)

	ctx := context.Background()
	entries := []oplog.Entry{
		{Op: oplog.OpMkdir, Path: "/a"},
		{Op: oplog.OpCreateFile, Path: "/a/b.txt"},
	}
	for _, e := range entries {
		if err := l.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := l.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Path != "/a" || got[1].Path != "/a/b.txt" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

// waitForLeader blocks until the single-voter group elects itself leader.
// A freshly bootstrapped group needs one election cycle before it will
// accept Apply calls.
func waitForLeader(t *testing.T, l *Log) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if addr, _ := l.raft.LeaderWithID(); addr != "" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for raft leader")
}
