package roster

import (
	"testing"
	"time"

	"distfs/internal/gfs"
)

func TestUpsertRegistersOnFirstHeartbeat(t *testing.T) {
	r := New(nil)
	registered := r.Upsert("s1:8080", 100, 900, nil, time.Now())
	if !registered {
		t.Fatal("expected first heartbeat to register")
	}
	registered = r.Upsert("s1:8080", 200, 800, nil, time.Now())
	if registered {
		t.Fatal("expected second heartbeat not to re-register")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 server, got %d", r.Len())
	}
}

// S4: placement by free space.
func TestPlacementByFreeSpace(t *testing.T) {
	r := New(nil)
	now := time.Now()
	r.Upsert("s1", 0, 1_000_000, nil, now)
	r.Upsert("s2", 0, 2_000_000, nil, now)
	r.Upsert("s3", 0, 3_000_000, nil, now)

	addrs := r.Placement()
	if len(addrs) != 3 {
		t.Fatalf("expected 3 addresses, got %d", len(addrs))
	}
	if addrs[0] != "s3" {
		t.Fatalf("expected s3 first, got %v", addrs)
	}
}

func TestPlacementCapsAtThree(t *testing.T) {
	r := New(nil)
	now := time.Now()
	for i, addr := range []gfs.ServerAddress{"s1", "s2", "s3", "s4", "s5"} {
		r.Upsert(addr, 0, uint64(i), nil, now)
	}
	addrs := r.Placement()
	if len(addrs) != 3 {
		t.Fatalf("expected 3 addresses, got %d", len(addrs))
	}
}

func TestPlacementFewerThanThree(t *testing.T) {
	r := New(nil)
	r.Upsert("s1", 0, 10, nil, time.Now())
	addrs := r.Placement()
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addrs))
	}
}

func TestReapRemovesStaleServers(t *testing.T) {
	r := New(nil)
	old := time.Now().Add(-1 * time.Hour)
	r.Upsert("s1", 0, 10, []gfs.ChunkHandle{42}, old)
	r.Upsert("s2", 0, 10, nil, time.Now())

	removed := r.Reap(time.Now(), 5*time.Minute)
	if _, ok := removed["s1"]; !ok {
		t.Fatal("expected s1 to be reaped")
	}
	if _, ok := removed["s2"]; ok {
		t.Fatal("s2 should not be reaped")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 server left, got %d", r.Len())
	}
	if len(removed["s1"]) != 1 || removed["s1"][0] != 42 {
		t.Fatalf("expected removed handle set {42}, got %v", removed["s1"])
	}
}
