package heartbeat

import (
	"context"
	"net"
	"net/rpc"
	"os"
	"path/filepath"
	"testing"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/heartbeat/localstore"
	"distfs/internal/metadata"
	"distfs/internal/oplog"
	"distfs/internal/transport"
)

func startTestMaster(t *testing.T, index *metadata.Index) gfs.ServerAddress {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := rpc.NewServer()
	if err := server.Register(transport.NewMasterService(index)); err != nil {
		t.Fatalf("register: %v", err)
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go server.ServeConn(conn)
		}
	}()
	t.Cleanup(func() { l.Close() })
	return gfs.ServerAddress(l.Addr().String())
}

func TestControllerTickRegistersWithMaster(t *testing.T) {
	index := metadata.New(oplog.NewMemoryLog(), nil, nil)
	masterAddr := startTestMaster(t, index)

	dir := t.TempDir()
	chunkPath := filepath.Join(dir, "42")
	if err := os.WriteFile(chunkPath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write chunk file: %v", err)
	}

	store, err := localstore.Open(dir, nil)
	if err != nil {
		t.Fatalf("open localstore: %v", err)
	}

	ctrl, err := New("cs1:9000", masterAddr, store, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer ctrl.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := index.Roster().Get("cs1:9000"); ok && len(st.Handles) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for heartbeat to register chunk server")
}
