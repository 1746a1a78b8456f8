package raftlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/oplog"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	boltdb "github.com/hashicorp/raft-boltdb/v2"
)

// Log is a distfs/internal/oplog.Log backed by a single-voter hashicorp/raft
// group: Append blocks until the entry is committed to the raft log,
// Entries reads back the FSM's in-memory replica. Grounded on the
// teacher's internal/config/raftstore.Store, trading its protobuf-coded
// config snapshots for msgpack-coded oplog entries.
type Log struct {
	raft         *raft.Raft
	fsm          *FSM
	boltDB       *boltdb.BoltStore
	logger       *slog.Logger
	applyTimeout time.Duration
}

var _ oplog.Log = (*Log)(nil)

// Config configures a single-node raft group rooted at Dir.
type Config struct {
	Dir          string
	ServerID     raft.ServerID
	BindAddr     string
	Logger       *slog.Logger
	ApplyTimeout time.Duration
}

// Open starts (or recovers) a single-voter raft group under cfg.Dir. Callers
// that only need in-process durability with no intent to ever grow the
// group still get boltdb-backed persistence and snapshot/compaction.
func Open(cfg Config) (*Log, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create raft dir: %w", err)
	}

	store, err := boltdb.NewBoltStore(filepath.Join(cfg.Dir, "raft-log.bolt"))
	if err != nil {
		return nil, fmt.Errorf("open boltdb store: %w", err)
	}

	snapshots, err := raft.NewFileSnapshotStore(cfg.Dir, 2, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	addr := cfg.BindAddr
	if addr == "" {
		addr = string(cfg.ServerID)
	}
	_, transport := raft.NewInmemTransport(raft.ServerAddress(addr))

	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = cfg.ServerID
	raftCfg.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "raft",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	fsm := NewFSM()
	r, err := raft.NewRaft(raftCfg, fsm, store, store, snapshots, transport)
	if err != nil {
		return nil, fmt.Errorf("start raft: %w", err)
	}

	bootstrapCfg := raft.Configuration{
		Servers: []raft.Server{
			{ID: raftCfg.LocalID, Address: transport.LocalAddr()},
		},
	}
	r.BootstrapCluster(bootstrapCfg)

	applyTimeout := cfg.ApplyTimeout
	if applyTimeout == 0 {
		applyTimeout = gfs.DefaultRaftApplyTimeout
	}

	return &Log{raft: r, fsm: fsm, boltDB: store, logger: logger, applyTimeout: applyTimeout}, nil
}

func (l *Log) Append(ctx context.Context, entry oplog.Entry) error {
	data, err := oplog.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal oplog entry: %w", err)
	}

	timeout := l.applyTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	future := l.raft.Apply(data, timeout)
	if err := future.Error(); err != nil {
		return fmt.Errorf("raft apply: %w", err)
	}
	if fsmErr, ok := future.Response().(error); ok && fsmErr != nil {
		return fmt.Errorf("apply oplog entry: %w", fsmErr)
	}
	return nil
}

func (l *Log) Entries(_ context.Context) ([]oplog.Entry, error) {
	return l.fsm.Entries(), nil
}

// Close shuts down the raft group and releases the boltdb handle.
func (l *Log) Close() error {
	if err := l.raft.Shutdown().Error(); err != nil {
		l.logger.Warn("raft shutdown error", "error", err)
	}
	return l.boltDB.Close()
}
