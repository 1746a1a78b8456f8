// Package heartbeat implements the chunk-server side of the heartbeat
// protocol (spec §4.4): a fixed-interval task that samples local state and
// reports it to the master, applying whatever garbage-collection list
// comes back. The tick is a gocron job whose interval is a parameter of
// New rather than a compile-time-constant ticker; cmd/chunkserver passes
// gfs.DefaultHeartbeatInterval and does not expose the interval as a flag
// or config setting.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/heartbeat/localstore"
	"distfs/internal/logging"
	"distfs/internal/transport"

	"github.com/go-co-op/gocron/v2"
)

// Controller runs the periodic heartbeat tick for one chunk server.
type Controller struct {
	address  gfs.ServerAddress
	master   gfs.ServerAddress
	store    *localstore.Store
	interval time.Duration
	logger   *slog.Logger

	scheduler gocron.Scheduler
}

// New builds a Controller that reports address to master every interval,
// sourcing used/available/handles from store.
func New(address, master gfs.ServerAddress, store *localstore.Store, interval time.Duration, logger *slog.Logger) (*Controller, error) {
	if interval <= 0 {
		interval = gfs.DefaultHeartbeatInterval
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Controller{
		address:   address,
		master:    master,
		store:     store,
		interval:  interval,
		logger:    logging.Default(logger).With("component", "heartbeat"),
		scheduler: scheduler,
	}, nil
}

// Start schedules the tick and begins running it asynchronously. Call
// Stop to shut the scheduler down.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.scheduler.NewJob(
		gocron.DurationJob(c.interval),
		gocron.NewTask(func() { c.tick(ctx) }),
		gocron.WithStartImmediately(),
	)
	if err != nil {
		return err
	}
	c.scheduler.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight tick to finish.
func (c *Controller) Stop() error {
	return c.scheduler.Shutdown()
}

// tick performs one heartbeat: sample, report, apply the reply's deletion
// list. Failures are logged and retried on the next tick — heartbeats are
// idempotent and carry full state (spec §4.4 step 3), so a single lost
// heartbeat is self-healing.
func (c *Controller) tick(ctx context.Context) {
	used, available, err := c.store.DiskUsage()
	if err != nil {
		c.logger.Warn("disk usage sample failed", "error", err)
		return
	}
	handles := c.store.Handles()

	args := &transport.HeartbeatArgs{
		ServerAddress: c.address,
		Used:          used,
		Available:     available,
		ChunkHandles:  handles,
	}
	var reply transport.HeartbeatReply

	callCtx, cancel := context.WithTimeout(ctx, c.interval)
	defer cancel()
	if err := transport.Call(callCtx, c.master, "MasterService.Heartbeat", args, &reply); err != nil {
		c.logger.Warn("heartbeat rpc failed, will retry next tick", "error", err)
		return
	}

	for _, h := range reply.ToDelete {
		if err := c.store.Delete(h); err != nil {
			c.logger.Warn("local chunk deletion failed", "handle", h, "error", err)
		}
	}
}
