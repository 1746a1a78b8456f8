package heartbeat

import (
	"log/slog"
	"sync/atomic"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/logging"
	"distfs/internal/metadata"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/time/rate"
)

// Sweeper periodically reaps chunk servers that have gone quiet, resolving
// the spec §9 open question ("roster entries are never reaped"). A
// rate.Limiter caps the (potentially expensive, lock-holding) reap pass at
// once per the interval given to NewSweeper, whatever interval Start
// schedules; cmd/master passes the same interval to both.
type Sweeper struct {
	index     *metadata.Index
	threshold atomic.Int64 // time.Duration, updatable without restart
	limiter   *rate.Limiter
	logger    *slog.Logger

	scheduler gocron.Scheduler
}

// NewSweeper builds a background sweep over index, reaping servers idle
// longer than threshold, running at most once per interval.
func NewSweeper(index *metadata.Index, threshold, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if threshold <= 0 {
		threshold = gfs.DefaultLivenessThreshold
	}
	if interval <= 0 {
		interval = gfs.DefaultSweepInterval
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s := &Sweeper{
		index:     index,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logging.Default(logger).With("component", "sweeper"),
		scheduler: scheduler,
	}
	s.threshold.Store(int64(threshold))
	return s, nil
}

// SetThreshold updates the liveness threshold used by future ticks, without
// requiring a restart. Safe to call concurrently with a running sweep.
func (s *Sweeper) SetThreshold(threshold time.Duration) {
	s.threshold.Store(int64(threshold))
}

// Start schedules the sweep tick.
func (s *Sweeper) Start(interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.tick),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

// Stop halts the scheduler.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) tick() {
	if !s.limiter.Allow() {
		return
	}
	removed := s.index.Reap(time.Duration(s.threshold.Load()))
	for addr, handles := range removed {
		s.logger.Warn("chunk server reaped for inactivity", "address", addr, "orphaned_handles", len(handles))
	}
}
