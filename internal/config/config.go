// Package config describes the desired shape of a master or chunk-server
// process (spec §6: "Master reads host and port from a configuration
// file. Chunk server reads master_host, master_port; heartbeat interval
// is a compile-time constant... SHOULD become a config knob"). It carries
// the heartbeat interval as a field next to the other settings, following
// the teacher's config.Store split between the declarative shape and its
// persistence. Only cmd/master loads a Config; cmd/chunkserver takes its
// settings from command-line flags.
package config

import (
	"context"
	"strconv"
	"time"

	"distfs/internal/gfs"
)

// Config is the declarative configuration for one process. Not every
// field applies to every role: cmd/master reads Host/Port,
// LivenessThreshold and SweepInterval; MasterHost/MasterPort/DataDir/
// HeartbeatInterval describe a chunk server, but cmd/chunkserver does not
// read a Config and uses its flags and gfs.DefaultHeartbeatInterval.
type Config struct {
	// Host/Port: address this process listens on.
	Host string
	Port int

	// MasterHost/MasterPort: where a chunk server finds the master.
	MasterHost string
	MasterPort int

	// DataDir is the chunk server's local chunk storage directory.
	DataDir string

	HeartbeatInterval time.Duration
	LivenessThreshold time.Duration
	SweepInterval     time.Duration
}

// Address formats Host:Port for listening or advertising.
func (c Config) Address() gfs.ServerAddress {
	return gfs.ServerAddress(fmtAddr(c.Host, c.Port))
}

// MasterAddress formats MasterHost:MasterPort for dialing the master.
func (c Config) MasterAddress() gfs.ServerAddress {
	return gfs.ServerAddress(fmtAddr(c.MasterHost, c.MasterPort))
}

func fmtAddr(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

// Default returns a Config populated with the spec's defaults: a
// chunk server's heartbeat interval, liveness threshold, and sweep
// interval all default to the gfs package constants.
func Default() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              7777,
		MasterHost:        "127.0.0.1",
		MasterPort:        7777,
		DataDir:           "./data",
		HeartbeatInterval: gfs.DefaultHeartbeatInterval,
		LivenessThreshold: gfs.DefaultLivenessThreshold,
		SweepInterval:     gfs.DefaultSweepInterval,
	}
}

// Store persists and loads a Config, mirroring the teacher's
// config.Store split between declarative shape and its backing.
type Store interface {
	Load(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg *Config) error
}
