// Package gfs holds the small set of types shared across the master and
// chunk server: addresses, chunk handles, and tunable constants. It has no
// dependencies on any other internal package so that both sides of the
// wire can import it without pulling in master- or chunkserver-only code.
package gfs

import "time"

// ServerAddress is the advertised address a chunk server registers under.
// The master never trusts the TCP peer address for identity: a chunk
// server may sit behind NAT, so registration always uses the address the
// server itself reports in its heartbeat.
type ServerAddress string

// ChunkHandle is the system-wide identifier of a chunk: a deterministic
// hash of (user, file path, chunk index). Collisions are treated as
// impossible by this design.
type ChunkHandle uint64

const (
	// DefaultNumReplicas is how many chunk servers placement tries to return.
	DefaultNumReplicas = 3

	// DefaultHeartbeatInterval is how often a chunk server reports to the
	// master. heartbeat.New takes the interval as a parameter and falls back
	// to this value for a non-positive one; cmd/chunkserver always passes
	// this value and has no flag or config setting for it.
	DefaultHeartbeatInterval = 60 * time.Second

	// DefaultLivenessThreshold is how long the master waits without a
	// heartbeat before reaping a chunk server from the roster.
	DefaultLivenessThreshold = 3 * DefaultHeartbeatInterval

	// DefaultSweepInterval is how often the master's background task
	// checks for dead servers.
	DefaultSweepInterval = 10 * time.Second

	// UserID is the hard-coded tenant used when hashing chunk handles.
	// Multi-tenant semantics are undefined by the spec (see §9).
	UserID = 1

	// DefaultLeaseExpiry bounds how long a primary designation is valid
	// before a fresh allocation would be needed to re-establish one.
	DefaultLeaseExpiry = 60 * time.Second

	// DefaultRaftApplyTimeout bounds how long a durable oplog append waits
	// for the single-voter raft group to commit an entry.
	DefaultRaftApplyTimeout = 10 * time.Second
)
