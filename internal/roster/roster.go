// Package roster tracks the fleet of known chunk servers: their address,
// free-space accounting, liveness, and the handle set they last reported.
// It also implements the placement policy consulted on allocation (spec
// §4.2). Grounded on the *-goGFS teacher's chunkServerManager, generalized
// to the spec's ChunkServerStatus shape.
package roster

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/logging"
)

// Status mirrors spec §3's ChunkServerStatus record.
type Status struct {
	Address       gfs.ServerAddress
	Used          uint64
	Available     uint64
	Handles       map[gfs.ChunkHandle]struct{}
	LastHeartbeat time.Time
}

func (s *Status) handleSlice() []gfs.ChunkHandle {
	out := make([]gfs.ChunkHandle, 0, len(s.Handles))
	for h := range s.Handles {
		out = append(out, h)
	}
	return out
}

// Roster is the process-wide map from chunk-server address to Status.
// Insertion on first heartbeat acts as registration; there is no separate
// registration RPC (spec §7: "Heartbeats NEVER error on unknown servers;
// they register").
type Roster struct {
	mu      sync.RWMutex
	servers map[gfs.ServerAddress]*Status
	logger  *slog.Logger
}

// New creates an empty roster.
func New(logger *slog.Logger) *Roster {
	return &Roster{
		servers: make(map[gfs.ServerAddress]*Status),
		logger:  logging.Default(logger).With("component", "roster"),
	}
}

// Upsert records a heartbeat report, registering the server if this is its
// first contact. used/available/last_heartbeat are refreshed and handles
// is overwritten wholesale, per spec §4.3 step 1.
func (r *Roster) Upsert(addr gfs.ServerAddress, used, available uint64, handles []gfs.ChunkHandle, now time.Time) (registered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[gfs.ChunkHandle]struct{}, len(handles))
	for _, h := range handles {
		set[h] = struct{}{}
	}

	st, ok := r.servers[addr]
	if !ok {
		r.servers[addr] = &Status{
			Address:       addr,
			Used:          used,
			Available:     available,
			Handles:       set,
			LastHeartbeat: now,
		}
		r.logger.Info("chunk server registered", "address", addr)
		return true
	}
	st.Used = used
	st.Available = available
	st.Handles = set
	st.LastHeartbeat = now
	return false
}

// Get returns a copy of the status for addr, or false if unknown.
func (r *Roster) Get(addr gfs.ServerAddress) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.servers[addr]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

// Len reports how many servers are currently known.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// Placement returns up to gfs.DefaultNumReplicas addresses, sorted by
// available bytes descending (spec §4.2). Ties are broken arbitrarily
// (map iteration order). The policy deliberately ignores rack/fault-domain
// awareness.
func (r *Roster) Placement() []gfs.ServerAddress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		addr      gfs.ServerAddress
		available uint64
	}
	entries := make([]entry, 0, len(r.servers))
	for addr, st := range r.servers {
		entries = append(entries, entry{addr, st.Available})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].available > entries[j].available
	})

	n := gfs.DefaultNumReplicas
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]gfs.ServerAddress, n)
	for i := 0; i < n; i++ {
		out[i] = entries[i].addr
	}
	return out
}

// Reap removes every server whose last heartbeat is older than threshold
// relative to now, resolving the §9 open question ("roster entries are
// never reaped"). It returns the removed servers' last-known handle sets
// so MetadataIndex can retract them from HandleToLocations and surface the
// resulting Lost-state transitions.
func (r *Roster) Reap(now time.Time, threshold time.Duration) map[gfs.ServerAddress][]gfs.ChunkHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[gfs.ServerAddress][]gfs.ChunkHandle)
	for addr, st := range r.servers {
		if now.Sub(st.LastHeartbeat) > threshold {
			removed[addr] = st.handleSlice()
			delete(r.servers, addr)
			r.logger.Warn("chunk server reaped", "address", addr, "last_heartbeat", st.LastHeartbeat)
		}
	}
	return removed
}
