package transport

import "log/slog"

// ChunkServerService is the RPC surface a chunk server exposes to the
// master: just the lease grant (spec §6, "design-level"). Data-plane RPCs
// (StoreChunk/RetrieveChunk) are explicitly out of scope for this core.
type ChunkServerService struct {
	logger *slog.Logger
}

// NewChunkServerService constructs the handler; logger may be nil.
func NewChunkServerService(logger *slog.Logger) *ChunkServerService {
	return &ChunkServerService{logger: logger}
}

// GrantLease acknowledges the lease unconditionally. Enforcing the lease
// (rejecting writes from a non-primary, expiring it) is design-level only
// per spec §6 and is not part of this core.
func (c *ChunkServerService) GrantLease(args *GrantLeaseArgs, reply *GrantLeaseReply) error {
	if c.logger != nil {
		c.logger.Info("lease granted", "chunk_handle", args.ChunkHandle, "lease_id", args.LeaseID)
	}
	return nil
}
