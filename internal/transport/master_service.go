package transport

import (
	"context"
	"time"

	"distfs/internal/gfs"
	"distfs/internal/metadata"
)

// MasterService exposes Index's operations as net/rpc methods, matching
// the signature net/rpc requires: exported method, two arguments (args,
// *reply), error return. Grounded on the *-goGFS teachers' master.go RPC
// surface, generalized to the full set spec §6 names.
type MasterService struct {
	index *metadata.Index
}

// NewMasterService wraps index for RPC dispatch.
func NewMasterService(index *metadata.Index) *MasterService {
	return &MasterService{index: index}
}

func (m *MasterService) Heartbeat(args *HeartbeatArgs, reply *HeartbeatReply) error {
	toDelete := m.index.HeartbeatUpdate(context.Background(), args.ServerAddress, args.Used, args.Available, args.ChunkHandles)
	reply.ToDelete = toDelete
	return nil
}

func (m *MasterService) Mkdir(args *MkdirArgs, reply *MkdirReply) error {
	return m.index.Mkdir(context.Background(), args.Path)
}

func (m *MasterService) Ls(args *LsArgs, reply *LsReply) error {
	content, err := m.index.Ls(args.Path)
	if err != nil {
		return err
	}
	reply.Content = content
	return nil
}

func (m *MasterService) CreateFile(args *CreateFileArgs, reply *CreateFileReply) error {
	return m.index.CreateFile(context.Background(), args.FilePath)
}

func (m *MasterService) DeleteFile(args *DeleteFileArgs, reply *DeleteFileReply) error {
	return m.index.DeleteFile(context.Background(), args.FilePath)
}

func (m *MasterService) AllocateChunk(args *AllocateChunkArgs, reply *AllocateChunkReply) error {
	meta, err := m.index.AllocateChunk(context.Background(), args.FilePath, args.ChunkIndex)
	if err != nil {
		return err
	}
	reply.ChunkMetadata = toWireChunkMetadata(meta)
	return nil
}

// OpenFile resolves every chunk already allocated for path, reporting each
// one's currently known locations. It does not allocate new chunks;
// callers writing past the end of a file call AllocateChunk for the next
// index.
func (m *MasterService) OpenFile(args *OpenFileArgs, reply *OpenFileReply) error {
	handles, err := m.index.Chunks(args.Path)
	if err != nil {
		return err
	}
	metas := make([]ChunkMetadata, len(handles))
	for i, h := range handles {
		addrs := m.index.HandleLocations(h)
		locations := make([]Location, len(addrs))
		for j, addr := range addrs {
			locations[j] = Location{Address: addr, Primary: j == 0}
		}
		metas[i] = ChunkMetadata{ChunkHandle: h, Locations: locations}
	}
	reply.ChunksMetadata = metas
	return nil
}

func (m *MasterService) CloseFile(args *CloseFileArgs, reply *CloseFileReply) error {
	return nil
}

func toWireChunkMetadata(meta metadata.ChunkMetadata) ChunkMetadata {
	locations := make([]Location, len(meta.Locations))
	for i, l := range meta.Locations {
		locations[i] = Location{Address: l.Address, Primary: l.Primary}
	}
	return ChunkMetadata{ChunkHandle: meta.Handle, Locations: locations, LeaseID: meta.LeaseID}
}

// RPCLeaseGranter implements metadata.LeaseGranter by calling the
// designated primary's GrantLease RPC. Used on the master side; the
// chunk-server side handler living in the (out-of-core) chunk-server
// binary is expected to ack unconditionally for now, since lease
// enforcement is design-level only (spec §6).
type RPCLeaseGranter struct {
	Timeout time.Duration
}

var _ metadata.LeaseGranter = (*RPCLeaseGranter)(nil)

func (g *RPCLeaseGranter) GrantLease(ctx context.Context, primary gfs.ServerAddress, handle gfs.ChunkHandle, secondaries []gfs.ServerAddress, leaseID string, expiry time.Time) error {
	timeout := g.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := &GrantLeaseArgs{
		ChunkHandle: handle,
		Secondaries: secondaries,
		LeaseID:     leaseID,
		ExpiryUnix:  expiry.Unix(),
	}
	var reply GrantLeaseReply
	return Call(ctx, primary, "ChunkServerService.GrantLease", args, &reply)
}
