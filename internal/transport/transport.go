// Package transport implements the external interfaces spec §6 names but
// leaves unspecified ("the RPC transport... is out of scope as a core
// guarantee; specified only by the interfaces they consume/expose"). It
// picks net/rpc over TCP, grounded in the *-goGFS teachers' util.Call
// pattern, and fans out multi-destination calls with errgroup instead of
// the teachers' raw channel-per-call loop.
package transport

import (
	"context"
	"net"
	"net/rpc"

	"distfs/internal/gfs"

	"golang.org/x/sync/errgroup"
)

// HeartbeatArgs is the chunk-server -> master heartbeat request (spec §6).
type HeartbeatArgs struct {
	ServerAddress gfs.ServerAddress
	Used          uint64
	Available     uint64
	ChunkHandles  []gfs.ChunkHandle
}

// HeartbeatReply carries the garbage-collection list.
type HeartbeatReply struct {
	ToDelete []gfs.ChunkHandle
}

// MkdirArgs/MkdirReply back Master.Mkdir.
type MkdirArgs struct{ Path string }
type MkdirReply struct{}

// LsArgs/LsReply back Master.Ls.
type LsArgs struct{ Path string }
type LsReply struct{ Content []string }

// CreateFileArgs/CreateFileReply back Master.CreateFile.
type CreateFileArgs struct{ FilePath string }
type CreateFileReply struct{}

// DeleteFileArgs/DeleteFileReply back Master.DeleteFile.
type DeleteFileArgs struct{ FilePath string }
type DeleteFileReply struct{}

// Location is the wire form of metadata.Location; MasterService converts
// between the two.
type Location struct {
	Address gfs.ServerAddress
	Primary bool
}

// ChunkMetadata mirrors metadata.ChunkMetadata for wire purposes.
type ChunkMetadata struct {
	ChunkHandle gfs.ChunkHandle
	Locations   []Location
	LeaseID     string
}

// AllocateChunkArgs/AllocateChunkReply back Master.AllocateChunk.
type AllocateChunkArgs struct {
	FilePath   string
	ChunkIndex uint64
}
type AllocateChunkReply struct{ ChunkMetadata ChunkMetadata }

// OpenFileArgs/OpenFileReply back Master.OpenFile.
type OpenFileArgs struct {
	Path string
	Mode string // "read" or "write"
}
type OpenFileReply struct{ ChunksMetadata []ChunkMetadata }

// CloseFileArgs/CloseFileReply back Master.CloseFile.
type CloseFileArgs struct{ Path string }
type CloseFileReply struct{}

// GrantLeaseArgs/GrantLeaseReply back the master -> chunk-server lease RPC.
type GrantLeaseArgs struct {
	ChunkHandle gfs.ChunkHandle
	Secondaries []gfs.ServerAddress
	LeaseID     string
	ExpiryUnix  int64
}
type GrantLeaseReply struct{}

// Call dials addr and invokes rpcName, closing the connection afterward.
// Grounded on the teachers' util.Call, generalized to accept a context so
// callers can bound dial+call latency.
func Call(ctx context.Context, addr gfs.ServerAddress, rpcName string, args, reply interface{}) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", string(addr))
	if err != nil {
		return gfs.Wrap(gfs.KindTransport, string(addr), err)
	}
	client := rpc.NewClient(conn)
	defer client.Close()

	call := client.Go(rpcName, args, reply, nil)
	select {
	case <-ctx.Done():
		return gfs.Wrap(gfs.KindTransport, string(addr), ctx.Err())
	case res := <-call.Done:
		if res.Error != nil {
			return gfs.Wrap(gfs.KindTransport, string(addr), res.Error)
		}
		return nil
	}
}

// CallAll fans rpcName out to every address in dst concurrently, returning
// the first error encountered (if any) after all calls complete.
func CallAll(ctx context.Context, dst []gfs.ServerAddress, rpcName string, argsFor func(gfs.ServerAddress) interface{}) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, addr := range dst {
		addr := addr
		g.Go(func() error {
			var reply struct{}
			return Call(ctx, addr, rpcName, argsFor(addr), &reply)
		})
	}
	return g.Wait()
}
