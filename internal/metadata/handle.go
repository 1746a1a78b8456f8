package metadata

import (
	"encoding/binary"
	"hash/fnv"

	"distfs/internal/gfs"
)

// computeHandle deterministically derives a chunk handle from
// (user ID, file path, chunk index), matching spec §3: "a deterministic
// hash of (user_id, file_path, chunk_index)". The user ID is hard-coded to
// gfs.UserID — multi-tenant hashing is undefined by the spec (§9).
//
// hash/maphash is intentionally avoided: it seeds per-process, so the same
// (file, index) pair would hash differently across master restarts,
// breaking the idempotence property in spec §8 item 5 across a crash.
// FNV-1a has no such seed.
func computeHandle(filePath string, chunkIndex uint64) gfs.ChunkHandle {
	h := fnv.New64a()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(gfs.UserID))
	_, _ = h.Write(buf[:])

	_, _ = h.Write([]byte(filePath))

	binary.BigEndian.PutUint64(buf[:], chunkIndex)
	_, _ = h.Write(buf[:])

	return gfs.ChunkHandle(h.Sum64())
}
