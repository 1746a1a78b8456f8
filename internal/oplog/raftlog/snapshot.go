package raftlog

import (
	"encoding/binary"
	"io"

	"distfs/internal/oplog"

	"github.com/klauspost/compress/zstd"
)

// encodeSnapshot writes entries to w as a zstd-compressed stream of
// length-prefixed msgpack records.
func encodeSnapshot(w io.Writer, entries []oplog.Entry) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	for _, e := range entries {
		data, err := oplog.Marshal(e)
		if err != nil {
			zw.Close()
			return err
		}
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
		if _, err := zw.Write(lenBuf[:]); err != nil {
			zw.Close()
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

// decodeSnapshot reads a stream produced by encodeSnapshot.
func decodeSnapshot(r io.Reader) ([]oplog.Entry, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var entries []oplog.Entry
	for {
		var lenBuf [4]byte
		_, err := io.ReadFull(zr, lenBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		data := make([]byte, n)
		if _, err := io.ReadFull(zr, data); err != nil {
			return nil, err
		}
		entry, err := oplog.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
