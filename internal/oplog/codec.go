package oplog

import "github.com/vmihailenco/msgpack/v5"

// Marshal encodes an Entry with msgpack: a compact binary format well
// suited to a log that may be replayed many times, in contrast to the
// original's declared-but-never-encoded entries.
func Marshal(e Entry) ([]byte, error) {
	return msgpack.Marshal(e)
}

// Unmarshal decodes an Entry previously produced by Marshal.
func Unmarshal(data []byte) (Entry, error) {
	var e Entry
	err := msgpack.Unmarshal(data, &e)
	return e, err
}
