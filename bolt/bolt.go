package bolt

import (
	"encoding/binary"
	"time"
)

func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v).UTC()
}

// makeTimeKey returns an index key ordering records by timestamp, with
// the record ID appended to keep keys unique.
func makeTimeKey(t time.Time, id string) []byte {
	key := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(key[0:8], uint64(encodeTime(t)))
	copy(key[8:], id)
	return key
}
