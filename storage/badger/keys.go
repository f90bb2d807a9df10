package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	memoryPrefix     = "memrec"
	memoryDatePrefix = "memrecd"
	memoryHashPrefix = "memrech"
	memoryIDSeq      = "memrecseq"
)

// makeMemoryKey generates a key for a memory by ID.
func makeMemoryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", memoryPrefix, id))
}

// makeMemoryDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeMemoryDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := memoryDatePrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialMemoryDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialMemoryDateKey(timestamp time.Time) []byte {
	prefix := memoryDatePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeMemoryHashKey generates a key for the content-hash index.
func makeMemoryHashKey(hash core.ID) []byte {
	prefix := memoryHashPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(hash))
	return buf
}
