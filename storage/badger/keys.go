package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/tradmap/core"
)

// Key prefixes for each record family.
const (
	entryPrefix       = "icdent:"
	mappingPrefix     = "mapres:"
	mappingUserPrefix = "mapusr:"
	mappingTimePrefix = "maptim:"
	mappingHistPrefix = "maphst:"
	knowledgePrefix   = "knwrec:"
)

// keySeparator ends variable-length key segments.
const keySeparator byte = 0

// makeEntryKey generates a key for a classification entry by code.
func makeEntryKey(code string) []byte {
	return []byte(entryPrefix + code)
}

// makeMappingKey generates a key for a mapping result by ID.
func makeMappingKey(id string) []byte {
	return []byte(mappingPrefix + id)
}

// makeUserPrefix generates the index prefix covering all mappings of a user.
// Format: prefix:user\x00
func makeUserPrefix(userID string) []byte {
	buf := make([]byte, 0, len(mappingUserPrefix)+len(userID)+1)
	buf = append(buf, mappingUserPrefix...)
	buf = append(buf, userID...)
	return append(buf, keySeparator)
}

// makeUserKey generates a composite key for the per-user time index.
// Format: prefix:user\x00timestamp:id
func makeUserKey(userID string, createdAt time.Time, id string) []byte {
	return appendTimeAndID(makeUserPrefix(userID), createdAt, id)
}

// makeTimeKey generates a composite key for the global time index.
// Format: prefix:timestamp:id
func makeTimeKey(createdAt time.Time, id string) []byte {
	return appendTimeAndID([]byte(mappingTimePrefix), createdAt, id)
}

// appendTimeAndID writes the timestamp in BigEndian order so lexicographic
// sort matches chronological order.
func appendTimeAndID(prefix []byte, ts time.Time, id string) []byte {
	buf := make([]byte, len(prefix)+8, len(prefix)+8+len(id))
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], uint64(ts.UnixMicro()))
	return append(buf, id...)
}

// makeHistoryPrefix generates the index prefix for validated mappings of a
// (system, normalized term) pair.
// Format: prefix:system\x00term\x00
func makeHistoryPrefix(system core.System, normalizedTerm string) []byte {
	buf := make([]byte, 0, len(mappingHistPrefix)+len(system)+len(normalizedTerm)+2)
	buf = append(buf, mappingHistPrefix...)
	buf = append(buf, system...)
	buf = append(buf, keySeparator)
	buf = append(buf, normalizedTerm...)
	return append(buf, keySeparator)
}

// makeHistoryKey generates a key for one validated mapping.
// Format: prefix:system\x00term\x00code\x00id
func makeHistoryKey(system core.System, normalizedTerm, code, id string) []byte {
	buf := makeHistoryPrefix(system, normalizedTerm)
	buf = append(buf, code...)
	buf = append(buf, keySeparator)
	return append(buf, id...)
}

// historyCode extracts the code from a history key.
func historyCode(key, prefix []byte) string {
	rest := key[len(prefix):]
	for i, b := range rest {
		if b == keySeparator {
			return string(rest[:i])
		}
	}
	return string(rest)
}

// makeKnowledgeKey generates a key for a knowledge entry by concept ID.
func makeKnowledgeKey(id string) []byte {
	return []byte(knowledgePrefix + id)
}

// prefixEnd returns the smallest key greater than every key with the prefix.
// Used to seek reverse iterators.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix), len(prefix)+1)
	copy(end, prefix)
	return append(end, 0xFF)
}
