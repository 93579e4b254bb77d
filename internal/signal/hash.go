package signal

import (
	"hash/fnv"
	"strconv"
)

// HashPayload reduces a large unstable payload (rendered canvas pixels, audio
// sample buffers) to a fixed-width identifier for cheap equality comparison
// against known reference fingerprints. FNV-1a 32-bit: seed 2166136261,
// prime 16777619, rendered as lowercase hex. Not a security primitive.
func HashPayload(data []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// HashString is HashPayload over the UTF-8 bytes of s.
func HashString(s string) string {
	return HashPayload([]byte(s))
}
