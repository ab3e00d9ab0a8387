package engine

import (
	"hash/crc32"
	"sync/atomic"
)

// crcTable is the reversed-polynomial CRC-32 table (poly 0xEDB88320),
// which is exactly the stdlib's IEEE table — no custom table needed.
var crcTable = crc32.IEEETable

// computeChecksum returns the CRC-32 (seed 0xFFFFFFFF, final complement)
// of a full page image with the 4-byte CRC field (image[0:4]) treated as
// zero during computation. image must be len(image) >= 4.
func computeChecksum(image []byte) uint32 {
	h := crc32.New(crcTable)
	h.Write(zeroCRCField)
	h.Write(image[4:])
	return h.Sum32()
}

// zeroCRCField is reused across calls to avoid an allocation per checksum.
var zeroCRCField = []byte{0, 0, 0, 0}

// quickMode disables CRC validation on reads when set, per the spec's
// "quick mode" global flag. It never affects writes: commitPage always
// computes and stores a correct CRC regardless of this flag.
var quickMode atomic.Bool

// SetQuickMode enables or disables CRC validation on page reads, globally,
// for this process. Callers that enable it accept responsibility for
// detecting corruption by other means.
func SetQuickMode(enabled bool) {
	quickMode.Store(enabled)
}

// QuickMode reports whether CRC validation on reads is currently disabled.
func QuickMode() bool {
	return quickMode.Load()
}
