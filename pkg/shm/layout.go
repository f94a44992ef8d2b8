// Package shm holds the fixed binary layout of the shared log segment, the
// named file mapping that backs it and the cross-process lock that guards it.
//
// Every attaching process must agree on this layout byte for byte:
//
//	0x0000  writeIndex  uint32
//	0x0004  readIndex   uint32
//	0x0008  entryCount  uint32
//	0x000C  slot[0..1023], 532 bytes each
//
// A slot is timestamp int64, level int32, text [512]byte (NUL terminated),
// processId uint32, threadId uint32. All fields are little-endian and packed.
package shm

import (
	"errors"
	"unicode/utf8"

	"github.com/downfa11-org/logshm/pkg/types"
)

const (
	writeIndexOff = 0
	readIndexOff  = 4
	entryCountOff = 8

	// HeaderSize is the size of the three counters preceding the slots.
	HeaderSize = 12

	recTimestampOff = 0
	recLevelOff     = 8
	recTextOff      = 12
	recPIDOff       = recTextOff + types.TextMaxLen
	recTIDOff       = recPIDOff + 4

	// RecordSize is the size of one slot.
	RecordSize = recTIDOff + 4

	// SegmentSize is the exact size of the shared segment.
	SegmentSize = HeaderSize + types.Capacity*RecordSize
)

// ErrLayoutMismatch is returned when an existing segment does not have the
// size every attacher expects.
var ErrLayoutMismatch = errors.New("shm: segment layout mismatch")

// TruncateText cuts s so that it fits the text field with its terminator.
// The cut backs off to a rune boundary so the stored prefix stays valid UTF-8.
func TruncateText(s string) (string, bool) {
	const limit = types.TextMaxLen - 1
	if len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
