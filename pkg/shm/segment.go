package shm

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/downfa11-org/logshm/pkg/types"
)

// Segment is a view over the mapped shared region. Counter accessors are
// atomic so that lock-free readers never observe a torn word; callers are
// still expected to hold the cross-process Lock for anything but EntryCount.
type Segment struct {
	mem   []byte
	path  string
	unmap func([]byte) error
}

func newSegmentView(mem []byte) *Segment {
	return &Segment{mem: mem}
}

func (s *Segment) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&s.mem[off]))
}

// Path returns the file backing the mapping, if any.
func (s *Segment) Path() string { return s.path }

// WriteIndex returns the total number of records ever appended.
func (s *Segment) WriteIndex() uint32 { return atomic.LoadUint32(s.word(writeIndexOff)) }

// SetWriteIndex stores the write index.
func (s *Segment) SetWriteIndex(v uint32) { atomic.StoreUint32(s.word(writeIndexOff), v) }

// ReadIndex returns the total number of records consumed or evicted.
func (s *Segment) ReadIndex() uint32 { return atomic.LoadUint32(s.word(readIndexOff)) }

// SetReadIndex stores the read index.
func (s *Segment) SetReadIndex(v uint32) { atomic.StoreUint32(s.word(readIndexOff), v) }

// EntryCount returns the number of currently retrievable records.
func (s *Segment) EntryCount() uint32 { return atomic.LoadUint32(s.word(entryCountOff)) }

// SetEntryCount stores the entry count.
func (s *Segment) SetEntryCount(v uint32) { atomic.StoreUint32(s.word(entryCountOff), v) }

func (s *Segment) slot(i int) []byte {
	off := HeaderSize + i*RecordSize
	return s.mem[off : off+RecordSize : off+RecordSize]
}

// PutRecord overwrites slot i with r and reports whether the text had to be
// truncated. The unused tail of the text field is zeroed.
func (s *Segment) PutRecord(i int, r types.Record) bool {
	b := s.slot(i)
	binary.LittleEndian.PutUint64(b[recTimestampOff:], uint64(r.Timestamp))
	binary.LittleEndian.PutUint32(b[recLevelOff:], uint32(r.Level))

	text, truncated := TruncateText(r.Text)
	field := b[recTextOff:recPIDOff]
	n := copy(field, text)
	clear(field[n:])

	binary.LittleEndian.PutUint32(b[recPIDOff:], r.ProcessID)
	binary.LittleEndian.PutUint32(b[recTIDOff:], r.ThreadID)
	return truncated
}

// GetRecord copies slot i out of the segment.
func (s *Segment) GetRecord(i int) types.Record {
	b := s.slot(i)
	field := b[recTextOff:recPIDOff]
	if n := bytes.IndexByte(field, 0); n >= 0 {
		field = field[:n]
	}
	return types.Record{
		Timestamp: int64(binary.LittleEndian.Uint64(b[recTimestampOff:])),
		Level:     types.Level(int32(binary.LittleEndian.Uint32(b[recLevelOff:]))),
		Text:      string(field),
		ProcessID: binary.LittleEndian.Uint32(b[recPIDOff:]),
		ThreadID:  binary.LittleEndian.Uint32(b[recTIDOff:]),
	}
}

// Zero clears the counters and every slot.
func (s *Segment) Zero() {
	clear(s.mem)
}

// ScrubSlots clears every slot but leaves the counters alone.
func (s *Segment) ScrubSlots() {
	clear(s.mem[HeaderSize:])
}

// Close unmaps the segment. The backing file is never removed: other
// processes may still be attached to it.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	if s.unmap == nil {
		return nil
	}
	return s.unmap(mem)
}
