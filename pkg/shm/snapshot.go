package shm

import (
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/downfa11-org/logshm/pkg/types"
)

// Snapshot is a best-effort copy of the segment taken without the lock.
// Counters and records may be mutually inconsistent if a writer was active.
type Snapshot struct {
	WriteIndex uint32
	ReadIndex  uint32
	EntryCount uint32
	Records    []types.Record
}

// ReadSnapshot maps the segment file read-only and decodes the counters and
// the records still retained between readIndex and writeIndex.
func ReadSnapshot(path string) (*Snapshot, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer r.Close()

	if r.Len() != SegmentSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrLayoutMismatch, path, r.Len(), SegmentSize)
	}

	buf := make([]byte, SegmentSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	seg := newSegmentView(buf)
	snap := &Snapshot{
		WriteIndex: seg.WriteIndex(),
		ReadIndex:  seg.ReadIndex(),
		EntryCount: seg.EntryCount(),
	}

	retained := snap.WriteIndex - snap.ReadIndex
	if retained > types.Capacity {
		retained = types.Capacity
	}
	snap.Records = make([]types.Record, 0, retained)
	for i := uint32(0); i < retained; i++ {
		snap.Records = append(snap.Records, seg.GetRecord(int((snap.ReadIndex+i)%types.Capacity)))
	}
	return snap, nil
}
