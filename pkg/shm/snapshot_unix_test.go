//go:build unix

package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logshm/pkg/types"
)

func TestReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logshm.shm")
	seg, err := OpenSegment(path)
	if err != nil {
		t.Fatalf("OpenSegment: %v", err)
	}
	defer seg.Close()

	// Three records written, the first already consumed; slot addressing wraps.
	base := uint32(types.Capacity - 1)
	for i := uint32(0); i < 3; i++ {
		seg.PutRecord(int((base+i)%types.Capacity), types.Record{Text: fmt.Sprintf("r%d", i)})
	}
	seg.SetReadIndex(base + 1)
	seg.SetWriteIndex(base + 3)
	seg.SetEntryCount(2)

	snap, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.EntryCount != 2 || snap.WriteIndex != base+3 || snap.ReadIndex != base+1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if len(snap.Records) != 2 || snap.Records[0].Text != "r1" || snap.Records[1].Text != "r2" {
		t.Fatalf("unexpected records: %+v", snap.Records)
	}
}

func TestReadSnapshotWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.shm")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("expected ErrLayoutMismatch, got %v", err)
	}
}
