//go:build unix

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// OpenSegment creates or opens the named segment file and maps it shared.
// An empty file is grown to SegmentSize; any other size is rejected.
func OpenSegment(path string) (*Segment, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	// The mapping outlives the descriptor.
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("stat segment %s: %w", path, err)
	}

	switch st.Size {
	case SegmentSize:
	case 0:
		if err := unix.Ftruncate(fd, SegmentSize); err != nil {
			return nil, fmt.Errorf("size segment %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrLayoutMismatch, path, st.Size, SegmentSize)
	}

	mem, err := unix.Mmap(fd, 0, SegmentSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap segment %s: %w", path, err)
	}

	return &Segment{mem: mem, path: path, unmap: unix.Munmap}, nil
}
