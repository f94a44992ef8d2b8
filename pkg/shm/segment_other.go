//go:build !unix

package shm

import (
	"errors"
	"fmt"
)

func OpenSegment(path string) (*Segment, error) {
	return nil, fmt.Errorf("open segment %s: %w", path, errors.ErrUnsupported)
}
