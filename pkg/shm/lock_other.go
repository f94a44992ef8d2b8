//go:build !unix

package shm

import (
	"errors"
	"fmt"
)

// Lock is unavailable on this platform.
type Lock struct{}

func OpenLock(path string) (*Lock, error) {
	return nil, fmt.Errorf("open lock %s: %w", path, errors.ErrUnsupported)
}

func (l *Lock) Path() string                                { return "" }
func (l *Lock) Lock() error                                 { return errors.ErrUnsupported }
func (l *Lock) TryLock() (bool, error)                      { return false, errors.ErrUnsupported }
func (l *Lock) Unlock() error                               { return errors.ErrUnsupported }
func (l *Lock) InitState() uint32                           { return InitNone }
func (l *Lock) CompareAndSwapInitState(old, new uint32) bool { return false }
func (l *Lock) SetInitState(v uint32)                       {}
func (l *Lock) Close() error                                { return nil }
