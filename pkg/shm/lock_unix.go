//go:build unix

package shm

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Lock is the named, system-wide exclusive lock guarding the segment.
//
// It is an flock(2) on a well-known file: the kernel drops the lock when the
// holding process exits, so a crashed holder never wedges other attachers.
// flock does not exclude goroutines sharing one descriptor, hence the mutex.
//
// The first bytes of the lock file double as the control word recording
// whether the segment has been zeroed.
type Lock struct {
	mu   sync.Mutex
	fd   int
	ctrl []byte
	path string
}

// OpenLock opens (creating if needed) the lock file at path.
func OpenLock(path string) (*Lock, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat lock %s: %w", path, err)
	}
	// Growing only: concurrent openers agree on the size and existing
	// control bytes survive.
	if st.Size < ControlSize {
		if err := unix.Ftruncate(fd, ControlSize); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("size lock %s: %w", path, err)
		}
	}

	ctrl, err := unix.Mmap(fd, 0, ControlSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap lock %s: %w", path, err)
	}

	return &Lock{fd: fd, ctrl: ctrl, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Lock blocks until the lock is held, with no timeout.
func (l *Lock) Lock() error {
	l.mu.Lock()
	if err := flock(l.fd, unix.LOCK_EX); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("flock %s: %w", l.path, err)
	}
	return nil
}

// TryLock acquires the lock only if no one else holds it.
func (l *Lock) TryLock() (bool, error) {
	if !l.mu.TryLock() {
		return false, nil
	}
	err := flock(l.fd, unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return true, nil
	}
	l.mu.Unlock()
	if errors.Is(err, unix.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock %s: %w", l.path, err)
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	err := flock(l.fd, unix.LOCK_UN)
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("funlock %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) state() *uint32 {
	return (*uint32)(unsafe.Pointer(&l.ctrl[0]))
}

// InitState returns the shared initialization state.
func (l *Lock) InitState() uint32 { return atomic.LoadUint32(l.state()) }

// CompareAndSwapInitState transitions the shared initialization state.
func (l *Lock) CompareAndSwapInitState(old, new uint32) bool {
	return atomic.CompareAndSwapUint32(l.state(), old, new)
}

// SetInitState stores the shared initialization state.
func (l *Lock) SetInitState(v uint32) { atomic.StoreUint32(l.state(), v) }

// Close releases this process's handle. It must not be called while held.
func (l *Lock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd < 0 {
		return nil
	}
	var errs []error
	if l.ctrl != nil {
		errs = append(errs, unix.Munmap(l.ctrl))
		l.ctrl = nil
	}
	errs = append(errs, unix.Close(l.fd))
	l.fd = -1
	return errors.Join(errs...)
}

func flock(fd, how int) error {
	for {
		err := unix.Flock(fd, how)
		if err != unix.EINTR {
			return err
		}
	}
}
