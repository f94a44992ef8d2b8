// Package logring implements the shared log ring: cooperative
// initialization of the segment, the drop-oldest producer path and the FIFO
// consumer path. Every mutating or consuming call runs inside the single
// cross-process critical section; Count is the only unsynchronized read.
package logring

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/downfa11-org/logshm/pkg/metrics"
	"github.com/downfa11-org/logshm/pkg/shm"
	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

var (
	// ErrInitialization means the lock or segment could not be obtained.
	ErrInitialization = errors.New("logring: initialization failed")
	// ErrNotReady means the buffer was used before Initialize or after Teardown.
	ErrNotReady = errors.New("logring: buffer not initialized")
)

// Stats is a consistent view of the ring counters taken under the lock.
type Stats struct {
	WriteIndex uint32
	ReadIndex  uint32
	EntryCount uint32
}

// Buffer is this process's handle on the shared ring.
type Buffer struct {
	opts Options
	pid  uint32

	// mu guards the handles against Teardown, not the shared data.
	mu   sync.RWMutex
	lock *shm.Lock
	seg  *shm.Segment
}

func New(opts Options) *Buffer {
	return &Buffer{
		opts: opts.withDefaults(),
		pid:  uint32(os.Getpid()),
	}
}

// Options returns the options the buffer was created with.
func (b *Buffer) Options() Options { return b.opts }

// Initialize attaches to the shared segment, zeroing it if this caller is
// the first to get there. Calling it again on an attached buffer is a no-op.
func (b *Buffer) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seg != nil {
		return nil
	}

	if err := os.MkdirAll(b.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	lock, err := shm.OpenLock(b.opts.LockPath())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := lock.Lock(); err != nil {
		lock.Close()
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	seg, err := shm.OpenSegment(b.opts.SegmentPath())
	if err != nil {
		lock.Unlock()
		lock.Close()
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	// Anything but ready means nobody finished zeroing, including an
	// initializer that died half way.
	state := lock.InitState()
	if state != shm.InitReady && lock.CompareAndSwapInitState(state, shm.InitZeroing) {
		seg.Zero()
		lock.SetInitState(shm.InitReady)
		util.Info("Zeroed shared log segment %s", seg.Path())
	}
	entries := seg.EntryCount()

	if err := lock.Unlock(); err != nil {
		seg.Close()
		lock.Close()
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	b.lock, b.seg = lock, seg
	metrics.BufferEntries.Set(float64(entries))
	util.Debug("Attached to %s (entries=%d)", seg.Path(), entries)
	return nil
}

// Teardown releases this process's handles. Shared data is left untouched
// since other processes may still be attached.
func (b *Buffer) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seg == nil {
		return
	}
	if err := b.seg.Close(); err != nil {
		util.Warn("Failed to unmap segment: %v", err)
	}
	if err := b.lock.Close(); err != nil {
		util.Warn("Failed to close lock: %v", err)
	}
	b.seg, b.lock = nil, nil
}

// withLock runs fn inside the cross-process critical section. It blocks
// without timeout until the lock is acquired.
func (b *Buffer) withLock(fn func(seg *shm.Segment)) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.seg == nil {
		return ErrNotReady
	}

	start := time.Now()
	if err := b.lock.Lock(); err != nil {
		return err
	}
	metrics.LockWait.Observe(time.Since(start).Seconds())
	defer func() {
		if err := b.lock.Unlock(); err != nil {
			util.Error("Failed to release lock: %v", err)
		}
	}()

	fn(b.seg)
	return nil
}

// Post appends a record. When the ring is full the oldest unread record is
// silently evicted. Oversized text is truncated, never rejected.
func (b *Buffer) Post(timestamp int64, level types.Level, text string) error {
	var (
		truncated bool
		evicted   bool
		entries   uint32
	)
	err := b.withLock(func(seg *shm.Segment) {
		w := seg.WriteIndex()
		truncated = seg.PutRecord(int(w%types.Capacity), types.Record{
			Timestamp: timestamp,
			Level:     level,
			Text:      text,
			ProcessID: b.pid,
			ThreadID:  currentThreadID(),
		})
		seg.SetWriteIndex(w + 1)

		entries = seg.EntryCount()
		if entries < types.Capacity {
			entries++
			seg.SetEntryCount(entries)
		} else {
			seg.SetReadIndex(seg.ReadIndex() + 1)
			evicted = true
		}
	})
	if err != nil {
		return err
	}

	metrics.ObservePost(level, truncated, evicted, entries)
	return nil
}

// PostWithCurrentTime posts a record stamped with the current wall-clock time.
func (b *Buffer) PostWithCurrentTime(level types.Level, text string) error {
	return b.Post(types.NowMillis(), level, text)
}

// Read dequeues the oldest retained record. ok is false when the ring is
// empty, which is not an error.
func (b *Buffer) Read() (rec types.Record, ok bool, err error) {
	var entries uint32
	err = b.withLock(func(seg *shm.Segment) {
		w, r := seg.WriteIndex(), seg.ReadIndex()
		// Distance rather than comparison keeps this exact across uint32 wrap.
		if w-r == 0 {
			return
		}
		rec = seg.GetRecord(int(r % types.Capacity))
		seg.SetReadIndex(r + 1)

		entries = seg.EntryCount()
		if entries > 0 {
			entries--
			seg.SetEntryCount(entries)
		}
		ok = true
	})
	if err != nil {
		return types.Record{}, false, err
	}
	if ok {
		metrics.ObserveRead(entries)
	}
	return rec, ok, nil
}

// Count returns the number of retrievable records without taking the lock.
// The value is a best-effort snapshot that may race with concurrent Post and
// Read calls. It is 0 when the buffer is not attached.
func (b *Buffer) Count() int32 {
	if !b.mu.TryRLock() {
		return 0
	}
	defer b.mu.RUnlock()

	if b.seg == nil {
		return 0
	}
	return int32(b.seg.EntryCount())
}

// Clear resets the counters so every retained record becomes unreachable.
// Slot contents stay in place unless ScrubOnClear is set.
func (b *Buffer) Clear() error {
	err := b.withLock(func(seg *shm.Segment) {
		seg.SetWriteIndex(0)
		seg.SetReadIndex(0)
		seg.SetEntryCount(0)
		if b.opts.ScrubOnClear {
			seg.ScrubSlots()
		}
	})
	if err != nil {
		return err
	}
	metrics.ObserveClear()
	return nil
}

// Stats returns the three counters as observed under the lock.
func (b *Buffer) Stats() (Stats, error) {
	var st Stats
	err := b.withLock(func(seg *shm.Segment) {
		st = Stats{
			WriteIndex: seg.WriteIndex(),
			ReadIndex:  seg.ReadIndex(),
			EntryCount: seg.EntryCount(),
		}
	})
	return st, err
}

// Drain reads until the ring is empty or max records were handed to fn.
// A max of zero or less means no limit. An error from fn stops the drain;
// the record that caused it has already been consumed.
func (b *Buffer) Drain(max int, fn func(types.Record) error) (int, error) {
	n := 0
	for max <= 0 || n < max {
		rec, ok, err := b.Read()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
		if err := fn(rec); err != nil {
			return n, err
		}
	}
	return n, nil
}
