//go:build unix

package shm

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLockExcludesOtherHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logshm.lock")

	a, err := OpenLock(path)
	if err != nil {
		t.Fatalf("OpenLock: %v", err)
	}
	defer a.Close()
	b, err := OpenLock(path)
	if err != nil {
		t.Fatalf("second OpenLock: %v", err)
	}
	defer b.Close()

	if err := a.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ok, err := b.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if ok {
		t.Fatalf("second handle acquired a held lock")
	}

	acquired := make(chan struct{})
	go func() {
		if err := b.Lock(); err != nil {
			t.Errorf("blocked Lock: %v", err)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second handle acquired the lock before release")
	case <-time.After(50 * time.Millisecond):
	}

	if err := a.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatalf("second handle never acquired the lock")
	}
	if err := b.Unlock(); err != nil {
		t.Fatalf("Unlock second: %v", err)
	}
}

func TestLockSerializesGoroutines(t *testing.T) {
	l, err := OpenLock(filepath.Join(t.TempDir(), "logshm.lock"))
	if err != nil {
		t.Fatalf("OpenLock: %v", err)
	}
	defer l.Close()

	var (
		wg      sync.WaitGroup
		inside  int
		counter int
		mu      sync.Mutex
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := l.Lock(); err != nil {
					t.Errorf("Lock: %v", err)
					return
				}
				mu.Lock()
				inside++
				if inside != 1 {
					t.Errorf("%d goroutines inside the critical section", inside)
				}
				mu.Unlock()

				counter++

				mu.Lock()
				inside--
				mu.Unlock()
				if err := l.Unlock(); err != nil {
					t.Errorf("Unlock: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != 800 {
		t.Fatalf("counter = %d; want 800", counter)
	}
}

func TestControlWordShared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logshm.lock")
	a, err := OpenLock(path)
	if err != nil {
		t.Fatalf("OpenLock: %v", err)
	}
	defer a.Close()

	if a.InitState() != InitNone {
		t.Fatalf("fresh lock state = %d; want InitNone", a.InitState())
	}
	if !a.CompareAndSwapInitState(InitNone, InitZeroing) {
		t.Fatalf("CAS from InitNone failed")
	}
	a.SetInitState(InitReady)

	b, err := OpenLock(path)
	if err != nil {
		t.Fatalf("second OpenLock: %v", err)
	}
	defer b.Close()

	if b.InitState() != InitReady {
		t.Fatalf("second handle sees state %d; want InitReady", b.InitState())
	}
	if b.CompareAndSwapInitState(InitNone, InitZeroing) {
		t.Fatalf("CAS succeeded against a stale expected value")
	}
}
