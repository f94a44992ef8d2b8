package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/downfa11-org/logshm/pkg/archive"
	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/types"
)

type fakeRing struct {
	mu      sync.Mutex
	records []types.Record
	failAt  int
}

func (f *fakeRing) Post(ts int64, level types.Level, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.records)+1 == f.failAt {
		return errors.New("ring unavailable")
	}
	f.records = append(f.records, types.Record{Timestamp: ts, Level: level, Text: text})
	return nil
}

func (f *fakeRing) PostWithCurrentTime(level types.Level, text string) error {
	return f.Post(types.NowMillis(), level, text)
}

func (f *fakeRing) snapshot() []types.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Record(nil), f.records...)
}

func testConfig(workers, count int) *config.Config {
	cfg := config.Default()
	cfg.Workers = workers
	cfg.Count = count
	cfg.IntervalMS = 0
	cfg.BurstPercent = 0
	return cfg
}

func TestSimulatorRunPostsCountPerWorker(t *testing.T) {
	ring := &fakeRing{}
	sim := newSimulator(ring, testConfig(3, 20))

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	recs := ring.snapshot()
	if len(recs) != 60 {
		t.Fatalf("posted %d records; want 60", len(recs))
	}
	if sim.Sent() != 60 {
		t.Fatalf("Sent = %d; want 60", sim.Sent())
	}
	for _, r := range recs {
		if !strings.Contains(r.Text, "session="+sim.session) {
			t.Fatalf("record not tagged with session: %q", r.Text)
		}
		if !r.Level.Valid() {
			t.Fatalf("invalid level %v", r.Level)
		}
	}
}

func TestSimulatorStopsOnCancel(t *testing.T) {
	ring := &fakeRing{}
	cfg := testConfig(2, 0)
	cfg.IntervalMS = 5
	sim := newSimulator(ring, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
	if len(ring.snapshot()) == 0 {
		t.Fatalf("expected some records before cancellation")
	}
}

func TestSimulatorPropagatesPostError(t *testing.T) {
	ring := &fakeRing{failAt: 3}
	sim := newSimulator(ring, testConfig(1, 10))

	if err := sim.Run(context.Background()); err == nil {
		t.Fatalf("expected Run to fail")
	}
	if sim.Sent() != 2 {
		t.Fatalf("Sent = %d; want 2", sim.Sent())
	}
}

func TestSimulatorLifecycleMessages(t *testing.T) {
	ring := &fakeRing{}
	sim := newSimulator(ring, testConfig(1, 0))

	if err := sim.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sim.SendTestSequence(); err != nil {
		t.Fatalf("SendTestSequence failed: %v", err)
	}
	if err := sim.SendBurst(context.Background(), 0, 4, 0); err != nil {
		t.Fatalf("SendBurst failed: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	recs := ring.snapshot()
	if len(recs) != 1+5+4+2 {
		t.Fatalf("posted %d records; want 12", len(recs))
	}
	if !strings.Contains(recs[0].Text, sim.session) {
		t.Errorf("start message should name the session: %q", recs[0].Text)
	}

	seen := make(map[types.Level]bool)
	for _, r := range recs[1:6] {
		seen[r.Level] = true
	}
	for _, lvl := range []types.Level{types.LevelDebug, types.LevelInfo, types.LevelWarning, types.LevelError} {
		if !seen[lvl] {
			t.Errorf("test sequence missing level %v", lvl)
		}
	}
	if recs[len(recs)-1].Text != "Log writer simulation stopped" {
		t.Errorf("unexpected last message %q", recs[len(recs)-1].Text)
	}
}

func TestNextDelayBounds(t *testing.T) {
	cfg := testConfig(1, 1)
	cfg.IntervalMS = 100
	sim := newSimulator(&fakeRing{}, cfg)

	for i := 0; i < 200; i++ {
		d := sim.nextDelay()
		if d < 50*time.Millisecond || d > 100*time.Millisecond {
			t.Fatalf("delay %v out of [50ms, 100ms]", d)
		}
	}

	cfg.IntervalMS = 0
	if d := sim.nextDelay(); d != 0 {
		t.Fatalf("delay with zero interval = %v; want 0", d)
	}
}

func TestReplayArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.zst")
	w, err := archive.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := []types.Record{
		{Timestamp: 1000, Level: types.LevelInfo, Text: "first"},
		{Timestamp: 2000, Level: types.LevelError, Text: "second"},
	}
	for _, r := range want {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ring := &fakeRing{}
	n, err := replayArchive(context.Background(), ring, path)
	if err != nil {
		t.Fatalf("replayArchive failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("replayed %d records; want 2", n)
	}
	got := ring.snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestReadCommands(t *testing.T) {
	ring := &fakeRing{}
	sim := newSimulator(ring, testConfig(1, 0))
	quit := make(chan struct{})

	readCommands(context.Background(), strings.NewReader("t\nbogus\n\nq\nt\n"), sim, func() { close(quit) })

	select {
	case <-quit:
	default:
		t.Fatalf("quit was not called")
	}
	if n := len(ring.snapshot()); n != 5 {
		t.Fatalf("posted %d records; want 5 from one test sequence", n)
	}
}
