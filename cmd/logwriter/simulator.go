package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

type ringWriter interface {
	Post(timestamp int64, level types.Level, text string) error
	PostWithCurrentTime(level types.Level, text string) error
}

type sampleMessage struct {
	level types.Level
	text  string
}

var sampleMessages = []sampleMessage{
	{types.LevelInfo, "System initialization started"},
	{types.LevelInfo, "Loading configuration file"},
	{types.LevelDebug, "Memory allocated: 1024KB"},
	{types.LevelInfo, "Network connection established"},
	{types.LevelDebug, "Processing data packet"},
	{types.LevelWarning, "High CPU usage detected: 85%"},
	{types.LevelInfo, "Data processing completed"},
	{types.LevelDebug, "Cache hit ratio: 92%"},
	{types.LevelWarning, "Memory usage above threshold: 90%"},
	{types.LevelError, "Connection timed out"},
	{types.LevelInfo, "Attempting to reconnect"},
	{types.LevelInfo, "Backup process started"},
	{types.LevelDebug, "Verifying data integrity"},
	{types.LevelWarning, "Low disk space: 15% remaining"},
	{types.LevelError, "Failed to write to disk"},
	{types.LevelInfo, "Recovery procedure started"},
	{types.LevelDebug, "Thread pool size: 8"},
	{types.LevelInfo, "Performance optimizations applied"},
	{types.LevelWarning, "Deprecated API usage detected"},
	{types.LevelInfo, "System health check passed"},
}

const burstGap = 100 * time.Millisecond

// simulator posts sample traffic the way an instrumented application would.
type simulator struct {
	ring    ringWriter
	cfg     *config.Config
	session string

	counter atomic.Int64
	sent    atomic.Int64
}

func newSimulator(ring ringWriter, cfg *config.Config) *simulator {
	return &simulator{
		ring:    ring,
		cfg:     cfg,
		session: uuid.New().String(),
	}
}

func (s *simulator) Sent() int64 { return s.sent.Load() }

func (s *simulator) post(level types.Level, text string) error {
	if err := s.ring.PostWithCurrentTime(level, text); err != nil {
		return fmt.Errorf("post %q: %w", text, err)
	}
	s.sent.Add(1)
	util.Info("[SENT] [%s] %s", level, text)
	return nil
}

func (s *simulator) Start() error {
	return s.post(types.LevelInfo, fmt.Sprintf("Log writer simulation started (session %s)", s.session))
}

func (s *simulator) Stop() error {
	if err := s.post(types.LevelInfo, "Log writer simulation stopping"); err != nil {
		return err
	}
	return s.post(types.LevelInfo, "Log writer simulation stopped")
}

// SendRandom posts one randomly chosen sample, tagged with a sequence number
// and the session.
func (s *simulator) SendRandom(worker int) error {
	m := sampleMessages[rand.IntN(len(sampleMessages))]
	n := s.counter.Add(1)
	return s.post(m.level, fmt.Sprintf("%s (#%d) [session=%s worker=%d]", m.text, n, s.session, worker))
}

// SendBurst posts count random samples gap apart, stopping early if ctx ends.
func (s *simulator) SendBurst(ctx context.Context, worker, count int, gap time.Duration) error {
	util.Debug("Sending burst of %d messages", count)
	for i := 0; i < count; i++ {
		if err := s.SendRandom(worker); err != nil {
			return err
		}
		if i < count-1 && !sleepCtx(ctx, gap) {
			return nil
		}
	}
	return nil
}

// SendTestSequence posts one record of every level.
func (s *simulator) SendTestSequence() error {
	seq := []sampleMessage{
		{types.LevelDebug, "=== Test sequence start ==="},
		{types.LevelInfo, "Testing all log levels"},
		{types.LevelWarning, "This is a warning message"},
		{types.LevelError, "This is an error message"},
		{types.LevelDebug, "=== Test sequence complete ==="},
	}
	for _, m := range seq {
		if err := s.post(m.level, m.text); err != nil {
			return err
		}
	}
	return nil
}

// Run starts cfg.Workers posting loops and waits for them. Each loop posts
// cfg.Count records, or runs until ctx ends when Count is zero.
func (s *simulator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.cfg.Workers; w++ {
		g.Go(func() error {
			return s.worker(ctx, w)
		})
	}
	return g.Wait()
}

func (s *simulator) worker(ctx context.Context, id int) error {
	for i := 0; s.cfg.Count == 0 || i < s.cfg.Count; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.SendRandom(id); err != nil {
			return err
		}

		if s.cfg.BurstPercent > 0 && rand.IntN(100) < s.cfg.BurstPercent {
			if err := s.SendBurst(ctx, id, 3+rand.IntN(6), burstGap); err != nil {
				return err
			}
		}

		if !sleepCtx(ctx, s.nextDelay()) {
			return nil
		}
	}
	return nil
}

// nextDelay picks a delay between half of and the full configured interval.
func (s *simulator) nextDelay() time.Duration {
	if s.cfg.IntervalMS <= 0 {
		return 0
	}
	half := s.cfg.IntervalMS / 2
	return time.Duration(half+rand.IntN(s.cfg.IntervalMS-half+1)) * time.Millisecond
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
