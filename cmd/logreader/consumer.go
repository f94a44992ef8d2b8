package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/shm"
	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

type ringReader interface {
	Drain(max int, fn func(types.Record) error) (int, error)
	Count() int32
}

type recordSink interface {
	Write(types.Record) error
	Flush() error
}

// consumer drains the ring on every poll, printing each record and
// optionally archiving it.
type consumer struct {
	ring ringReader
	out  io.Writer
	sink recordSink
	cfg  *config.Config

	total      int64
	lastStatus time.Time
	now        func() time.Time
}

func newConsumer(ring ringReader, out io.Writer, sink recordSink, cfg *config.Config) *consumer {
	return &consumer{
		ring:       ring,
		out:        out,
		sink:       sink,
		cfg:        cfg,
		lastStatus: time.Now(),
		now:        time.Now,
	}
}

func (c *consumer) handle(rec types.Record) error {
	if _, err := fmt.Fprintln(c.out, rec.String()); err != nil {
		return err
	}
	c.total++
	if c.sink != nil {
		if err := c.sink.Write(rec); err != nil {
			return fmt.Errorf("archive record: %w", err)
		}
	}
	return nil
}

// poll drains what is available and prints a status line if the ring stayed
// idle for a full status interval.
func (c *consumer) poll() error {
	n, err := c.ring.Drain(c.cfg.MaxBatch, c.handle)
	if err != nil {
		return err
	}

	now := c.now()
	if n > 0 {
		if c.sink != nil {
			if err := c.sink.Flush(); err != nil {
				return fmt.Errorf("flush archive: %w", err)
			}
		}
		return nil
	}
	if now.Sub(c.lastStatus) >= time.Duration(c.cfg.StatusIntervalMS)*time.Millisecond {
		c.printStatus()
		c.lastStatus = now
	}
	return nil
}

func (c *consumer) printStatus() {
	fmt.Fprintf(c.out, "[STATUS] Buffer entries: %d, total read: %d\n", c.ring.Count(), c.total)
}

// run polls until ctx ends or a poll fails.
func (c *consumer) run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(c.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := c.poll(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// printSnapshot dumps the counters and retained records of a segment file
// without attaching to the ring.
func printSnapshot(out io.Writer, path string) error {
	snap, err := shm.ReadSnapshot(path)
	if err != nil {
		return err
	}
	util.Debug("Read snapshot of %s", path)

	fmt.Fprintf(out, "segment:     %s\n", path)
	fmt.Fprintf(out, "write index: %d\n", snap.WriteIndex)
	fmt.Fprintf(out, "read index:  %d\n", snap.ReadIndex)
	fmt.Fprintf(out, "entry count: %d\n", snap.EntryCount)
	fmt.Fprintf(out, "retained:    %d\n", len(snap.Records))
	for _, rec := range snap.Records {
		fmt.Fprintln(out, rec.String())
	}
	return nil
}
