package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/downfa11-org/logshm/pkg/archive"
	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/pkg/metrics"
	"github.com/downfa11-org/logshm/util"
)

func main() {
	fs := flag.NewFlagSet("logreader", flag.ExitOnError)
	clearRing := fs.Bool("clear", false, "Clear the shared buffer and exit")
	inspect := fs.Bool("inspect", false, "Print a snapshot of the shared segment and exit")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()

	opts := cfg.RingOptions()
	if *inspect {
		if err := printSnapshot(os.Stdout, opts.SegmentPath()); err != nil {
			util.Fatal("Failed to inspect %s: %v", opts.SegmentPath(), err)
		}
		return
	}

	ring := logring.New(opts)
	if err := ring.Initialize(); err != nil {
		util.Fatal("Failed to attach to shared log buffer: %v", err)
	}
	defer ring.Teardown()

	if *clearRing {
		if err := ring.Clear(); err != nil {
			util.Error("Clear failed: %v", err)
			return
		}
		util.Info("Cleared shared log buffer %s", opts.SegmentPath())
		return
	}

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}

	var sink recordSink
	if cfg.ArchivePath != "" {
		w, err := archive.Create(cfg.ArchivePath)
		if err != nil {
			util.Error("Failed to open archive: %v", err)
			return
		}
		defer func() {
			if err := w.Close(); err != nil {
				util.Error("Failed to close archive: %v", err)
			}
			util.Info("Archived %d records to %s", w.Written(), cfg.ArchivePath)
		}()
		sink = w
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	util.Info("Attached to %s, waiting for log records from other processes", opts.SegmentPath())
	c := newConsumer(ring, os.Stdout, sink, cfg)
	if err := c.run(ctx); err != nil {
		util.Error("Reader stopped: %v", err)
	}
	util.Info("Log reader stopped. Total records read: %d", c.total)
}
