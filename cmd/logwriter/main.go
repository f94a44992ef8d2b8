package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/pkg/metrics"
	"github.com/downfa11-org/logshm/util"
)

func main() {
	fs := flag.NewFlagSet("logwriter", flag.ExitOnError)
	replayPath := fs.String("replay", "", "Re-post the records of this archive and exit")
	interactive := fs.Bool("interactive", false, "Read commands (b, t, q) from stdin")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()

	ring := logring.New(cfg.RingOptions())
	if err := ring.Initialize(); err != nil {
		util.Fatal("Failed to attach to shared log buffer: %v", err)
	}
	defer ring.Teardown()
	util.Info("Attached to shared log buffer %s", ring.Options().SegmentPath())

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayPath != "" {
		n, err := replayArchive(ctx, ring, *replayPath)
		if err != nil {
			util.Error("Replay stopped after %d records: %v", n, err)
			return
		}
		util.Info("Replayed %d records from %s", n, *replayPath)
		return
	}

	sim := newSimulator(ring, cfg)
	if err := sim.Start(); err != nil {
		util.Error("%v", err)
		return
	}
	if cfg.TestSequence {
		if err := sim.SendTestSequence(); err != nil {
			util.Error("%v", err)
		}
	}
	if *interactive {
		go readCommands(ctx, os.Stdin, sim, stop)
	}

	if err := sim.Run(ctx); err != nil {
		util.Error("Simulation failed: %v", err)
	}
	if err := sim.Stop(); err != nil {
		util.Error("%v", err)
	}
	util.Info("Simulation stopped. Total messages sent: %d", sim.Sent())
}

// readCommands handles the interactive commands until quit or EOF.
func readCommands(ctx context.Context, in io.Reader, sim *simulator, quit func()) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		var err error
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "q", "quit":
			quit()
			return
		case "b", "burst":
			err = sim.SendBurst(ctx, -1, 5, burstGap/2)
		case "t", "test":
			err = sim.SendTestSequence()
		case "h", "help":
			fmt.Println("Commands:\n  q, quit  - exit\n  b, burst - send a burst of messages\n  t, test  - send the test sequence\n  h, help  - show this help")
		case "":
		default:
			fmt.Println("Unknown command. Type 'help' for the list of commands.")
		}
		if err != nil {
			util.Error("%v", err)
		}
	}
}
