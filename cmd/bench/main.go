package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/downfa11-org/logshm/pkg/bench"
	"github.com/downfa11-org/logshm/pkg/config"
	"github.com/downfa11-org/logshm/util"
)

func main() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	producers := fs.Int("producers", 4, "number of producer handles")
	messages := fs.Int("messages", 10000, "messages per producer")
	size := fs.Int("size", 128, "message size in bytes")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()

	// The runner clears the ring first; point -name at a dedicated segment.
	runner := bench.NewBenchmarkRunner(cfg.RingOptions(), *producers, *messages, *size)
	res, err := runner.Run(context.Background())
	if err != nil {
		util.Error("Benchmark failed: %v", err)
	}
	res.Print(os.Stdout)
}
