// Package bench measures end-to-end throughput of the shared ring with
// several producer handles and one draining consumer.
package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/downfa11-org/logshm/pkg/logring"
	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

type BenchmarkRunner struct {
	Options             logring.Options
	NumProducers        int
	MessagesPerProducer int
	MessageSize         int
}

type Result struct {
	Producers int
	Posted    int64
	Read      int64
	Duration  time.Duration
}

// Dropped is the number of records evicted before the consumer got to them.
func (r Result) Dropped() int64 { return r.Posted - r.Read }

func (r Result) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Posted) / r.Duration.Seconds()
}

func NewBenchmarkRunner(opts logring.Options, producers, messages, size int) *BenchmarkRunner {
	return &BenchmarkRunner{
		Options:             opts,
		NumProducers:        producers,
		MessagesPerProducer: messages,
		MessageSize:         size,
	}
}

// Run attaches one handle per producer plus one for the consumer, posts
// every message and drains until the producers are done and the ring is
// empty.
func (b *BenchmarkRunner) Run(ctx context.Context) (Result, error) {
	consumer := logring.New(b.Options)
	if err := consumer.Initialize(); err != nil {
		return Result{}, err
	}
	defer consumer.Teardown()

	if err := consumer.Clear(); err != nil {
		return Result{}, err
	}

	var posted, read atomic.Int64
	var producing atomic.Bool
	producing.Store(true)

	drainErr := make(chan error, 1)
	go func() {
		for {
			stillProducing := producing.Load()
			n, err := consumer.Drain(0, func(types.Record) error {
				read.Add(1)
				return nil
			})
			if err != nil {
				drainErr <- err
				return
			}
			if n == 0 {
				if !stillProducing {
					drainErr <- nil
					return
				}
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()

	payload := strings.Repeat("x", b.MessageSize)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for p := 0; p < b.NumProducers; p++ {
		g.Go(func() error {
			producer := logring.New(b.Options)
			if err := producer.Initialize(); err != nil {
				return fmt.Errorf("producer %d: %w", p, err)
			}
			defer producer.Teardown()

			for i := 0; i < b.MessagesPerProducer; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := producer.PostWithCurrentTime(types.Level(i%4), payload); err != nil {
					return fmt.Errorf("producer %d: %w", p, err)
				}
				posted.Add(1)
			}
			return nil
		})
	}
	prodErr := g.Wait()
	producing.Store(false)
	consErr := <-drainErr

	res := Result{
		Producers: b.NumProducers,
		Posted:    posted.Load(),
		Read:      read.Load(),
		Duration:  time.Since(start),
	}
	if prodErr != nil {
		return res, prodErr
	}
	if consErr != nil {
		return res, consErr
	}
	util.Debug("bench finished: posted=%d read=%d", res.Posted, res.Read)
	return res, nil
}

func (r Result) Print(w io.Writer) {
	fmt.Fprintf(w, "\nBENCHMARK RESULT [shared ring]\n")
	fmt.Fprintf(w, "-------------------------------------\n")
	fmt.Fprintf(w, " Producers     : %d\n", r.Producers)
	fmt.Fprintf(w, " Posted        : %d\n", r.Posted)
	fmt.Fprintf(w, " Read          : %d\n", r.Read)
	fmt.Fprintf(w, " Dropped       : %d\n", r.Dropped())
	fmt.Fprintf(w, " Duration      : %v\n", r.Duration)
	fmt.Fprintf(w, " Throughput    : %.2f msg/sec\n", r.Throughput())
	fmt.Fprintf(w, "-------------------------------------\n")
}
