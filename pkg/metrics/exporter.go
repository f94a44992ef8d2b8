package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/downfa11-org/logshm/pkg/types"
	"github.com/downfa11-org/logshm/util"
)

func init() {
	prometheus.MustRegister(RecordsPosted, RecordsRead, RecordsEvicted, TextTruncated, Clears, BufferEntries, LockWait)
}

func StartMetricsServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		util.Info("[METRICS] Prometheus exporter listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			util.Error("[METRICS] Failed to start metrics server: %v", err)
		}
	}()
}

// ObservePost updates metrics after a record was appended under the lock.
func ObservePost(level types.Level, truncated, evicted bool, entries uint32) {
	RecordsPosted.WithLabelValues(level.String()).Inc()
	if truncated {
		TextTruncated.Inc()
	}
	if evicted {
		RecordsEvicted.Inc()
	}
	BufferEntries.Set(float64(entries))
}

// ObserveRead updates metrics after a record was consumed under the lock.
func ObserveRead(entries uint32) {
	RecordsRead.Inc()
	BufferEntries.Set(float64(entries))
}

// ObserveClear updates metrics after the ring was reset.
func ObserveClear() {
	Clears.Inc()
	BufferEntries.Set(0)
}
