package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecordsPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logshm_records_posted_total",
			Help: "Total number of records appended to the shared ring by this process",
		},
		[]string{"level"},
	)

	RecordsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logshm_records_read_total",
		Help: "Total number of records consumed from the shared ring by this process",
	})

	RecordsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logshm_records_evicted_total",
		Help: "Total number of unread records overwritten because the ring was full",
	})

	TextTruncated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logshm_text_truncated_total",
		Help: "Total number of posted records whose text was shortened to fit",
	})

	Clears = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logshm_clears_total",
		Help: "Total number of destructive ring resets issued by this process",
	})

	BufferEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logshm_buffer_entries",
		Help: "Retrievable records in the ring as last observed under the lock",
	})

	LockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logshm_lock_wait_seconds",
		Help:    "Time spent waiting for the cross-process lock",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
