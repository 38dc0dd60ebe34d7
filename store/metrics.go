package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobang",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Repository operations by name and outcome.",
	}, []string{"op", "outcome"})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobang",
		Subsystem: "store",
		Name:      "retries_total",
		Help:      "Transactions rerun after a lost compare-and-swap or a transient database error.",
	}, []string{"op"})

	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gobang",
		Subsystem: "store",
		Name:      "operation_seconds",
		Help:      "Repository operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

// observe records one finished operation. Use it deferred with a pointer to
// the named error result.
func (s *Store) observe(op string, start time.Time, err *error) {
	storeLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	o := outcome(*err)
	storeOps.WithLabelValues(op, o).Inc()
	if o == "error" {
		s.log.Errorw("store operation failed", "op", op, "error", *err)
	}
}
