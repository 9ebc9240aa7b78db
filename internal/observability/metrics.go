// Package observability holds the Prometheus collectors shared by the sync, report and API binaries.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	reconciledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "reconcile",
		Name:      "records_total",
		Help:      "Records reconciled into the store, labeled by entity and outcome.",
	}, []string{"entity", "outcome"})

	batchFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "reconcile",
		Name:      "batch_failures_total",
		Help:      "Reconcile batches rolled back, labeled by failure kind.",
	}, []string{"kind"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wellness",
		Subsystem: "reconcile",
		Name:      "batch_duration_seconds",
		Help:      "Time spent reconciling and committing one batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	reclassifyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "reclassify",
		Name:      "attempts_total",
		Help:      "Remote activity reclassifications, labeled by result.",
	}, []string{"result"})

	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellness",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed sync batch.",
	})
)

func init() {
	prometheus.MustRegister(reconciledCounter, batchFailureCounter, batchDuration, reclassifyCounter, lastSyncGauge)
}

// RecordReconciled counts one reconcile decision.
func RecordReconciled(entity, outcome string) {
	reconciledCounter.WithLabelValues(entity, outcome).Inc()
}

// RecordBatchFailure counts a rolled back batch.
func RecordBatchFailure(kind string) {
	batchFailureCounter.WithLabelValues(kind).Inc()
}

// ObserveBatch records the duration of a committed batch and moves the sync watermark.
func ObserveBatch(started time.Time) {
	batchDuration.Observe(time.Since(started).Seconds())
	lastSyncGauge.Set(float64(time.Now().Unix()))
}

// RecordReclassification counts one reclassification attempt result (applied, timeout, failed).
func RecordReclassification(result string) {
	reclassifyCounter.WithLabelValues(result).Inc()
}

// Push sends the default registry to a Pushgateway. One-shot binaries call it before exiting;
// an empty url disables pushing.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push()
}
