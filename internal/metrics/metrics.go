// Package metrics holds the Prometheus collectors for ingestion, sources,
// merges and scheduled jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ingested items.
const (
	OutcomePersisted = "persisted"
	OutcomeSkipped   = "skipped"
	OutcomeErrored   = "errored"
)

// Source fetch results.
const (
	FetchOK    = "ok"
	FetchEmpty = "empty"
	FetchError = "error"
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_ingest_runs_total",
		Help: "Ingestion runs by league, mode and whether the cache answered",
	}, []string{"league", "mode", "cache"})

	ingestItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_ingest_items_total",
		Help: "Items handled by ingestion runs by outcome",
	}, []string{"league", "outcome"})

	ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livescore_ingest_duration_seconds",
		Help:    "Ingestion run duration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"league", "mode"})

	sourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_source_fetch_total",
		Help: "Source fetch attempts by source and result",
	}, []string{"source", "result"})

	skippedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_source_skipped_items_total",
		Help: "Source listing items dropped during mapping by reason",
	}, []string{"source", "reason"})

	mergeUnanimity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "livescore_merge_unanimity",
		Help: "Fraction of games in the last merge where all sources agreed on status",
	}, []string{"league"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_jobs_total",
		Help: "Scheduled job executions by queue and final status",
	}, []string{"queue", "status"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livescore_job_duration_seconds",
		Help:    "Scheduled job duration including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"queue"})

	broadcastFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livescore_broadcast_failures_total",
		Help: "Broadcast publish failures by event type",
	}, []string{"event_type"})
)

// RecordRun records one ingestion run.
func RecordRun(league, mode string, fromCache bool, persisted, skipped, errored int, d time.Duration) {
	cache := "miss"
	if fromCache {
		cache = "hit"
	}
	ingestRuns.WithLabelValues(league, mode, cache).Inc()
	ingestItems.WithLabelValues(league, OutcomePersisted).Add(float64(persisted))
	ingestItems.WithLabelValues(league, OutcomeSkipped).Add(float64(skipped))
	ingestItems.WithLabelValues(league, OutcomeErrored).Add(float64(errored))
	ingestDuration.WithLabelValues(league, mode).Observe(d.Seconds())
}

// RecordFetch records one source fetch attempt.
func RecordFetch(source, result string) {
	sourceFetches.WithLabelValues(source, result).Inc()
}

// RecordSkipped records items a source listing dropped.
func RecordSkipped(source, reason string, n int) {
	if n > 0 {
		skippedItems.WithLabelValues(source, reason).Add(float64(n))
	}
}

// RecordUnanimity sets the last merge's agreement ratio.
func RecordUnanimity(league string, ratio float64) {
	mergeUnanimity.WithLabelValues(league).Set(ratio)
}

// RecordJob records a finished job.
func RecordJob(queue, status string, d time.Duration) {
	jobsTotal.WithLabelValues(queue, status).Inc()
	jobDuration.WithLabelValues(queue).Observe(d.Seconds())
}

// RecordBroadcastFailure counts a failed publish.
func RecordBroadcastFailure(eventType string) {
	broadcastFailures.WithLabelValues(eventType).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
