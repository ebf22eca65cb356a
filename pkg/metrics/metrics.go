// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRunsTotal tracks total pipeline runs by status
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"tenant_id", "status"},
	)

	// PipelineRunDuration tracks pipeline run duration in seconds
	PipelineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"tenant_id"},
	)

	// PipelineStageDuration tracks per-stage duration within a run
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// TransactionsBuilt tracks transaction rows produced per run
	TransactionsBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "transactions_built",
			Help:      "Number of transaction rows produced by the last run",
		},
	)

	// CustomersSegmented tracks customer rows segmented per run
	CustomersSegmented = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "customers_segmented",
			Help:      "Number of customers segmented by the last run",
		},
	)

	// SegmentCustomers tracks the size of each segment after the last run
	SegmentCustomers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "segments",
			Name:      "customers",
			Help:      "Number of customers per segment after the last run",
		},
		[]string{"segment"},
	)

	// ChurnPredictionsTotal tracks churn scoring requests by status
	ChurnPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "churn",
			Name:      "predictions_total",
			Help:      "Total number of churn scoring requests by status",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordPipelineRun records a pipeline run metric
func RecordPipelineRun(tenantID, status string, durationSeconds float64) {
	PipelineRunsTotal.WithLabelValues(tenantID, status).Inc()
	PipelineRunDuration.WithLabelValues(tenantID).Observe(durationSeconds)
}

// RecordStage records the duration of one pipeline stage
func RecordStage(stage string, durationSeconds float64) {
	PipelineStageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordSegmentSizes records the per-segment customer counts of a run
func RecordSegmentSizes(distribution map[string]int) {
	for segment, n := range distribution {
		SegmentCustomers.WithLabelValues(segment).Set(float64(n))
	}
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
