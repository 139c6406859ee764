package indexing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Embedding pipeline metrics
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexing_tasks_processed_total",
		Help: "Total number of embedding tasks processed by the worker",
	}, []string{"outcome"})

	TriggerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexing_trigger_transitions_total",
		Help: "Total number of task transitions performed by bulk triggers",
	}, []string{"trigger"})

	ChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexing_chunks_embedded_total",
		Help: "Total number of document chunks embedded",
	})

	EmbedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "indexing_embed_duration_seconds",
		Help:    "Duration of the batched embedding call per document",
		Buckets: prometheus.DefBuckets,
	})
)
