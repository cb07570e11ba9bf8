package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConversationsStarted counts StartConversation calls.
	// Labels: result (success, error)
	ConversationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "conversation",
			Name:      "started_total",
			Help:      "Total number of conversation start attempts",
		},
		[]string{"result"},
	)

	// MessagesProcessed counts ProcessMessage calls.
	// Labels: result (success, not_found, invalid_response, error)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "conversation",
			Name:      "messages_processed_total",
			Help:      "Total number of processed user messages",
		},
		[]string{"result"},
	)

	// AnalysisFallbacks counts analyses replaced by the default analysis.
	AnalysisFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "conversation",
			Name:      "analysis_fallbacks_total",
			Help:      "Total number of unusable analysis replies replaced by the default analysis",
		},
	)

	// FieldsCompleted counts fields newly marked completed.
	FieldsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "conversation",
			Name:      "fields_completed_total",
			Help:      "Total number of documentation fields marked completed",
		},
	)

	// ResponseConfidence tracks the confidence reported on assistant turns.
	ResponseConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docent",
			Subsystem: "conversation",
			Name:      "response_confidence",
			Help:      "Confidence attached to assistant replies",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)
