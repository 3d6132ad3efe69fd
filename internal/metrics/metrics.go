package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebsocketConnections tracks currently connected voice clients
	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voyago_websocket_connections",
		Help: "Number of active websocket connections",
	})

	// UtterancesTotal counts voice utterances by final status
	UtterancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_utterances_total",
		Help: "Total number of voice utterances processed",
	}, []string{"status"})

	// TranscriptionDuration observes remote transcription latency
	TranscriptionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voyago_transcription_duration_seconds",
		Help:    "Time spent waiting for the remote transcription service",
		Buckets: prometheus.DefBuckets,
	})

	// TranscriptionErrors counts remote transcription failures by code
	TranscriptionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_transcription_errors_total",
		Help: "Total number of transcription failures",
	}, []string{"code"})

	// IntentFieldsExtracted counts which trip intent fields regex
	// extraction managed to fill
	IntentFieldsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyago_intent_fields_extracted_total",
		Help: "Total number of trip intent fields extracted from transcripts",
	}, []string{"field"})

	// AudioBytesReceived counts raw audio bytes received over websocket
	AudioBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyago_audio_bytes_received_total",
		Help: "Total raw audio bytes received from clients",
	})
)

// ObserveIntentFields increments the per-field extraction counters for
// every field present on the extracted intent.
func ObserveIntentFields(destination bool, budget bool, travelers bool, dates bool) {
	if destination {
		IntentFieldsExtracted.WithLabelValues("destination").Inc()
	}
	if budget {
		IntentFieldsExtracted.WithLabelValues("budget").Inc()
	}
	if travelers {
		IntentFieldsExtracted.WithLabelValues("travelers").Inc()
	}
	if dates {
		IntentFieldsExtracted.WithLabelValues("dates").Inc()
	}
}
