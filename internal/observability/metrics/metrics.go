// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insurance_voice_agent"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	SessionsActive  prometheus.Gauge
	TurnsTotal      prometheus.Counter

	// STT metrics
	STTRequests  *prometheus.CounterVec
	STTLatency   *prometheus.HistogramVec
	STTFallbacks prometheus.Counter

	// TTS metrics
	TTSRequests    *prometheus.CounterVec
	TTSLatency     *prometheus.HistogramVec
	TTSFallbacks   prometheus.Counter
	TTSPrerecorded prometheus.Counter

	// RAG metrics
	RAGQueries      prometheus.Counter
	RAGEmptyResults prometheus.Counter
	RAGLatency      prometheus.Histogram

	// LLM metrics
	LLMRequests *prometheus.CounterVec
	LLMLatency  prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"path"}),

		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of call sessions started",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of call sessions ended",
		}, []string{"reason"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active call sessions",
		}),
		TurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversation turns processed",
		}),

		STTRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_requests_total",
			Help:      "Total number of speech-to-text requests",
		}, []string{"service", "status"}),
		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"service"}),
		STTFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_fallbacks_total",
			Help:      "Total number of STT fallback activations",
		}),

		TTSRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_requests_total",
			Help:      "Total number of text-to-speech requests",
		}, []string{"service", "status"}),
		TTSLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tts_latency_seconds",
			Help:      "Text-to-speech latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"service"}),
		TTSFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_fallbacks_total",
			Help:      "Total number of TTS fallback activations",
		}),
		TTSPrerecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_prerecorded_hits_total",
			Help:      "Total number of prerecorded phrase cache hits",
		}),

		RAGQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rag_queries_total",
			Help:      "Total number of semantic search queries",
		}),
		RAGEmptyResults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rag_empty_results_total",
			Help:      "Total number of semantic searches with no hits",
		}),
		RAGLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rag_latency_seconds",
			Help:      "Semantic search latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		LLMRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM completion requests",
		}, []string{"status"}),
		LLMLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordKafkaPublish records the outcome of a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, seconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(seconds)
}

// RecordSTT records one STT attempt.
func (m *Metrics) RecordSTT(service string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.STTRequests.WithLabelValues(service, status).Inc()
	m.STTLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

// RecordTTS records one TTS attempt.
func (m *Metrics) RecordTTS(service string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.TTSRequests.WithLabelValues(service, status).Inc()
	m.TTSLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}
