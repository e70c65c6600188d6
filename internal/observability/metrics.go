package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec
	WSWriteErrors     *prometheus.CounterVec
	OutboundQueue     *prometheus.CounterVec
	WakeWordHits      prometheus.Counter
	IntentsParsed     *prometheus.CounterVec
	BargeIns          prometheus.Counter
	CaptureRestarts   prometheus.Counter
	ProviderErrors    *prometheus.CounterVec
	CommandLatency    prometheus.Histogram
	commandStageStats *commandStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active voice sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		WSWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_write_errors_total",
			Help:      "WebSocket write failures by kind.",
		}, []string{"kind"}),
		OutboundQueue: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_queue_total",
			Help:      "Outbound message queue outcomes by type and result.",
		}, []string{"type", "result"}),
		WakeWordHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wake_word_hits_total",
			Help:      "Wake word detections.",
		}),
		IntentsParsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_parsed_total",
			Help:      "Parsed intents by action tag.",
		}, []string{"action"}),
		BargeIns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barge_ins_total",
			Help:      "Synthesized speech interruptions by new user input.",
		}),
		CaptureRestarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_restarts_total",
			Help:      "Automatic capture restarts after recoverable errors.",
		}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_ms",
			Help:      "Latency from command transcript to dispatched action in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		commandStageStats: newCommandStageWindow(256),
	}
}

func (m *Metrics) ObserveCommandLatency(d time.Duration) {
	m.CommandLatency.Observe(float64(d.Milliseconds()))
}

// ObserveCommandStage records a pipeline stage duration in the rolling
// percentile window surfaced by the perf endpoint.
func (m *Metrics) ObserveCommandStage(stage string, d time.Duration) {
	if m == nil || m.commandStageStats == nil {
		return
	}
	m.commandStageStats.Observe(stage, float64(d.Milliseconds()))
}

// ObserveCommandIndicator counts a discrete pipeline indicator (e.g. which
// exit closed a command window).
func (m *Metrics) ObserveCommandIndicator(name string) {
	if m == nil || m.commandStageStats == nil {
		return
	}
	m.commandStageStats.ObserveIndicator(name)
}

// CommandStageSnapshot returns rolling latency stats for the perf endpoint.
func (m *Metrics) CommandStageSnapshot() CommandStageSnapshot {
	if m == nil || m.commandStageStats == nil {
		return CommandStageSnapshot{}
	}
	return m.commandStageStats.Snapshot()
}

// ObserveOutboundMessage counts the fate of an outbound queue attempt.
func (m *Metrics) ObserveOutboundMessage(messageType, result string) {
	if m == nil {
		return
	}
	m.OutboundQueue.WithLabelValues(messageType, result).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
