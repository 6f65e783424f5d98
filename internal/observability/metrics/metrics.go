package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the qualification
// dialogue. All methods are nil-safe so callers can run without metrics.
type ConversationMetrics struct {
	turnsTotal      *prometheus.CounterVec
	qualifiedTotal  *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	turnDuration    *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
	sessionDuration prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"phase", "status"}),
		qualifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "dialogue",
			Name:      "qualified_total",
			Help:      "Total conversations reaching the qualified phase",
		}, []string{"degraded"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "dialogue",
			Name:      "field_retries_total",
			Help:      "Total extraction retries charged per field",
		}, []string{"field"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicelead",
			Subsystem: "dialogue",
			Name:      "turn_duration_seconds",
			Help:      "Latency of a single turn through the dialogue machine",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicelead",
			Subsystem: "session",
			Name:      "active_total",
			Help:      "Sessions currently mid-conversation",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voicelead",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall time from session start to completion",
			Buckets:   []float64{15, 30, 60, 120, 300, 600, 1200},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal, m.qualifiedTotal, m.retriesTotal,
		m.turnDuration, m.activeSessions, m.sessionDuration,
	)
	return m
}

func (m *ConversationMetrics) ObserveTurn(phase, status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase, status).Inc()
	m.turnDuration.WithLabelValues(phase).Observe(seconds)
}

func (m *ConversationMetrics) ObserveQualified(degraded bool) {
	if m == nil {
		return
	}
	label := "false"
	if degraded {
		label = "true"
	}
	m.qualifiedTotal.WithLabelValues(label).Inc()
}

func (m *ConversationMetrics) ObserveRetry(field string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(field).Inc()
}

func (m *ConversationMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *ConversationMetrics) SessionEnded(seconds float64) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.sessionDuration.Observe(seconds)
}
