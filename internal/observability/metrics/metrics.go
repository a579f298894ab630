package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the dialogue engine.
type ConversationMetrics struct {
	turnsTotal      *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	oracleFallbacks prometheus.Counter
	turnLatency     *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellabot",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed dialogue turns",
		}, []string{"stage", "channel"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bellabot",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"status"}),
		oracleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bellabot",
			Subsystem: "conversation",
			Name:      "oracle_fallbacks_total",
			Help:      "Turns answered with canned text because the oracle failed",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bellabot",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of dialogue turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.oracleFallbacks, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(stage, channel string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(stage, channel).Inc()
}

func (m *ConversationMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveOracleFallback() {
	if m == nil {
		return
	}
	m.oracleFallbacks.Inc()
}

func (m *ConversationMetrics) ObserveTurnLatency(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(stage).Observe(seconds)
}
