package metrics

import "github.com/prometheus/client_golang/prometheus"

// PortalMetrics exposes counters/histograms for the portal's external calls.
type PortalMetrics struct {
	predictionsTotal  *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	uploadsTotal      *prometheus.CounterVec
	chatMessagesTotal *prometheus.CounterVec
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		predictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "scans",
			Name:      "predictions_total",
			Help:      "Total scan submissions to the inference endpoint",
		}, []string{"status"}),
		predictionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "scans",
			Name:      "prediction_latency_seconds",
			Help:      "Latency of inference endpoint calls",
			Buckets:   prometheus.DefBuckets,
		}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "files",
			Name:      "uploads_total",
			Help:      "Total file uploads to object storage",
		}, []string{"status"}),
		chatMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages relayed to the chat endpoint",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.predictionsTotal, m.predictionLatency, m.uploadsTotal, m.chatMessagesTotal)
	return m
}

func (m *PortalMetrics) ObservePrediction(status string, seconds float64) {
	if m == nil {
		return
	}
	m.predictionsTotal.WithLabelValues(status).Inc()
	m.predictionLatency.Observe(seconds)
}

func (m *PortalMetrics) ObserveUpload(status string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(status).Inc()
}

func (m *PortalMetrics) ObserveChatMessage(status string) {
	if m == nil {
		return
	}
	m.chatMessagesTotal.WithLabelValues(status).Inc()
}
