package app

import (
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "outreach"

// Metrics records delivery and segmentation activity on a Prometheus
// registry.
type Metrics struct {
	registry           *prometheus.Registry
	deliveryAttempts   *prometheus.CounterVec
	deliveryDuration   *prometheus.HistogramVec
	campaignsCompleted *prometheus.CounterVec
	outcomesRecorded   *prometheus.CounterVec
	materializeMembers prometheus.Histogram
	materializeLatency prometheus.Histogram
}

var (
	_ campaign.Metrics = (*Metrics)(nil)
	_ segment.Observer = (*Metrics)(nil)
)

// NewMetrics registers the outreach collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "delivery_attempts_total",
			Help:      "Recipient delivery attempts by resulting event.",
		}, []string{"event"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering to one recipient.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
		campaignsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "campaigns_completed_total",
			Help:      "Campaigns reaching a terminal status.",
		}, []string{"status"}),
		outcomesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outcomes_recorded_total",
			Help:      "Externally reported engagement outcomes.",
		}, []string{"event"}),
		materializeMembers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "segment_members",
			Help:      "Members per materialized segment.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		materializeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "segment_materialize_duration_seconds",
			Help:      "Time spent materializing a segment.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.deliveryAttempts,
		m.deliveryDuration,
		m.campaignsCompleted,
		m.outcomesRecorded,
		m.materializeMembers,
		m.materializeLatency,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) DeliveryAttempted(event campaign.Event, elapsed time.Duration) {
	m.deliveryAttempts.WithLabelValues(string(event)).Inc()
	m.deliveryDuration.WithLabelValues(string(event)).Observe(elapsed.Seconds())
}

func (m *Metrics) CampaignCompleted(status campaign.Status) {
	m.campaignsCompleted.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) OutcomeRecorded(event campaign.Event) {
	m.outcomesRecorded.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) ObserveMaterialize(members int, elapsed time.Duration) {
	m.materializeMembers.Observe(float64(members))
	m.materializeLatency.Observe(elapsed.Seconds())
}
