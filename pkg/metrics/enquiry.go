package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EnquiryMetrics tracks the visitor enquiry carts and quote submissions.
type EnquiryMetrics struct {
	persistFailures prometheus.Counter
	mutations       *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	submitDuration  prometheus.Histogram
	sessions        prometheus.Gauge
	subscribers     prometheus.Gauge
}

// NewEnquiryMetrics registers the enquiry metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewEnquiryMetrics(reg prometheus.Registerer) *EnquiryMetrics {
	if reg == nil {
		return &EnquiryMetrics{}
	}
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enquiry_cart_persist_failures_total",
		Help: "Enquiry cart writes that could not be persisted.",
	})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enquiry_cart_mutations_total",
		Help: "Enquiry cart mutations by operation.",
	}, []string{"op"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enquiry_submissions_total",
		Help: "Quote request submissions by outcome.",
	}, []string{"outcome"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "enquiry_submit_duration_seconds",
		Help:    "Time spent in the submission boundary.",
		Buckets: prometheus.DefBuckets,
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "enquiry_sessions_cached",
		Help: "Visitor sessions held in the in-process registry.",
	})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "enquiry_event_subscribers",
		Help: "Open enquiry event streams.",
	})
	reg.MustRegister(persistFailures, mutations, submissions, submitDuration, sessions, subscribers)
	return &EnquiryMetrics{
		persistFailures: persistFailures,
		mutations:       mutations,
		submissions:     submissions,
		submitDuration:  submitDuration,
		sessions:        sessions,
		subscribers:     subscribers,
	}
}

func (m *EnquiryMetrics) IncPersistFailure() {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *EnquiryMetrics) IncMutation(op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveSubmission records the outcome and the boundary latency.
func (m *EnquiryMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
	if duration > 0 {
		m.submitDuration.Observe(duration.Seconds())
	}
}

func (m *EnquiryMetrics) SetSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func (m *EnquiryMetrics) AddSubscribers(delta int) {
	if m == nil || m.subscribers == nil {
		return
	}
	m.subscribers.Add(float64(delta))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
