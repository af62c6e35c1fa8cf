package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	exchangesTotal  *prometheus.CounterVec
	matchesTotal    *prometheus.CounterVec
	moderationTotal *prometheus.CounterVec
	feedbackTotal   *prometheus.CounterVec
}

// NewMetrics registers the engine metrics on the given registerer. A nil
// registerer uses the default registry, which /metrics exposes.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		exchangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kurator_exchanges_total",
			Help: "Exchanges run through the curation pipeline, labeled by outcome (saved, or the rejection reason).",
		}, []string{"outcome"}),
		matchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kurator_matches_total",
			Help: "Knowledge lookups, labeled by result (hit or miss).",
		}, []string{"result"}),
		moderationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kurator_moderation_actions_total",
			Help: "Moderation actions performed, labeled by action.",
		}, []string{"action"}),
		feedbackTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kurator_feedback_total",
			Help: "User feedback ratings, labeled by verdict (helpful or not_helpful).",
		}, []string{"verdict"}),
	}
}

// ObserveExchange counts one pipeline run by outcome.
func (m *Metrics) ObserveExchange(result *knowledge.ProcessResult) {
	outcome := "saved"
	if !result.Saved {
		outcome = result.Reason
	}
	m.exchangesTotal.WithLabelValues(outcome).Inc()
}

// ObserveMatch counts one retrieval lookup.
func (m *Metrics) ObserveMatch(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.matchesTotal.WithLabelValues(result).Inc()
}

// ObserveModeration counts one moderation action.
func (m *Metrics) ObserveModeration(action string) {
	m.moderationTotal.WithLabelValues(action).Inc()
}

// ObserveFeedback counts one user rating.
func (m *Metrics) ObserveFeedback(helpful bool) {
	verdict := "not_helpful"
	if helpful {
		verdict = "helpful"
	}
	m.feedbackTotal.WithLabelValues(verdict).Inc()
}
