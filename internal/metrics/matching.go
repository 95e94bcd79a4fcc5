package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching pipeline Prometheus metrics.
var (
	MatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reclaim",
			Name:      "match_runs_total",
			Help:      "Total matching runs by mode",
		},
		[]string{"mode"}, // "display" / "notify"
	)

	MatchCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reclaim",
			Name:      "match_candidates_total",
			Help:      "Candidate pairs seen per matching run outcome",
		},
		[]string{"outcome"}, // "scored" / "skipped_no_image" / "dim_mismatch"
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reclaim",
			Name:      "notifications_total",
			Help:      "Match alert sends by result",
		},
		[]string{"status"}, // "sent" / "failed" / "unresolved_owner"
	)

	AuditItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reclaim",
			Name:      "audit_items_total",
			Help:      "Consistency audit outcomes per item",
		},
		[]string{"outcome"}, // "ok" / "repaired" / "failed"
	)

	FollowUpsScheduledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reclaim",
			Name:      "followups_scheduled_total",
			Help:      "Deferred follow-up checks scheduled",
		},
	)
)

var matchMetricsRegistered bool

// RegisterMatchingMetrics registers Prometheus matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRunsTotal)
	prometheus.MustRegister(MatchCandidatesTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(AuditItemsTotal)
	prometheus.MustRegister(FollowUpsScheduledTotal)
	matchMetricsRegistered = true
}
