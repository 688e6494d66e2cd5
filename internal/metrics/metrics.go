// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	VerdictOffensive   = "offensive"
	VerdictClean       = "clean"
	VerdictUnavailable = "unavailable"

	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
	OutcomeFailed   = "failed"
	OutcomePurged   = "purged"

	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

var ReviewsHidden = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_reviews_hidden_total",
	Help: "Reviews hidden by a moderator, the word filter or the classifier",
})

var AutoCheckTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_autocheck_total",
	Help: "Word filter verdicts produced by auto-check",
}, []string{"verdict"})

var AICheckTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_aicheck_total",
	Help: "Classifier verdicts produced by AI check",
}, []string{"verdict"})

var AppealsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_appeals_total",
	Help: "Appeals resolved, by outcome",
}, []string{"outcome"})

var UpgradeRequestsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "upgrade_requests_processed_total",
	Help: "Upgrade requests approved, declined, purged or failed",
}, []string{"outcome"})

var DigestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "digest_runs_total",
	Help: "Scheduled digest runs, by status",
}, []string{"status"})

var EventPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_event_publish_errors_total",
	Help: "Events that could not be delivered to the broker",
}, []string{"type"})

func Handler() http.Handler {
	return promhttp.Handler()
}
