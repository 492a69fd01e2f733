// Package metrics defines the Prometheus metrics of the session lifecycle.
// It is the single place where metric names, labels and help strings live.
//
// A nil *Recorder is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "posdash"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
	OutcomeStale   = "stale"
)

// Recorder records session lifecycle metrics.
type Recorder struct {
	loginAttempts  *prometheus.CounterVec
	loginDuration  *prometheus.HistogramVec
	autoLogins     *prometheus.CounterVec
	authFailures   *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
}

// New registers the metrics with reg. Use prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)

	return &Recorder{
		// Labels:
		//   - strategy: password, device, token, otp, anonymous
		//   - outcome: success or the error kind
		loginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of backend login calls by strategy and outcome.",
		}, []string{"strategy", "outcome"}),

		loginDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Duration of a login including the profile fetch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),

		autoLogins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_login_total",
			Help:      "Total number of silent re-authentication attempts by outcome.",
		}, []string{"outcome"}),

		authFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of backend responses that invalidated the session.",
		}, []string{"status"}),

		guardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Total number of navigation guard decisions by final state.",
		}, []string{"state"}),
	}
}

// LoginAttempt records one backend login call.
func (r *Recorder) LoginAttempt(strategy, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.loginAttempts.WithLabelValues(strategy, outcome).Inc()
	r.loginDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (r *Recorder) AutoLogin(outcome string) {
	if r == nil {
		return
	}
	r.autoLogins.WithLabelValues(outcome).Inc()
}

func (r *Recorder) AuthFailure(status int) {
	if r == nil {
		return
	}
	r.authFailures.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (r *Recorder) GuardDecision(state string) {
	if r == nil {
		return
	}
	r.guardDecisions.WithLabelValues(state).Inc()
}
