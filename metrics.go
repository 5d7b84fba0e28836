package authgate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	loginAttempts *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	logouts       prometheus.Counter
	lockouts      prometheus.Counter
	rateLimited   prometheus.Counter
}

// NewMetrics builds and registers the collectors. Pass
// [prometheus.DefaultRegisterer] or a private registry for tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "token_refresh_total",
			Help:      "Refresh rotations by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "logouts_total",
			Help:      "Logout calls.",
		}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "lockouts_total",
			Help:      "Accounts locked by the failure threshold.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "rate_limited_total",
			Help:      "Login attempts rejected by the throttle.",
		}),
	}
	reg.MustRegister(m.loginAttempts, m.refreshes, m.logouts, m.lockouts, m.rateLimited)
	return m
}

func (m *Metrics) loginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) refresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func (m *Metrics) lockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *Metrics) rateLimit() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
