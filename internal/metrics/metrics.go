// Package metrics holds the prometheus counters of the sign-in flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authgate"

// Outcomes of a sign-in attempt.
const (
	OutcomeSuccess = "success"
	OutcomeNewUser = "new_user"
)

// ProviderUnknown labels sign-in attempts for provider ids that are not configured.
const ProviderUnknown = "unknown"

// Results of a session lookup.
const (
	SessionValid   = "valid"
	SessionNone    = "none"
	SessionExpired = "expired"
	SessionFailed  = "error"
)

// Metrics bundles the auth counters.
type Metrics struct {
	SignIns        *prometheus.CounterVec
	SignOuts       prometheus.Counter
	UsersCreated   prometheus.Counter
	AccountsLinked *prometheus.CounterVec
	SessionLookups *prometheus.CounterVec
}

// New creates the counters and registers them at reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signins_total",
			Help:      "Number of sign-in attempts, differentiated by provider and outcome.",
		}, []string{"provider", "outcome"}),
		SignOuts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signouts_total",
			Help:      "Number of sign-outs.",
		}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Number of users created on first sign-in.",
		}),
		AccountsLinked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_linked_total",
			Help:      "Number of provider accounts linked to users.",
		}, []string{"provider"}),
		SessionLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_lookups_total",
			Help:      "Number of session lookups, differentiated by result.",
		}, []string{"result"}),
	}
}

// SignIn counts a sign-in attempt. A failed attempt is counted with its error code as outcome.
func (m *Metrics) SignIn(provider, outcome string) {
	m.SignIns.WithLabelValues(provider, outcome).Inc()
}

// SessionLookup counts a session lookup.
func (m *Metrics) SessionLookup(result string) {
	m.SessionLookups.WithLabelValues(result).Inc()
}
