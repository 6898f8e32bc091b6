package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters exported on /metrics.
type Metrics struct {
	AccountsCreated     prometheus.Counter
	LoginFailures       prometheus.Counter
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	PublicVerifications *prometheus.CounterVec
	RequestsCreated     prometheus.Counter
	RequestDecisions    *prometheus.CounterVec
	SharesCreated       prometheus.Counter
	SharesPurged        prometheus.Counter
	NotificationErrors  *prometheus.CounterVec
}

// New registers on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg so tests can use an isolated registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_login_failures_total",
			Help: "Total number of rejected logins",
		}),
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		CertificatesRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		PublicVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credvault_public_verifications_total",
			Help: "Public verification lookups, labeled by outcome",
		}, []string{"outcome"}),
		RequestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_requests_created_total",
			Help: "Total number of certificate requests sent",
		}),
		RequestDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credvault_request_decisions_total",
			Help: "Request decisions, labeled by resulting status",
		}, []string{"status"}),
		SharesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_shares_created_total",
			Help: "Total number of shares created",
		}),
		SharesPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "credvault_shares_purged_total",
			Help: "Expired shares removed by the cleanup worker",
		}),
		NotificationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credvault_notification_errors_total",
			Help: "Notification delivery failures, labeled by channel",
		}, []string{"channel"}),
	}
}

func (m *Metrics) IncrementAccountsCreated() { m.AccountsCreated.Inc() }

func (m *Metrics) IncrementLoginFailures() { m.LoginFailures.Inc() }

func (m *Metrics) IncrementCertificatesIssued() { m.CertificatesIssued.Inc() }

func (m *Metrics) IncrementCertificatesRevoked() { m.CertificatesRevoked.Inc() }

// IncrementPublicVerifications records a verify lookup as "valid", "revoked" or "not_found".
func (m *Metrics) IncrementPublicVerifications(outcome string) {
	m.PublicVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRequestsCreated() { m.RequestsCreated.Inc() }

func (m *Metrics) IncrementRequestDecisions(status string) {
	m.RequestDecisions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementSharesCreated() { m.SharesCreated.Inc() }

func (m *Metrics) AddSharesPurged(n int) { m.SharesPurged.Add(float64(n)) }

func (m *Metrics) IncrementNotificationErrors(channel string) {
	m.NotificationErrors.WithLabelValues(channel).Inc()
}
