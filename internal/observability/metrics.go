package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors
type Metrics struct {
	Logins           *prometheus.CounterVec
	StoreBusyRetries prometheus.Counter
	Reassignments    prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_logins_total",
			Help: "Login attempts partitioned by result.",
		}, []string{"result"}),
		StoreBusyRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_store_busy_retries_total",
			Help: "Writes retried because the store was busy.",
		}),
		Reassignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_contacts_reassigned_total",
			Help: "Contacts moved to a new owner by bulk reassignment.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "HTTP requests partitioned by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg != nil {
		reg.MustRegister(m.Logins, m.StoreBusyRetries, m.Reassignments, m.HTTPRequests, m.HTTPDuration)
	}
	return m
}
