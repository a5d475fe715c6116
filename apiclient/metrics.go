package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	RenewalsTotal  *prometheus.CounterVec
	RenewalWaiters prometheus.Counter
}

// NewMetrics creates and registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authclient",
				Name:      "requests_total",
				Help:      "Total number of requests sent through the authenticating transport",
			},
			[]string{"status"}, // status=200/401/.../error
		),
		RenewalsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authclient",
				Name:      "renewals_total",
				Help:      "Total token renewal exchanges",
			},
			[]string{"result"}, // result=success/failure
		),
		RenewalWaiters: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "authclient",
				Name:      "renewal_waiters_total",
				Help:      "Total requests that waited on an in-flight renewal",
			},
		),
	}
}

func (m *Metrics) request(status int, err error) {
	if m == nil {
		return
	}
	label := "error"
	if err == nil {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) renewal(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.RenewalsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) waiter() {
	if m == nil {
		return
	}
	m.RenewalWaiters.Inc()
}
