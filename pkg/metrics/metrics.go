package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts guestbook API outcomes.
type Metrics struct {
	Requests *prometheus.CounterVec
	Created  prometheus.Counter
	Deleted  prometheus.Counter
	Denied   prometheus.Counter
}

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guestbook",
			Name:      "requests_total",
			Help:      "Guestbook API requests by method and status.",
		}, []string{"method", "status"}),
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guestbook",
			Name:      "entries_created_total",
			Help:      "Entries written to the row store.",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guestbook",
			Name:      "entries_deleted_total",
			Help:      "Entries removed from the row store.",
		}),
		Denied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guestbook",
			Name:      "delete_denied_total",
			Help:      "Delete requests rejected by the privilege policy.",
		}),
	}
	reg.MustRegister(m.Requests, m.Created, m.Deleted, m.Denied)
	return m
}
