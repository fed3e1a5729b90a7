// Package metrics holds the Prometheus counters exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "footy"

// Metrics is safe to use as a nil pointer; every method becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	mailsSent       prometheus.Counter
	mailsFailed     prometheus.Counter
	invitations     prometheus.Counter
	recordsFailures prometheus.Counter
	outcomeWrites   *prometheus.CounterVec
}

// New builds a private registry with the process and Go collectors and the
// application counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		mailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_sent_total",
			Help:      "Messages accepted by the mail server.",
		}),
		mailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_failed_total",
			Help:      "Messages the mail server refused or never received.",
		}),
		invitations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_dispatched_total",
			Help:      "Game invitations handed to the mailer.",
		}),
		recordsFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_recompute_failures_total",
			Help:      "Standings recomputes that failed after a committed write.",
		}),
		outcomeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcome_writes_total",
			Help:      "Outcome upserts by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.mailsSent, m.mailsFailed, m.invitations, m.recordsFailures, m.outcomeWrites)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) MailSent() {
	if m != nil {
		m.mailsSent.Inc()
	}
}

func (m *Metrics) MailFailed() {
	if m != nil {
		m.mailsFailed.Inc()
	}
}

func (m *Metrics) InvitationsDispatched(n int) {
	if m != nil {
		m.invitations.Add(float64(n))
	}
}

func (m *Metrics) RecordsFailed() {
	if m != nil {
		m.recordsFailures.Inc()
	}
}

// OutcomeWritten counts an outcome upsert; source is token, admin, drinkers or result.
func (m *Metrics) OutcomeWritten(source string) {
	if m != nil {
		m.outcomeWrites.WithLabelValues(source).Inc()
	}
}
