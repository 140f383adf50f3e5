package httpapi

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of the gating middleware.
const (
	outcomeSkipped      = "skipped"
	outcomeUnauthorized = "unauthorized"
	outcomeForbidden    = "forbidden"
	outcomeAllowed      = "allowed"
)

type metrics struct {
	requests  *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_auth_decisions_total",
				Help: "Total number of authentication decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.requests, m.decisions)
	return m
}

func (m *metrics) request(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *metrics) decision(outcome string) {
	m.decisions.WithLabelValues(outcome).Inc()
}
