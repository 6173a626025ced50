// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/devineonline/smsbroadcast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Message outcomes recorded by CountResults and CountFailure.
const (
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics owns a private registry so several relays can run in one process.
// A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	messages        *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsb_http_requests_total",
				Help: "Total number of relay HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smsb_http_request_duration_seconds",
				Help:    "Duration of relay HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsb_messages_total",
				Help: "Messages submitted to the gateway by outcome",
			},
			[]string{"outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smsb_gateway_request_duration_seconds",
				Help:    "Time taken by gateway calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.messages,
		m.gatewayDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveGateway records the duration of one gateway call ("send" or "balance").
func (m *Metrics) ObserveGateway(action string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(action).Observe(d.Seconds())
}

// CountResults adds one sent or rejected message per result.
func (m *Metrics) CountResults(results ...smsbroadcast.SendResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		if r.Success {
			m.messages.WithLabelValues(OutcomeSent).Inc()
		} else {
			m.messages.WithLabelValues(OutcomeRejected).Inc()
		}
	}
}

// CountFailure records n messages that never reached a recipient line, for
// example because the account was rejected or the gateway was unreachable.
func (m *Metrics) CountFailure(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.messages.WithLabelValues(OutcomeFailed).Add(float64(n))
}
