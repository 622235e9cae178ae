// Package metrics holds the Prometheus collectors shared by the HTTP service,
// the reconciler and the background workers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fellowship"

// Reconcile outcomes
const (
	OutcomeCommitted     = "committed"
	OutcomeAlreadyExists = "already_exists"
	OutcomeInProgress    = "in_progress"
	OutcomeIgnored       = "ignored"
	OutcomeNotSuccessful = "not_successful"
	OutcomeProviderError = "provider_error"
	OutcomeError         = "error"
)

// Metrics owns its registry so tests and binaries never share global state
type Metrics struct {
	registry *prometheus.Registry

	reconcileTotal  *prometheus.CounterVec
	verifyDuration  *prometheus.HistogramVec
	guardContention *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	sweeperEnqueued prometheus.Counter
}

// New creates and registers every collector, including Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Reconciliation attempts by ingestion source and outcome.",
		}, []string{"source", "outcome"}),
		verifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_verify_seconds",
			Help:      "Latency of payment provider verification calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		guardContention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_contention_total",
			Help:      "Reconciliations rejected because the reference was already in flight.",
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_total",
			Help:      "Outbox messages relayed to the broker by result.",
		}, []string{"result"}),
		sweeperEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_enqueued_total",
			Help:      "Stale pending verifications re-enqueued by the sweeper.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reconcileTotal,
		m.verifyDuration,
		m.guardContention,
		m.httpRequests,
		m.outboxPublished,
		m.sweeperEnqueued,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveReconcile(source, outcome string) {
	m.reconcileTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveProviderVerify(outcome string, elapsed time.Duration) {
	m.verifyDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveGuardContention(source string) {
	m.guardContention.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveOutboxPublish(result string) {
	m.outboxPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSweeperEnqueued(n int) {
	m.sweeperEnqueued.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware counts requests by matched route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
