// Package metrics exposes Prometheus collectors for the HTTP surface and the catalog store.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Store operation outcomes.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	authDecisions *prometheus.CounterVec
}

// New registers the collectors with reg. Passing a fresh prometheus.NewRegistry keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time taken to serve HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		storeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of catalog store calls by operation and result",
			},
			[]string{"op", "result"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Time taken by catalog store calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		authDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_decisions_total",
				Help:      "Total number of authorization decisions by resource class and outcome",
			},
			[]string{"class", "outcome"},
		),
	}
}

// ObserveStoreOp records one store call. Not-found results are counted apart from faults.
func (m *Metrics) ObserveStoreOp(op string, elapsed time.Duration, err error) {
	m.storeOps.WithLabelValues(op, result(err)).Inc()
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveAuthDecision records the outcome of an authorization check.
func (m *Metrics) ObserveAuthDecision(class string, allowed bool, err error) {
	outcome := "denied"
	switch {
	case err != nil:
		outcome = ResultError
	case allowed:
		outcome = "allowed"
	}
	m.authDecisions.WithLabelValues(class, outcome).Inc()
}

// Middleware counts requests per matched chi route pattern so that ids do not blow up cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registered collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, perrors.ErrProductNotFound), errors.Is(err, perrors.ErrProductOptionNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}
