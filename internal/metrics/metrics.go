// Package metrics holds Prometheus instruments that are used across the
// framework.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peneus_dispatch_total",
			Help: "API dispatches by handler, action, and response status.",
		}, []string{"handler", "action", "status"})

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peneus_dispatch_duration_seconds",
			Help:    "Time spent dispatching one API request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"})

	DispatchPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peneus_dispatch_panics_total",
			Help: "Dispatches that ended in a recovered panic.",
		})

	EntityFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peneus_entity_failures_total",
			Help: "Entity persistence statements that failed, by table and operation.",
		}, []string{"table", "op"})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peneus_http_requests_total",
			Help: "HTTP requests by method and status.",
		}, []string{"method", "status"})
)

func init() {
	prometheus.MustRegister(
		DispatchTotal,
		DispatchDuration,
		DispatchPanicsTotal,
		EntityFailuresTotal,
		HTTPRequestsTotal,
	)
}
