/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics instruments the identity hub with prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Hub holds the prometheus instruments the identity hub records. Each Hub
// owns its own registry, so independent server instances never collide on
// collector registration.
type Hub struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	failureCount    *prometheus.CounterVec
}

// NewHub returns a Hub with its instruments registered alongside the
// standard Go runtime collectors.
func NewHub() *Hub {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(collectors.NewGoCollector())

	return &Hub{
		registry: registry,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identityhub_requests_total",
			Help: "Total number of identity hub requests, by operation, method and status code.",
		}, []string{"operation", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "identityhub_request_duration_seconds",
			Help:    "Identity hub request duration in seconds, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		failureCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identityhub_failures_total",
			Help: "Total number of classified failures, by category and code.",
		}, []string{"category", "code"}),
	}
}

// ObserveRequest records one served request.
func (h *Hub) ObserveRequest(operation, method string, statusCode int, elapsed time.Duration) {
	h.requestCount.WithLabelValues(operation, method, strconv.Itoa(statusCode)).Inc()
	h.requestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveFailure records err's classification when it carries one.
// Unclassified errors are already visible through the request status code.
func (h *Hub) ObserveFailure(err error) {
	hubErr := huberrors.AsError(err)
	if hubErr == nil {
		return
	}

	h.failureCount.WithLabelValues(string(hubErr.Category), strconv.Itoa(int(hubErr.Code))).Inc()
}

// Handler serves the hub's metrics in the prometheus exposition format.
func (h *Hub) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}
