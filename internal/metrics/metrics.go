// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

// Package metrics provides Prometheus instrumentation for Huddle:
//   - realtime session and presence gauges
//   - realtime event throughput by event name and outcome
//   - store operation latency
//   - HTTP request latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Realtime metrics

	WebSocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_websocket_sessions",
			Help: "Current number of live websocket sessions",
		},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_online_users",
			Help: "Current number of users with at least one live session",
		},
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_realtime_events_total",
			Help: "Total realtime events processed by the dispatcher",
		},
		[]string{"event", "status"}, // status: ok, invalid, dropped, rate_limited
	)

	RealtimeEmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_realtime_emissions_total",
			Help: "Total outbound envelopes enqueued to sessions",
		},
		[]string{"event"},
	)

	AuthGateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_auth_gate_rejections_total",
			Help: "Websocket connection attempts rejected before a session was created",
		},
		[]string{"reason"}, // missing_credential, invalid_credential, unknown_user
	)

	// Store metrics

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huddle_store_op_duration_seconds",
			Help:    "Duration of BadgerDB store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_store_op_errors_total",
			Help: "Total BadgerDB store operation errors",
		},
		[]string{"store", "operation"},
	)

	// HTTP metrics

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huddle_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// ObserveStoreOp records one store operation's duration and, when err is
// non-nil, its failure.
func ObserveStoreOp(store, operation string, start time.Time, err error) {
	StoreOpDuration.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(store, operation).Inc()
	}
}

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path string, status int, start time.Time) {
	HTTPRequestDuration.
		WithLabelValues(method, path, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
}
