// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue reads the current value of a labeled counter.
func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveStoreOpRecordsError(t *testing.T) {
	before := counterValue(t, StoreOpErrors, "messages", "create")

	ObserveStoreOp("messages", "create", time.Now(), errors.New("boom"))

	after := counterValue(t, StoreOpErrors, "messages", "create")
	if after != before+1 {
		t.Errorf("error counter = %v, want %v", after, before+1)
	}
}

func TestObserveStoreOpSuccessNoError(t *testing.T) {
	before := counterValue(t, StoreOpErrors, "users", "get")

	ObserveStoreOp("users", "get", time.Now(), nil)

	after := counterValue(t, StoreOpErrors, "users", "get")
	if after != before {
		t.Errorf("error counter moved on success: %v -> %v", before, after)
	}
}

func TestRealtimeEventCounters(t *testing.T) {
	before := counterValue(t, RealtimeEvents, "message:send", "ok")
	RealtimeEvents.WithLabelValues("message:send", "ok").Inc()
	after := counterValue(t, RealtimeEvents, "message:send", "ok")
	if after != before+1 {
		t.Errorf("realtime event counter = %v, want %v", after, before+1)
	}
}

func TestSessionGauges(t *testing.T) {
	WebSocketSessions.Set(3)
	OnlineUsers.Set(2)

	m := &dto.Metric{}
	if err := WebSocketSessions.Write(m); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 3 {
		t.Errorf("WebSocketSessions = %v, want 3", got)
	}
}
