// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockContextHub is a test double for the ContextHub interface.
type mockContextHub struct {
	runErr   error
	runCount atomic.Int32
}

func (m *mockContextHub) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHubServiceInterface(t *testing.T) {
	var _ suture.Service = (*HubService)(nil)
}

func TestNewHubService(t *testing.T) {
	hub := &mockContextHub{}
	svc := NewHubService(hub)

	if svc.hub != hub {
		t.Error("hub not assigned correctly")
	}
	if svc.String() != "realtime-hub" {
		t.Errorf("expected name realtime-hub, got %q", svc.String())
	}
}

func TestHubServiceServe(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		hub := &mockContextHub{}
		svc := NewHubService(hub)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after cancellation")
		}

		if hub.runCount.Load() != 1 {
			t.Errorf("expected 1 run, got %d", hub.runCount.Load())
		}
	})

	t.Run("propagates hub errors", func(t *testing.T) {
		hub := &mockContextHub{runErr: errors.New("hub crashed")}
		svc := NewHubService(hub)

		err := svc.Serve(context.Background())
		if !errors.Is(err, hub.runErr) {
			t.Errorf("expected hub error, got %v", err)
		}
	})
}
