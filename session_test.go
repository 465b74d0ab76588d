package sentry

import (
	"testing"
)

func TestSessionTrackerLifecycle(t *testing.T) {
	hub, collector, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("checkout-1", "CheckoutScreen")

	if tracker.ActiveSessions() != 1 {
		t.Fatalf("Expected 1 active session, got %d", tracker.ActiveSessions())
	}

	bound := hub.Scope().Transaction()
	if bound == nil {
		t.Fatal("Expected the session transaction bound to the scope")
	}
	if bound.Name() != "CheckoutScreen" {
		t.Errorf("Expected transaction named after the session, got %q", bound.Name())
	}
	if bound.Context().Op != "navigation" {
		t.Errorf("Expected navigation operation, got %q", bound.Context().Op)
	}

	tracker.EndSession("checkout-1")

	if tracker.ActiveSessions() != 0 {
		t.Errorf("Expected registry entry removed, got %d", tracker.ActiveSessions())
	}
	if hub.Scope().Transaction() != nil {
		t.Error("Expected scope transaction cleared at session end")
	}
	if !bound.IsFinished() {
		t.Error("Expected session transaction finished")
	}

	events := collector.Export()
	if len(events) != 1 {
		t.Fatalf("Expected 1 exported payload, got %d", len(events))
	}
	if events[0].Status != SpanStatusOK {
		t.Errorf("Expected default OK status, got %s", events[0].Status)
	}
}

func TestSessionTrackerSupersede(t *testing.T) {
	hub, collector, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("screen-1", "Home")
	first := hub.Scope().Transaction()

	// Starting a new session finishes the previous one and rebinds.
	tracker.StartSession("screen-2", "Details")

	if !first.IsFinished() {
		t.Error("Expected superseded session transaction to be finished")
	}
	if tracker.ActiveSessions() != 1 {
		t.Errorf("Expected only the new session tracked, got %d", tracker.ActiveSessions())
	}

	second := hub.Scope().Transaction()
	if second == nil || second.Name() != "Details" {
		t.Fatal("Expected the new session transaction bound to the scope")
	}

	tracker.EndSession("screen-2")

	if got := len(collector.Export()); got != 2 {
		t.Errorf("Expected both session transactions exported, got %d", got)
	}
}

func TestSessionTrackerPreservesStatus(t *testing.T) {
	hub, collector, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("screen-1", "Home")
	hub.WithTransaction(func(tx *Transaction) {
		tx.SetStatus(SpanStatusAborted)
	})
	tracker.EndSession("screen-1")

	events := collector.Export()
	if len(events) != 1 {
		t.Fatalf("Expected 1 exported payload, got %d", len(events))
	}
	// A status set by another integration is not overwritten.
	if events[0].Status != SpanStatusAborted {
		t.Errorf("Expected aborted status preserved, got %s", events[0].Status)
	}
}

func TestSessionTrackerDuplicateStart(t *testing.T) {
	hub, _, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("screen-1", "Home")
	first := hub.Scope().Transaction()

	tracker.StartSession("screen-1", "Home")

	if tracker.ActiveSessions() != 1 {
		t.Errorf("Expected duplicate start to be a no-op, got %d sessions", tracker.ActiveSessions())
	}
	if first.IsFinished() {
		t.Error("Expected the running session transaction untouched")
	}
}

func TestSessionTrackerBreadcrumbs(t *testing.T) {
	hub, _, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("screen-1", "Home")
	tracker.RecordState("screen-1", "resumed")
	tracker.RecordState("screen-1", "paused")
	tracker.EndSession("screen-1")

	crumbs := hub.Scope().Breadcrumbs()
	if len(crumbs) != 4 {
		t.Fatalf("Expected 4 lifecycle breadcrumbs, got %d", len(crumbs))
	}

	states := []string{"started", "resumed", "paused", "ended"}
	for i, crumb := range crumbs {
		if crumb.Type != "navigation" || crumb.Category != "ui.lifecycle" {
			t.Errorf("Unexpected breadcrumb shape: %+v", crumb)
		}
		if crumb.Data["state"] != states[i] {
			t.Errorf("Expected state %q, got %v", states[i], crumb.Data["state"])
		}
		if crumb.Data["session"] != "screen-1" {
			t.Errorf("Expected session ID on breadcrumb, got %v", crumb.Data["session"])
		}
	}
}

func TestSessionTrackerEndUnknownSession(t *testing.T) {
	hub, collector, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.EndSession("never-started")

	if got := len(collector.Export()); got != 0 {
		t.Errorf("Expected nothing exported, got %d", got)
	}
}

func TestSessionTrackerClose(t *testing.T) {
	hub, collector, _ := newTestHub(t, ClientOptions{TracesSampleRate: 1.0})
	tracker := NewSessionTracker(hub)

	tracker.StartSession("screen-1", "Home")
	tracker.Close()

	if tracker.ActiveSessions() != 0 {
		t.Errorf("Expected all sessions removed, got %d", tracker.ActiveSessions())
	}
	if got := len(collector.Export()); got != 1 {
		t.Errorf("Expected the open session finished and exported, got %d", got)
	}
}
