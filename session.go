package sentry

import (
	"sync"

	"go.uber.org/zap"
)

// SessionTracker bridges host lifecycle hooks ("unit of work begins",
// "unit of work ends") to the hub: it starts a navigation transaction per
// session, binds it to the scope, records lifecycle breadcrumbs and
// finishes the transaction at the session's terminal callback.
//
// Sessions are keyed by a stable, caller-supplied identifier. Ownership
// is explicit: an entry lives in the registry from StartSession until
// EndSession removes it, never inferred from collectability of a host
// object. Safe for concurrent use by multiple goroutines.
type SessionTracker struct {
	hub      *Hub
	logger   *zap.Logger
	mu       sync.Mutex
	sessions map[string]*Transaction
}

// NewSessionTracker creates a tracker dispatching through hub.
func NewSessionTracker(hub *Hub) *SessionTracker {
	return &SessionTracker{
		hub:      hub,
		logger:   hub.logger,
		sessions: make(map[string]*Transaction),
	}
}

// StartSession begins a unit of work: any transactions of previous
// sessions are finished (a single transaction may be bound to the scope
// at a time), then a "navigation" transaction named after the session is
// started and bound to the scope. Starting an already-running session is
// a no-op.
func (st *SessionTracker) StartSession(sessionID, name string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, running := st.sessions[sessionID]; running {
		st.logger.Debug("session already running", zap.String("session_id", sessionID))
		return
	}

	// Finish superseded sessions so the scope slot is free for the new
	// transaction.
	for id, transaction := range st.sessions {
		st.finishPreservingStatus(transaction)
		delete(st.sessions, id)
	}
	st.hub.Scope().ClearTransaction()

	transaction := st.hub.StartTransaction(name, "navigation", BindToScope())
	st.sessions[sessionID] = transaction

	st.recordBreadcrumb(sessionID, name, "started")
}

// RecordState adds a lifecycle breadcrumb (e.g. "created", "resumed",
// "paused") for a running session.
func (st *SessionTracker) RecordState(sessionID, state string) {
	st.mu.Lock()
	transaction, running := st.sessions[sessionID]
	st.mu.Unlock()

	name := ""
	if running {
		name = transaction.Name()
	}
	st.recordBreadcrumb(sessionID, name, state)
}

// EndSession finishes the session's transaction and removes the registry
// entry. Ending an unknown session is a no-op.
func (st *SessionTracker) EndSession(sessionID string) {
	st.mu.Lock()
	transaction, running := st.sessions[sessionID]
	delete(st.sessions, sessionID)
	st.mu.Unlock()

	if !running {
		st.logger.Debug("ending unknown session", zap.String("session_id", sessionID))
		return
	}

	st.recordBreadcrumb(sessionID, transaction.Name(), "ended")
	st.finishPreservingStatus(transaction)
	st.hub.Scope().ClearTransaction()
}

// ActiveSessions returns the number of sessions currently tracked.
func (st *SessionTracker) ActiveSessions() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close finishes and removes every tracked session.
func (st *SessionTracker) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, transaction := range st.sessions {
		st.finishPreservingStatus(transaction)
		delete(st.sessions, id)
	}
	st.hub.Scope().ClearTransaction()
}

// finishPreservingStatus finishes a transaction without overwriting a
// status another integration may have set; an unset status reports OK.
func (st *SessionTracker) finishPreservingStatus(transaction *Transaction) {
	status := transaction.Status()
	if status == SpanStatusUndefined {
		status = SpanStatusOK
	}
	transaction.FinishWithStatus(status)
}

func (st *SessionTracker) recordBreadcrumb(sessionID, name, state string) {
	data := map[string]interface{}{
		"state":   state,
		"session": sessionID,
	}
	if name != "" {
		data["screen"] = name
	}
	st.hub.AddBreadcrumb(Breadcrumb{
		Type:     "navigation",
		Category: "ui.lifecycle",
		Level:    LevelInfo,
		Data:     data,
	})
}
