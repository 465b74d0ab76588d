package sentry

import (
	"sync"

	"go.uber.org/zap"
)

// defaultMaxBreadcrumbs bounds a scope's breadcrumb trail when the
// configured limit is zero or negative.
const defaultMaxBreadcrumbs = 100

// Scope holds the ambient state of one logical unit of work: the current
// transaction, breadcrumbs, tags, user and request descriptor. Request
// handling code reads and writes it through the hub without explicit
// parameter passing.
//
// A scope serves exactly one unit of work (one request, one navigation).
// It is never implicitly shared across concurrent units of work; derive a
// fresh scope at each boundary with Clone. Individual accessors are safe
// for concurrent use within a unit of work (e.g. background goroutines
// spawned from a request); multi-step mutations should go through
// Hub.ConfigureScope, which serializes whole mutator callbacks.
type Scope struct {
	transaction    *Transaction
	breadcrumbs    []Breadcrumb
	maxBreadcrumbs int
	tags           map[string]string
	user           User
	request        *Request
	logger         *zap.Logger

	mu sync.Mutex
	// mutatorMu serializes ConfigureScope callbacks so one mutator never
	// observes another's half-applied changes.
	mutatorMu sync.Mutex
}

// NewScope creates an empty scope. maxBreadcrumbs bounds the breadcrumb
// trail; zero or negative selects the default of 100.
func NewScope(maxBreadcrumbs int, logger *zap.Logger) *Scope {
	if maxBreadcrumbs <= 0 {
		maxBreadcrumbs = defaultMaxBreadcrumbs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope{
		maxBreadcrumbs: maxBreadcrumbs,
		logger:         logger,
	}
}

// SetTransaction binds a transaction to the scope. At most one transaction
// may be bound at a time: if one is already present the call is a no-op
// that preserves the existing binding, so callers never silently overwrite
// ambient tracing context.
func (s *Scope) SetTransaction(transaction *Transaction) {
	if transaction == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transaction != nil {
		s.logger.Debug("transaction not bound to scope, another one is already bound",
			zap.String("transaction", transaction.Name()),
			zap.String("bound", s.transaction.Name()))
		return
	}
	s.transaction = transaction
}

// ClearTransaction removes the bound transaction, if any. The scope holds
// the transaction weakly: clearing does not finish it; the creator owns
// its lifetime.
func (s *Scope) ClearTransaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transaction = nil
}

// Transaction returns the currently bound transaction, or nil.
func (s *Scope) Transaction() *Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transaction
}

// AddBreadcrumb appends a breadcrumb. When the trail is at capacity the
// oldest breadcrumb is dropped.
func (s *Scope) AddBreadcrumb(breadcrumb Breadcrumb) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.breadcrumbs) >= s.maxBreadcrumbs {
		s.breadcrumbs = append(s.breadcrumbs[1:], breadcrumb)
		return
	}
	s.breadcrumbs = append(s.breadcrumbs, breadcrumb)
}

// Breadcrumbs returns a copy of the breadcrumb trail, oldest first.
func (s *Scope) Breadcrumbs() []Breadcrumb {
	s.mu.Lock()
	defer s.mu.Unlock()

	crumbs := make([]Breadcrumb, len(s.breadcrumbs))
	copy(crumbs, s.breadcrumbs)
	return crumbs
}

// ClearBreadcrumbs empties the breadcrumb trail.
func (s *Scope) ClearBreadcrumbs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = nil
}

// SetTag sets a tag that will be attached to every event captured under
// this scope.
func (s *Scope) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tags[key] = value
}

// RemoveTag deletes a tag from the scope.
func (s *Scope) RemoveTag(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, key)
}

// Tag retrieves a scope tag by key.
func (s *Scope) Tag(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tags == nil {
		return "", false
	}
	value, ok := s.tags[key]
	return value, ok
}

// SetUser sets the user for the current unit of work.
func (s *Scope) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// User returns the current user.
func (s *Scope) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetRequest sets the request descriptor for the current unit of work.
func (s *Scope) SetRequest(request *Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = request
}

// Request returns the current request descriptor, or nil.
func (s *Scope) Request() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// update runs a mutator callback under the scope's mutator lock. Used by
// Hub.ConfigureScope.
func (s *Scope) update(mutator func(*Scope)) {
	s.mutatorMu.Lock()
	defer s.mutatorMu.Unlock()
	mutator(s)
}

// Clone returns a scope for a new unit of work carrying copies of the
// tags, user, request and breadcrumb trail. The bound transaction is NOT
// carried over: a new unit of work starts without ambient tracing context.
func (s *Scope) Clone() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := &Scope{
		maxBreadcrumbs: s.maxBreadcrumbs,
		logger:         s.logger,
		user:           s.user,
	}
	if len(s.breadcrumbs) > 0 {
		clone.breadcrumbs = make([]Breadcrumb, len(s.breadcrumbs))
		copy(clone.breadcrumbs, s.breadcrumbs)
	}
	if len(s.tags) > 0 {
		clone.tags = make(map[string]string, len(s.tags))
		for k, v := range s.tags {
			clone.tags[k] = v
		}
	}
	if s.request != nil {
		request := *s.request
		if len(s.request.Headers) > 0 {
			request.Headers = make(map[string]string, len(s.request.Headers))
			for k, v := range s.request.Headers {
				request.Headers[k] = v
			}
		}
		clone.request = &request
	}
	return clone
}

// applyToEvent copies the scope snapshot (tags, user, request,
// breadcrumbs, transaction name) onto an event about to be captured.
// Event-level tags win over scope tags.
func (s *Scope) applyToEvent(event *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.tags {
		if event.Tags == nil {
			event.Tags = make(map[string]string, len(s.tags))
		}
		if _, ok := event.Tags[k]; !ok {
			event.Tags[k] = v
		}
	}
	if event.User.IsEmpty() {
		event.User = s.user
	}
	if event.Request == nil && s.request != nil {
		request := *s.request
		event.Request = &request
	}
	if len(s.breadcrumbs) > 0 && event.Breadcrumbs == nil {
		event.Breadcrumbs = make([]Breadcrumb, len(s.breadcrumbs))
		copy(event.Breadcrumbs, s.breadcrumbs)
	}
	if event.Transaction == "" && s.transaction != nil {
		event.Transaction = s.transaction.Name()
	}
}
