package sentry

import (
	"sync"

	"go.uber.org/zap"
)

// Transaction is the root unit of tracing for one logical operation: a
// root span plus an ordered collection of child spans (insertion order is
// start order). Safe for concurrent use by multiple goroutines.
//
// Lifecycle: Created -> Running -> Finished. Finishing is terminal: the
// child list is frozen, the status defaults to SpanStatusOK if never set,
// and the completed transaction is handed to the hub's transport exactly
// once. Children do NOT propagate an error status to the transaction;
// setting the transaction status remains a caller responsibility.
type Transaction struct {
	Span

	name     string
	children []*Span
	hub      *Hub
	finished bool
	captured bool

	// mu guards name, children and finished. The finished check and the
	// child append share this mutex so a child racing with Finish is
	// atomically rejected rather than appended to an export in flight.
	mu sync.Mutex
}

// newTransaction constructs a running transaction owned by hub.
func newTransaction(name string, sc SpanContext, hub *Hub) *Transaction {
	t := &Transaction{name: name, hub: hub}
	t.Span = Span{
		spanContext: sc,
		startTime:   hub.clock.Now(),
		clock:       hub.clock,
		logger:      hub.logger,
	}
	t.Span.transaction = t
	return t
}

// newNoopTransaction returns a transaction that records and reports
// nothing. Handed out by a disabled hub so instrumentation keeps working.
func newNoopTransaction() *Transaction {
	t := &Transaction{}
	t.Span = Span{noop: true}
	t.Span.transaction = t
	return t
}

// Name returns the transaction name.
func (t *Transaction) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// SetName renames the transaction. The name is separate from the root
// span's operation and may change any time before Finish; it applies to
// the exported payload only, never retroactively to the trace ID.
func (t *Transaction) SetName(name string) {
	if t.Span.noop {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		if t.Span.logger != nil {
			t.Span.logger.Debug("rename of finished transaction ignored",
				zap.String("name", name))
		}
		return
	}
	t.name = name
}

// Children returns a copy of the child span list, in start order.
func (t *Transaction) Children() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	children := make([]*Span, len(t.children))
	copy(children, t.children)
	return children
}

// startChildFrom appends a new child span under the given parent span ID.
// The finished check and the append happen under one lock so a late child
// never lands in an already-exported transaction.
func (t *Transaction) startChildFrom(parent SpanID, op, description string) *Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		if t.Span.logger != nil {
			t.Span.logger.Warn("dropping span started after transaction finished",
				zap.String("op", op),
				zap.String("transaction", t.name))
		}
		return newNoopSpan()
	}

	sc := SpanContext{
		TraceID:      t.Span.spanContext.TraceID,
		SpanID:       t.hub.newSpanID(),
		ParentSpanID: parent,
		Op:           op,
		Description:  description,
		Sampled:      t.Span.spanContext.Sampled,
	}
	child := newSpan(sc, t, t.Span.clock, t.Span.logger)
	t.children = append(t.children, child)
	return child
}

// Finish completes the transaction and hands it to the hub's transport.
// If no status was ever set, the transaction reports SpanStatusOK.
// Safe to call multiple times; calls after the first are no-ops.
func (t *Transaction) Finish() {
	t.finishTransaction(SpanStatusUndefined)
}

// FinishWithStatus completes the transaction with an explicit final
// status. A no-op if the transaction is already finished.
func (t *Transaction) FinishWithStatus(status SpanStatus) {
	t.finishTransaction(status)
}

func (t *Transaction) finishTransaction(status SpanStatus) {
	if t.Span.noop {
		return
	}

	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		if t.Span.logger != nil {
			t.Span.logger.Debug("transaction already finished, Finish ignored",
				zap.String("transaction", t.name))
		}
		return
	}
	t.finished = true
	t.mu.Unlock()

	t.Span.finish(status)

	// Hand off to the export pipeline exactly once, from the finish path
	// itself. The hub re-checks its disabled state.
	if t.hub != nil {
		t.hub.CaptureTransaction(t)
	}
}

// markCaptured records the transport handoff, reporting whether this call
// won it. Only a finished transaction can be captured, and only once, so
// a stray direct CaptureTransaction call never double-exports.
func (t *Transaction) markCaptured() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finished || t.captured {
		return false
	}
	t.captured = true
	return true
}

// toEvent builds the export payload for a finished transaction: the root
// span's identity and timing, the transaction name, and snapshots of all
// children.
func (t *Transaction) toEvent() *Event {
	root := t.Span.snapshot()

	t.mu.Lock()
	name := t.name
	children := make([]*Span, len(t.children))
	copy(children, t.children)
	t.mu.Unlock()

	event := &Event{
		Type:         EventTypeTransaction,
		EventID:      NewEventID(),
		Transaction:  name,
		Timestamp:    root.EndTime,
		StartTime:    root.StartTime,
		Status:       root.Status,
		Sampled:      t.Span.spanContext.Sampled,
		TraceContext: t.Span.spanContext,
		Tags:         root.Tags,
	}
	if len(children) > 0 {
		event.Spans = make([]SpanSnapshot, 0, len(children))
		for _, child := range children {
			event.Spans = append(event.Spans, child.snapshot())
		}
	}
	return event
}
