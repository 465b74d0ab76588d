package sentry

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// SpanContext is the immutable identity record of a span: where it sits in
// the trace tree and whether the trace was sampled. It is fixed at span
// creation and never mutated afterwards.
type SpanContext struct {
	TraceID      TraceID
	SpanID       SpanID
	ParentSpanID SpanID // zero value means "no parent in this process"
	Op           string
	Description  string
	Sampled      Sampled
}

// TraceHeader returns the propagation header identifying this span as the
// caller of a downstream request.
func (sc SpanContext) TraceHeader() TraceHeader {
	return TraceHeader{
		TraceID: sc.TraceID,
		SpanID:  sc.SpanID,
		Sampled: sc.Sampled,
	}
}

// Span represents a single timed unit of work within a transaction.
// Safe for concurrent use by multiple goroutines.
//
// A span is owned exclusively by the transaction that created it and is
// never shared across transactions. Finishing is terminal: the end
// timestamp, once set, is never mutated, and later mutations are ignored
// (logged as a likely caller error, never raised).
type Span struct {
	spanContext SpanContext
	startTime   time.Time
	endTime     time.Time
	status      SpanStatus
	tags        map[string]string
	data        map[string]interface{}

	transaction *Transaction // owning transaction; nil for no-op spans
	clock       clockz.Clock
	logger      *zap.Logger
	noop        bool

	mu sync.Mutex
}

// newSpan constructs a running span. The start timestamp is taken from the
// owning transaction's clock at construction.
func newSpan(sc SpanContext, tx *Transaction, clock clockz.Clock, logger *zap.Logger) *Span {
	return &Span{
		spanContext: sc,
		startTime:   clock.Now(),
		transaction: tx,
		clock:       clock,
		logger:      logger,
	}
}

// newNoopSpan returns a span that records nothing. It is handed out when a
// child cannot be attached (the owning transaction already finished) so
// instrumented code keeps working without nil checks.
func newNoopSpan() *Span {
	return &Span{noop: true}
}

// Context returns a copy of the span's immutable identity record.
func (s *Span) Context() SpanContext {
	return s.spanContext
}

// TraceHeader returns the propagation header for outgoing requests made
// while this span is the active unit of work.
func (s *Span) TraceHeader() TraceHeader {
	return s.spanContext.TraceHeader()
}

// IsNoop reports whether this span discards everything written to it.
func (s *Span) IsNoop() bool {
	return s.noop
}

// StartTime returns the span's start timestamp.
func (s *Span) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// EndTime returns the span's end timestamp, or the zero time while the
// span is still running.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}

// IsFinished reports whether Finish has been called.
func (s *Span) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.endTime.IsZero()
}

// Status returns the span's current status.
func (s *Span) Status() SpanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus sets the span status. Ignored after the span is finished.
func (s *Span) SetStatus(status SpanStatus) {
	if s.noop {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.endTime.IsZero() {
		s.logLateMutation("SetStatus")
		return
	}
	s.status = status
}

// SetTag adds a key-value tag to the span. Ignored after the span is
// finished. Safe for concurrent use.
func (s *Span) SetTag(key, value string) {
	if s.noop {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.endTime.IsZero() {
		s.logLateMutation("SetTag")
		return
	}
	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tags[key] = value
}

// Tag retrieves a tag value by key. Safe for concurrent use.
func (s *Span) Tag(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tags == nil {
		return "", false
	}
	value, ok := s.tags[key]
	return value, ok
}

// SetData attaches an arbitrary value to the span under the given key.
// Ignored after the span is finished.
func (s *Span) SetData(key string, value interface{}) {
	if s.noop {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.endTime.IsZero() {
		s.logLateMutation("SetData")
		return
	}
	if s.data == nil {
		s.data = make(map[string]interface{})
	}
	s.data[key] = value
}

// Data retrieves a data value by key. Safe for concurrent use.
func (s *Span) Data(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, false
	}
	value, ok := s.data[key]
	return value, ok
}

// StartChild creates a new span whose parent is this span, appended to the
// owning transaction's child list. The child inherits the trace ID and
// sampling decision. If the owning transaction is already finished, a
// no-op span is returned instead.
func (s *Span) StartChild(op string, description ...string) *Span {
	if s.noop || s.transaction == nil {
		return newNoopSpan()
	}

	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	return s.transaction.startChildFrom(s.spanContext.SpanID, op, desc)
}

// Finish completes the span, fixing its end timestamp. If no status was
// ever set, the status becomes SpanStatusOK. Safe to call multiple times;
// calls after the first are no-ops.
func (s *Span) Finish() {
	s.finish(SpanStatusUndefined)
}

// FinishWithStatus completes the span with an explicit final status.
// A no-op if the span is already finished.
func (s *Span) FinishWithStatus(status SpanStatus) {
	s.finish(status)
}

func (s *Span) finish(status SpanStatus) {
	if s.noop {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Prevent double-finishing: the first end timestamp is terminal.
	if !s.endTime.IsZero() {
		if s.logger != nil {
			s.logger.Debug("span already finished, Finish ignored",
				zap.String("span_id", s.spanContext.SpanID.String()),
				zap.String("op", s.spanContext.Op))
		}
		return
	}

	s.endTime = s.clock.Now()
	if status != SpanStatusUndefined {
		s.status = status
	}
	if s.status == SpanStatusUndefined {
		s.status = SpanStatusOK
	}
}

// logLateMutation records a mutation attempted after Finish. Such calls
// are tolerated to keep instrumented code stable.
func (s *Span) logLateMutation(operation string) {
	if s.logger == nil {
		return
	}
	s.logger.Debug("mutation of finished span ignored",
		zap.String("mutation", operation),
		zap.String("span_id", s.spanContext.SpanID.String()),
		zap.String("op", s.spanContext.Op))
}

// snapshot returns an export copy of the span. Must be called with s.mu
// NOT held.
func (s *Span) snapshot() SpanSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SpanSnapshot{
		TraceID:      s.spanContext.TraceID,
		SpanID:       s.spanContext.SpanID,
		ParentSpanID: s.spanContext.ParentSpanID,
		Op:           s.spanContext.Op,
		Description:  s.spanContext.Description,
		Status:       s.status,
		StartTime:    s.startTime,
		EndTime:      s.endTime,
	}
	if len(s.tags) > 0 {
		snap.Tags = make(map[string]string, len(s.tags))
		for k, v := range s.tags {
			snap.Tags[k] = v
		}
	}
	if len(s.data) > 0 {
		snap.Data = make(map[string]interface{}, len(s.data))
		for k, v := range s.data {
			snap.Data[k] = v
		}
	}
	return snap
}

// SpanSnapshot is the immutable export form of a span, detached from the
// live span so the transport can hold it without synchronization.
type SpanSnapshot struct {
	TraceID      TraceID                `json:"trace_id"`
	SpanID       SpanID                 `json:"span_id"`
	ParentSpanID SpanID                 `json:"parent_span_id,omitempty"`
	Op           string                 `json:"op"`
	Description  string                 `json:"description,omitempty"`
	Status       SpanStatus             `json:"status,omitempty"`
	StartTime    time.Time              `json:"start_timestamp"`
	EndTime      time.Time              `json:"timestamp"`
	Tags         map[string]string      `json:"tags,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
}
