package sentry

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Transport receives finished payloads as opaque units for serialization
// and delivery. The core does not know or care how they reach the remote
// collector. Collector is the in-repo buffering implementation.
type Transport interface {
	// SendEvent accepts a payload for delivery. Must not block.
	SendEvent(event *Event)
	// Flush waits until buffered payloads are handed off or the timeout
	// elapses, reporting whether the buffer drained in time.
	Flush(timeout time.Duration) bool
}

// Hub is the single authority for creating transactions and spans
// consistently with the sampling configuration, and for routing scope
// mutation and finished payloads. Safe for concurrent use by multiple
// goroutines.
//
// A hub owns one scope, i.e. one logical unit of work. Hosts derive a hub
// per request or navigation with Clone instead of sharing one scope
// across concurrent units of work.
type Hub struct {
	options   ClientOptions
	transport Transport
	scope     *Scope
	logger    *zap.Logger
	clock     clockz.Clock

	// enabled is shared across clones: disabling a hub disables the whole
	// client.
	enabled *atomic.Bool
	ids     *idGenerator
}

// idGenerator holds the lazily-created ID pools, shared across hub clones
// to amortize crypto/rand cost.
type idGenerator struct {
	traceIDs *IDPool[TraceID]
	spanIDs  *IDPool[SpanID]
	clock    clockz.Clock
	once     sync.Once
}

func (g *idGenerator) ensurePools() {
	g.once.Do(func() {
		// Pool size based on number of CPUs for contention balance.
		poolSize := runtime.NumCPU() * 100
		g.traceIDs = NewIDPool(poolSize, func() TraceID {
			return newTraceID(g.clock)
		})
		g.spanIDs = NewIDPool(poolSize, func() SpanID {
			return newSpanID(g.clock)
		})
	})
}

func (g *idGenerator) newTraceID() TraceID {
	g.ensurePools()
	return g.traceIDs.Get()
}

func (g *idGenerator) newSpanID() SpanID {
	g.ensurePools()
	return g.spanIDs.Get()
}

func (g *idGenerator) close() {
	if g.traceIDs != nil {
		g.traceIDs.Close()
	}
	if g.spanIDs != nil {
		g.spanIDs.Close()
	}
}

// NewHub creates a hub routing finished payloads to transport. A nil
// transport leaves the hub disabled: every entry point short-circuits to
// a no-op. Returns ErrInvalidSampleRate if the options are misconfigured.
func NewHub(options ClientOptions, transport Transport) (*Hub, error) {
	return newHub(options, transport, clockz.RealClock)
}

// NewHubWithClock creates a hub with an injected clock for deterministic
// tests.
func NewHubWithClock(options ClientOptions, transport Transport, clock clockz.Clock) (*Hub, error) {
	return newHub(options, transport, clock)
}

func newHub(options ClientOptions, transport Transport, clock clockz.Clock) (*Hub, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}
	logger := options.logger()

	h := &Hub{
		options:   options,
		transport: transport,
		logger:    logger,
		clock:     clock,
		enabled:   &atomic.Bool{},
		ids:       &idGenerator{clock: clock},
	}
	h.scope = NewScope(options.MaxBreadcrumbs, logger)

	if transport == nil {
		logger.Debug("hub created without transport, tracing disabled")
	} else {
		h.enabled.Store(true)
	}
	return h, nil
}

// Clone derives a hub for a new logical unit of work: same options,
// transport and sampling state, fresh scope (tags, user and breadcrumbs
// carried over; the bound transaction is not).
func (h *Hub) Clone() *Hub {
	return &Hub{
		options:   h.options,
		transport: h.transport,
		scope:     h.scope.Clone(),
		logger:    h.logger,
		clock:     h.clock,
		enabled:   h.enabled,
		ids:       h.ids,
	}
}

// Enabled reports whether the hub routes payloads to its transport.
func (h *Hub) Enabled() bool {
	return h.enabled.Load()
}

// Disable turns every hub entry point into a no-op, across all clones.
func (h *Hub) Disable() {
	h.enabled.Store(false)
}

// Scope returns the hub's scope.
func (h *Hub) Scope() *Scope {
	return h.scope
}

// Close releases the hub's shared resources (ID pools). The transport's
// lifetime belongs to the host.
func (h *Hub) Close() {
	h.ids.close()
}

// TransactionOption customizes StartTransaction.
type TransactionOption func(*transactionOptions)

type transactionOptions struct {
	bindToScope bool
	custom      map[string]interface{}
	header      TraceHeader
	hasHeader   bool
	rawHeader   string
	hasRaw      bool
}

// BindToScope binds the new transaction into the hub's scope, unless the
// scope already holds one (the existing binding is preserved).
func BindToScope() TransactionOption {
	return func(o *transactionOptions) {
		o.bindToScope = true
	}
}

// WithSamplingContext attaches caller-supplied key/value context for the
// configured TracesSampler.
func WithSamplingContext(custom map[string]interface{}) TransactionOption {
	return func(o *transactionOptions) {
		o.custom = custom
	}
}

// ContinueFromTraceHeader inherits trace identity from an already-decoded
// propagation header: the new transaction joins the caller's trace with
// the caller's span as parent. A known upstream sampling decision wins
// over local sampling configuration.
func ContinueFromTraceHeader(header TraceHeader) TransactionOption {
	return func(o *transactionOptions) {
		o.header = header
		o.hasHeader = true
	}
}

// ContinueFromHeader is ContinueFromTraceHeader for a raw header value.
// A malformed value degrades to a fresh, unsampled context (logged, never
// surfaced), so instrumentation cannot abort request handling.
func ContinueFromHeader(value string) TransactionOption {
	return func(o *transactionOptions) {
		o.rawHeader = value
		o.hasRaw = true
	}
}

// StartTransaction creates a transaction under a resolved sampling
// decision. Decision order: upstream header decision, then the configured
// TracesSampler (which may defer), then a uniform draw against
// TracesSampleRate. On a disabled hub the returned transaction is a
// no-op.
//
// The host must finish the transaction on all exit paths of its unit of
// work; an unfinished transaction simply never reports.
func (h *Hub) StartTransaction(name, operation string, opts ...TransactionOption) *Transaction {
	if !h.enabled.Load() {
		return newNoopTransaction()
	}

	var txOpts transactionOptions
	for _, opt := range opts {
		opt(&txOpts)
	}
	malformed := false
	if txOpts.hasRaw {
		header, err := ParseTraceHeader(txOpts.rawHeader)
		if err != nil {
			// Degrade to a fresh, unsampled context rather than surfacing.
			// The upstream decision is unknowable, so no local draw either.
			h.logger.Warn("ignoring malformed trace header",
				zap.String("header", txOpts.rawHeader),
				zap.Error(err))
			malformed = true
		} else {
			txOpts.header = header
			txOpts.hasHeader = true
		}
	}

	sc := SpanContext{
		SpanID: h.newSpanID(),
		Op:     operation,
	}
	var parent *SpanContext
	if txOpts.hasHeader {
		sc.TraceID = txOpts.header.TraceID
		sc.ParentSpanID = txOpts.header.SpanID
		sc.Sampled = txOpts.header.Sampled
		parent = &SpanContext{
			TraceID: txOpts.header.TraceID,
			SpanID:  txOpts.header.SpanID,
			Sampled: txOpts.header.Sampled,
		}
	} else {
		sc.TraceID = h.ids.newTraceID()
		if malformed {
			sc.Sampled = SampledFalse
		}
	}

	if !sc.Sampled.Defined() {
		sc.Sampled = h.resolveSampling(SamplingContext{
			TransactionName: name,
			Operation:       operation,
			Parent:          parent,
			Custom:          txOpts.custom,
		})
	}

	transaction := newTransaction(name, sc, h)
	if txOpts.bindToScope {
		h.scope.SetTransaction(transaction)
	}
	return transaction
}

// resolveSampling applies the sampler function if configured, falling back
// to a uniform draw against the sample rate. math/rand/v2's global source
// is safe for concurrent use without external locking.
func (h *Hub) resolveSampling(ctx SamplingContext) Sampled {
	if h.options.TracesSampler != nil {
		if decision := h.options.TracesSampler(ctx); decision.Defined() {
			return decision
		}
	}
	if rand.Float64() < h.options.TracesSampleRate {
		return SampledTrue
	}
	return SampledFalse
}

// CaptureTransaction forwards a finished transaction to the transport.
// Normally invoked by the transaction's own Finish; a direct call is a
// no-op unless the transaction is finished and not yet captured, so each
// transaction exports at most once. Sampling gates reporting weight, not
// API availability, so unsampled transactions are forwarded too, carrying
// Sampled == false.
func (h *Hub) CaptureTransaction(transaction *Transaction) {
	if !h.enabled.Load() || transaction == nil || transaction.IsNoop() {
		return
	}
	if !transaction.markCaptured() {
		return
	}

	event := transaction.toEvent()
	h.decorateEvent(event)
	h.transport.SendEvent(event)
}

// CaptureEvent forwards an event to the transport after applying the
// scope snapshot (tags, user, request, breadcrumbs). Returns the event ID,
// or "" on a disabled hub.
func (h *Hub) CaptureEvent(event *Event) EventID {
	if !h.enabled.Load() || event == nil {
		return ""
	}

	if event.Type == "" {
		event.Type = EventTypeEvent
	}
	if event.EventID == "" {
		event.EventID = NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = h.clock.Now()
	}
	h.scope.applyToEvent(event)
	h.decorateEvent(event)
	h.transport.SendEvent(event)
	return event.EventID
}

// CaptureException captures an error with the current scope snapshot.
func (h *Hub) CaptureException(err error) EventID {
	if err == nil {
		return ""
	}
	return h.CaptureEvent(&Event{
		Type:      EventTypeEvent,
		Level:     LevelError,
		Exception: err.Error(),
	})
}

// CaptureMessage captures a plain message with the current scope snapshot.
func (h *Hub) CaptureMessage(message string) EventID {
	return h.CaptureEvent(&Event{
		Type:    EventTypeEvent,
		Level:   LevelInfo,
		Message: message,
	})
}

// AddBreadcrumb appends a breadcrumb to the hub's scope, stamping the
// current time if the breadcrumb has none.
func (h *Hub) AddBreadcrumb(breadcrumb Breadcrumb) {
	if !h.enabled.Load() {
		return
	}
	if breadcrumb.Timestamp.IsZero() {
		breadcrumb.Timestamp = h.clock.Now()
	}
	h.scope.AddBreadcrumb(breadcrumb)
}

// ConfigureScope applies a mutator to the hub's scope. Mutators on the
// same scope are serialized, so one never observes another's half-applied
// changes.
func (h *Hub) ConfigureScope(mutator func(*Scope)) {
	if !h.enabled.Load() || mutator == nil {
		return
	}
	h.scope.update(mutator)
}

// WithTransaction runs a read-only callback with the currently bound
// transaction, if any, without exposing scope internals.
func (h *Hub) WithTransaction(reader func(*Transaction)) {
	if !h.enabled.Load() || reader == nil {
		return
	}
	if transaction := h.scope.Transaction(); transaction != nil {
		reader(transaction)
	}
}

// Flush waits for the transport to hand off buffered payloads.
func (h *Hub) Flush(timeout time.Duration) bool {
	if !h.enabled.Load() {
		return true
	}
	return h.transport.Flush(timeout)
}

// decorateEvent stamps the deployment metadata from the options.
func (h *Hub) decorateEvent(event *Event) {
	if event.Platform == "" {
		event.Platform = "go"
	}
	if event.Release == "" {
		event.Release = h.options.Release
	}
	if event.Environment == "" {
		event.Environment = h.options.Environment
	}
	if event.Dist == "" {
		event.Dist = h.options.Dist
	}
	if event.ServerName == "" {
		event.ServerName = h.options.ServerName
	}
}

// newSpanID hands out span IDs from the shared pool.
func (h *Hub) newSpanID() SpanID {
	return h.ids.newSpanID()
}
