// Package sentry is an error- and performance-monitoring SDK: it captures
// application events (errors, breadcrumbs) and distributed-tracing data
// (transactions, spans) and forwards them to a configurable transport.
//
// Core Components:
//   - Hub: Creates transactions and spans under a sampling decision and
//     routes finished payloads to the transport.
//   - Transaction: The root unit of tracing for one logical operation.
//   - Span: A timed sub-unit of work within a Transaction.
//   - Scope: Ambient per-unit-of-work state (current transaction, tags,
//     user, breadcrumbs).
//   - Collector: Buffers finished payloads for batch export.
//
// Basic Usage:
//
//	collector := sentry.NewCollector("export", 256)
//	defer collector.Close()
//
//	hub, err := sentry.NewHub(sentry.ClientOptions{TracesSampleRate: 1.0}, collector)
//	if err != nil {
//		// invalid configuration, e.g. sample rate outside [0, 1]
//	}
//
//	tx := hub.StartTransaction("GET /users", "http.server", sentry.BindToScope())
//	defer tx.Finish()
//
//	child := tx.StartChild("db.query", "SELECT * FROM users")
//	child.SetTag("db.system", "postgres")
//	child.Finish()
//
// Cross-Process Propagation:
//
// Trace identity crosses process boundaries through the "sentry-trace"
// header. Outgoing requests attach tx.TraceHeader().String(); inbound
// handlers continue the caller's trace:
//
//	tx := hub.StartTransaction("POST /checkout", "http.server",
//		sentry.ContinueFromHeader(r.Header.Get(sentry.TraceHeaderName)))
//
// Thread Safety:
//
// Hub, Transaction, Span, Scope and Collector are safe for concurrent use
// by multiple goroutines. A Scope is intended to serve one logical unit of
// work; use Hub.Clone to derive an isolated hub per unit of work instead
// of sharing one scope across concurrent requests.
//
// Failure Policy:
//
// Tracing must never destabilize the instrumented application. Malformed
// headers and identifiers degrade to a fresh, unsampled context; mutation
// of finished spans is ignored; everything is at most a log line through
// the logger configured in ClientOptions. The one exception is
// configuration validation (ErrInvalidSampleRate), which is surfaced at
// construction because it indicates a deployment mistake.
package sentry
