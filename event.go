package sentry

import (
	"time"
)

// EventType discriminates the payload variants handed to a transport.
// The discriminant is an explicit field, not runtime type identity, so
// transports can branch on it after serialization boundaries.
type EventType string

const (
	// EventTypeEvent is a captured error or message with a scope snapshot.
	EventTypeEvent EventType = "event"
	// EventTypeTransaction is a finished transaction with its span tree.
	EventTypeTransaction EventType = "transaction"
)

// User describes the user associated with the current unit of work.
type User struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// IsEmpty reports whether no user field is set.
func (u User) IsEmpty() bool {
	return u == User{}
}

// Request describes the web request being handled when an event was
// captured.
type Request struct {
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	QueryString string            `json:"query_string,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Event is the unit handed to a Transport: either a captured
// error/message (Type == EventTypeEvent) or a finished transaction with
// its span tree (Type == EventTypeTransaction). The transport treats it as
// an opaque payload for serialization and delivery.
type Event struct {
	Type      EventType `json:"type"`
	EventID   EventID   `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level,omitempty"`
	Message   string    `json:"message,omitempty"`

	Platform    string `json:"platform,omitempty"`
	Release     string `json:"release,omitempty"`
	Environment string `json:"environment,omitempty"`
	Dist        string `json:"dist,omitempty"`
	ServerName  string `json:"server_name,omitempty"`

	// Transaction is the name of the transaction this event belongs to
	// (for transaction payloads, the transaction's own name).
	Transaction string            `json:"transaction,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	User        User              `json:"user,omitempty"`
	Request     *Request          `json:"request,omitempty"`
	Breadcrumbs []Breadcrumb      `json:"breadcrumbs,omitempty"`

	// Exception carries the message of a captured error.
	Exception string `json:"exception,omitempty"`

	// Transaction payload fields.
	StartTime    time.Time      `json:"start_timestamp,omitempty"`
	Status       SpanStatus     `json:"status,omitempty"`
	Sampled      Sampled        `json:"-"`
	TraceContext SpanContext    `json:"-"`
	Spans        []SpanSnapshot `json:"spans,omitempty"`
}

// SetTag adds a tag to the event, allocating the map on first use.
func (e *Event) SetTag(key, value string) {
	if e.Tags == nil {
		e.Tags = make(map[string]string)
	}
	e.Tags[key] = value
}
