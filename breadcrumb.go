package sentry

import (
	"time"
)

// Level is the severity attached to breadcrumbs and events.
type Level string

const (
	// LevelDebug is for diagnostic details.
	LevelDebug Level = "debug"
	// LevelInfo is for expected, informational occurrences.
	LevelInfo Level = "info"
	// LevelWarning is for unusual but recoverable occurrences.
	LevelWarning Level = "warning"
	// LevelError is for failures of an operation.
	LevelError Level = "error"
	// LevelFatal is for failures terminating the unit of work.
	LevelFatal Level = "fatal"
)

// Breadcrumb is a timestamped, log-like note attached to the current
// scope and included with subsequently captured events. Breadcrumbs are
// append-only within a scope; the scope drops the oldest on overflow.
type Breadcrumb struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Level     Level                  `json:"level,omitempty"`
}
