package sentry

// SpanStatus describes the outcome of a span or transaction.
// The zero value SpanStatusUndefined means "not set"; a span finished
// without a status reports SpanStatusOK.
type SpanStatus string

const (
	// SpanStatusUndefined means no status has been set.
	SpanStatusUndefined SpanStatus = ""
	// SpanStatusOK means the operation completed successfully.
	SpanStatusOK SpanStatus = "ok"
	// SpanStatusCancelled means the operation was cancelled, typically by the caller.
	SpanStatusCancelled SpanStatus = "cancelled"
	// SpanStatusUnknown means an unknown error occurred.
	SpanStatusUnknown SpanStatus = "unknown_error"
	// SpanStatusInvalidArgument means the caller supplied an invalid argument.
	SpanStatusInvalidArgument SpanStatus = "invalid_argument"
	// SpanStatusDeadlineExceeded means the operation timed out.
	SpanStatusDeadlineExceeded SpanStatus = "deadline_exceeded"
	// SpanStatusNotFound means a requested entity was not found.
	SpanStatusNotFound SpanStatus = "not_found"
	// SpanStatusAlreadyExists means an entity the operation tried to create already exists.
	SpanStatusAlreadyExists SpanStatus = "already_exists"
	// SpanStatusPermissionDenied means the caller lacks permission.
	SpanStatusPermissionDenied SpanStatus = "permission_denied"
	// SpanStatusResourceExhausted means a resource quota was exhausted.
	SpanStatusResourceExhausted SpanStatus = "resource_exhausted"
	// SpanStatusFailedPrecondition means the system is not in a state required for the operation.
	SpanStatusFailedPrecondition SpanStatus = "failed_precondition"
	// SpanStatusAborted means the operation was aborted, typically due to a conflict.
	SpanStatusAborted SpanStatus = "aborted"
	// SpanStatusOutOfRange means the operation ran past a valid range.
	SpanStatusOutOfRange SpanStatus = "out_of_range"
	// SpanStatusUnimplemented means the operation is not implemented.
	SpanStatusUnimplemented SpanStatus = "unimplemented"
	// SpanStatusInternalError means an internal error occurred.
	SpanStatusInternalError SpanStatus = "internal_error"
	// SpanStatusUnavailable means the service was unavailable.
	SpanStatusUnavailable SpanStatus = "unavailable"
	// SpanStatusDataLoss means unrecoverable data loss or corruption occurred.
	SpanStatusDataLoss SpanStatus = "data_loss"
	// SpanStatusUnauthenticated means the caller was not authenticated.
	SpanStatusUnauthenticated SpanStatus = "unauthenticated"
)

// SpanStatusFromHTTP maps an HTTP response status code to a span status.
func SpanStatusFromHTTP(code int) SpanStatus {
	switch {
	case code >= 200 && code < 400:
		return SpanStatusOK
	case code == 400:
		return SpanStatusInvalidArgument
	case code == 401:
		return SpanStatusUnauthenticated
	case code == 403:
		return SpanStatusPermissionDenied
	case code == 404:
		return SpanStatusNotFound
	case code == 409:
		return SpanStatusAlreadyExists
	case code == 429:
		return SpanStatusResourceExhausted
	case code == 499:
		return SpanStatusCancelled
	case code == 501:
		return SpanStatusUnimplemented
	case code == 503:
		return SpanStatusUnavailable
	case code == 504:
		return SpanStatusDeadlineExceeded
	case code >= 500 && code < 600:
		return SpanStatusInternalError
	default:
		return SpanStatusUnknown
	}
}

// Sampled is the tri-state sampling decision attached to a span context:
// undefined (not yet decided), true, or false.
type Sampled int8

const (
	// SampledFalse means the trace was decided against full-fidelity reporting.
	SampledFalse Sampled = -1
	// SampledUndefined means no sampling decision has been made yet.
	SampledUndefined Sampled = 0
	// SampledTrue means the trace was selected for full-fidelity reporting.
	SampledTrue Sampled = 1
)

// Bool returns true only for SampledTrue.
func (s Sampled) Bool() bool {
	return s == SampledTrue
}

// Defined reports whether a decision has been made.
func (s Sampled) Defined() bool {
	return s != SampledUndefined
}

// String returns "true", "false" or "undefined".
func (s Sampled) String() string {
	switch s {
	case SampledTrue:
		return "true"
	case SampledFalse:
		return "false"
	default:
		return "undefined"
	}
}
