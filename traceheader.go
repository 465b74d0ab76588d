package sentry

import (
	"errors"
	"fmt"
	"strings"
)

// TraceHeaderName is the conventional name of the propagation header.
const TraceHeaderName = "sentry-trace"

// ErrMalformedTraceHeader is returned when a propagation header value does
// not match the "<traceId>-<spanId>[-<sampledFlag>]" grammar.
var ErrMalformedTraceHeader = errors.New("sentry: malformed trace header")

// TraceHeader is the decoded form of the propagation header that links a
// transaction to its caller's trace. SpanID is the caller's span, which
// becomes the continued transaction's parent span ID.
type TraceHeader struct {
	TraceID TraceID
	SpanID  SpanID
	Sampled Sampled
}

// ParseTraceHeader decodes a header value of the form
// "<32-hex traceId>-<16-hex spanId>[-<0|1>]". The third segment is the
// upstream sampling decision; when absent, Sampled is SampledUndefined.
func ParseTraceHeader(value string) (TraceHeader, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 && len(parts) != 3 {
		return TraceHeader{}, fmt.Errorf("%w: expected 2 or 3 segments, got %d", ErrMalformedTraceHeader, len(parts))
	}

	traceID, err := ParseTraceID(parts[0])
	if err != nil {
		return TraceHeader{}, fmt.Errorf("%w: trace id: %w", ErrMalformedTraceHeader, err)
	}
	spanID, err := ParseSpanID(parts[1])
	if err != nil {
		return TraceHeader{}, fmt.Errorf("%w: span id: %w", ErrMalformedTraceHeader, err)
	}

	header := TraceHeader{TraceID: traceID, SpanID: spanID}
	if len(parts) == 3 {
		switch parts[2] {
		case "1":
			header.Sampled = SampledTrue
		case "0":
			header.Sampled = SampledFalse
		default:
			return TraceHeader{}, fmt.Errorf("%w: sampled flag must be 0 or 1, got %q", ErrMalformedTraceHeader, parts[2])
		}
	}
	return header, nil
}

// String encodes the header value. The sampled segment is omitted when the
// decision is undefined, so ParseTraceHeader(h.String()) reproduces h
// exactly.
func (h TraceHeader) String() string {
	var b strings.Builder
	b.Grow(len(h.TraceID)*2 + len(h.SpanID)*2 + 4)
	b.WriteString(h.TraceID.String())
	b.WriteByte('-')
	b.WriteString(h.SpanID.String())
	switch h.Sampled {
	case SampledTrue:
		b.WriteString("-1")
	case SampledFalse:
		b.WriteString("-0")
	case SampledUndefined:
		// No third segment: the downstream service decides for itself.
	}
	return b.String()
}
