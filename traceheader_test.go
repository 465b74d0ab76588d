package sentry

import (
	"errors"
	"testing"
)

func TestParseTraceHeaderWithSampledFlag(t *testing.T) {
	header, err := ParseTraceHeader("771a43a4192642f0b136d5159a501700-1000000000000000-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if header.TraceID.String() != "771a43a4192642f0b136d5159a501700" {
		t.Errorf("Expected trace ID 771a43a4192642f0b136d5159a501700, got %s", header.TraceID)
	}
	if header.SpanID.String() != "1000000000000000" {
		t.Errorf("Expected span ID 1000000000000000, got %s", header.SpanID)
	}
	if header.Sampled != SampledTrue {
		t.Errorf("Expected SampledTrue, got %s", header.Sampled)
	}
}

func TestParseTraceHeaderUnsampled(t *testing.T) {
	header, err := ParseTraceHeader("771a43a4192642f0b136d5159a501700-1000000000000000-0")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if header.Sampled != SampledFalse {
		t.Errorf("Expected SampledFalse, got %s", header.Sampled)
	}
}

func TestParseTraceHeaderWithoutFlag(t *testing.T) {
	header, err := ParseTraceHeader("771a43a4192642f0b136d5159a501700-1000000000000000")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if header.Sampled != SampledUndefined {
		t.Errorf("Expected SampledUndefined, got %s", header.Sampled)
	}
}

func TestParseTraceHeaderMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"garbage", "bad-header"},
		{"empty", ""},
		{"one segment", "771a43a4192642f0b136d5159a501700"},
		{"four segments", "771a43a4192642f0b136d5159a501700-1000000000000000-1-1"},
		{"bad trace id", "xxxa43a4192642f0b136d5159a501700-1000000000000000"},
		{"bad span id", "771a43a4192642f0b136d5159a501700-100000000000000g"},
		{"short trace id", "771a43a4-1000000000000000-1"},
		{"bad sampled flag", "771a43a4192642f0b136d5159a501700-1000000000000000-2"},
		{"word sampled flag", "771a43a4192642f0b136d5159a501700-1000000000000000-true"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTraceHeader(tc.input); !errors.Is(err, ErrMalformedTraceHeader) {
				t.Errorf("Expected ErrMalformedTraceHeader for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestParseTraceHeaderIdentifierErrorsWrapped(t *testing.T) {
	_, err := ParseTraceHeader("nothex0192642f0b136d5159a501700x-1000000000000000")
	if !errors.Is(err, ErrMalformedTraceHeader) {
		t.Errorf("Expected ErrMalformedTraceHeader, got %v", err)
	}
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("Expected wrapped ErrInvalidIdentifier, got %v", err)
	}
}

// TestTraceHeaderRoundTrip checks the round-trip law: decode(encode(h))
// reproduces trace ID, span ID and sampling decision exactly.
func TestTraceHeaderRoundTrip(t *testing.T) {
	for _, sampled := range []Sampled{SampledTrue, SampledFalse, SampledUndefined} {
		header := TraceHeader{
			TraceID: NewTraceID(),
			SpanID:  NewSpanID(),
			Sampled: sampled,
		}

		decoded, err := ParseTraceHeader(header.String())
		if err != nil {
			t.Fatalf("Unexpected error decoding %q: %v", header.String(), err)
		}
		if decoded != header {
			t.Errorf("Round trip mismatch for sampled=%s: %+v != %+v", sampled, decoded, header)
		}
	}
}

func TestTraceHeaderStringOmitsUndefinedFlag(t *testing.T) {
	header := TraceHeader{TraceID: NewTraceID(), SpanID: NewSpanID()}

	encoded := header.String()
	if len(encoded) != 32+1+16 {
		t.Errorf("Expected 2-segment header without flag, got %q", encoded)
	}

	sampled := TraceHeader{TraceID: header.TraceID, SpanID: header.SpanID, Sampled: SampledTrue}
	if len(sampled.String()) != 32+1+16+2 {
		t.Errorf("Expected 3-segment header with flag, got %q", sampled.String())
	}
}

func TestSpanContextTraceHeader(t *testing.T) {
	sc := SpanContext{
		TraceID: NewTraceID(),
		SpanID:  NewSpanID(),
		Op:      "http.client",
		Sampled: SampledTrue,
	}

	header := sc.TraceHeader()
	if header.TraceID != sc.TraceID || header.SpanID != sc.SpanID || header.Sampled != SampledTrue {
		t.Errorf("Header does not match span context: %+v", header)
	}
}
