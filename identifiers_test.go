package sentry

import (
	"errors"
	"strings"
	"testing"
)

func TestTraceIDRoundTrip(t *testing.T) {
	id := NewTraceID()

	encoded := id.String()
	if len(encoded) != 32 {
		t.Fatalf("Expected 32-character trace ID, got %d: %s", len(encoded), encoded)
	}
	if encoded != strings.ToLower(encoded) {
		t.Errorf("Expected lowercase trace ID, got %s", encoded)
	}

	parsed, err := ParseTraceID(encoded)
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}
	if parsed != id {
		t.Errorf("Round trip mismatch: %s != %s", parsed, id)
	}
}

func TestSpanIDRoundTrip(t *testing.T) {
	id := NewSpanID()

	encoded := id.String()
	if len(encoded) != 16 {
		t.Fatalf("Expected 16-character span ID, got %d: %s", len(encoded), encoded)
	}

	parsed, err := ParseSpanID(encoded)
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}
	if parsed != id {
		t.Errorf("Round trip mismatch: %s != %s", parsed, id)
	}
}

func TestParseTraceIDInvalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "771a43a4192642f0"},
		{"too long", "771a43a4192642f0b136d5159a501700ff"},
		{"non-hex", "zz1a43a4192642f0b136d5159a501700"},
		{"uppercase", "771A43A4192642F0B136D5159A501700"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTraceID(tc.input); !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Expected ErrInvalidIdentifier for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestParseSpanIDInvalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "1000"},
		{"too long", "10000000000000001"},
		{"non-hex", "100000000000000g"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSpanID(tc.input); !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Expected ErrInvalidIdentifier for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestNewTraceIDUniqueness(t *testing.T) {
	seen := make(map[TraceID]bool)
	for i := 0; i < 1000; i++ {
		id := NewTraceID()
		if id.IsZero() {
			t.Fatal("Generated a zero trace ID")
		}
		if seen[id] {
			t.Fatalf("Duplicate trace ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNewEventIDFormat(t *testing.T) {
	id := NewEventID()
	if len(id) != 32 {
		t.Fatalf("Expected 32-character event ID, got %d: %s", len(id), id)
	}
	if strings.Contains(string(id), "-") {
		t.Errorf("Event ID must not contain dashes: %s", id)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Errorf("Non-hex character %q in event ID %s", c, id)
		}
	}
}

func TestTraceIDTextMarshaling(t *testing.T) {
	id, err := ParseTraceID("771a43a4192642f0b136d5159a501700")
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("Unexpected marshal error: %v", err)
	}
	if string(text) != "771a43a4192642f0b136d5159a501700" {
		t.Errorf("Unexpected marshaled text: %s", text)
	}

	var decoded TraceID
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("Unexpected unmarshal error: %v", err)
	}
	if decoded != id {
		t.Errorf("Text round trip mismatch: %s != %s", decoded, id)
	}
}

func TestSpanIDTextMarshaling(t *testing.T) {
	id, err := ParseSpanID("1000000000000000")
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	var decoded SpanID
	text, _ := id.MarshalText()
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("Unexpected unmarshal error: %v", err)
	}
	if decoded != id {
		t.Errorf("Text round trip mismatch: %s != %s", decoded, id)
	}
}
