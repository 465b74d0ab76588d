package sentry

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// ErrInvalidIdentifier is returned when a trace or span identifier string
// has the wrong length or contains non-hex characters.
var ErrInvalidIdentifier = errors.New("sentry: invalid identifier format")

// TraceID identifies an entire distributed trace. It is shared by a
// transaction and all of its remote continuations.
// The canonical string form is 32 lowercase hex characters.
type TraceID [16]byte

// SpanID identifies a single span within a trace.
// The canonical string form is 16 lowercase hex characters.
type SpanID [8]byte

// EventID is the unique identifier of a captured event: 32 lowercase hex
// characters (a uuid4 without dashes).
type EventID string

// fallbackSeq disambiguates time-based fallback IDs generated in the same
// nanosecond.
var fallbackSeq atomic.Uint64

// NewTraceID returns a random trace ID. Randomness only needs to provide
// uniqueness, not secrecy; if crypto/rand fails the ID falls back to a
// time-plus-counter value.
func NewTraceID() TraceID {
	return newTraceID(clockz.RealClock)
}

func newTraceID(clock clockz.Clock) TraceID {
	var id TraceID
	if _, err := rand.Read(id[:]); err != nil {
		binary.BigEndian.PutUint64(id[:8], uint64(clock.Now().UnixNano()))
		binary.BigEndian.PutUint64(id[8:], fallbackSeq.Add(1))
	}
	return id
}

// NewSpanID returns a random span ID. Uniqueness is only required within
// one trace; collisions across traces are a caller error, not validated.
func NewSpanID() SpanID {
	return newSpanID(clockz.RealClock)
}

func newSpanID(clock clockz.Clock) SpanID {
	var id SpanID
	if _, err := rand.Read(id[:]); err != nil {
		binary.BigEndian.PutUint64(id[:], uint64(clock.Now().UnixNano())+fallbackSeq.Add(1))
	}
	return id
}

// NewEventID returns a random event ID (uuid4, rendered as 32 hex
// characters without dashes).
func NewEventID() EventID {
	id := uuid.New()
	return EventID(hex.EncodeToString(id[:]))
}

// ParseTraceID parses the canonical 32-character lowercase hex form.
// Round-trips exactly with String.
func ParseTraceID(s string) (TraceID, error) {
	var id TraceID
	if err := parseHexID(s, id[:]); err != nil {
		return TraceID{}, err
	}
	return id, nil
}

// ParseSpanID parses the canonical 16-character lowercase hex form.
// Round-trips exactly with String.
func ParseSpanID(s string) (SpanID, error) {
	var id SpanID
	if err := parseHexID(s, id[:]); err != nil {
		return SpanID{}, err
	}
	return id, nil
}

// parseHexID decodes s into dst, enforcing the canonical form: exactly
// len(dst)*2 characters, all of them lowercase hex digits.
func parseHexID(s string, dst []byte) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidIdentifier, hex.EncodedLen(len(dst)), len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: non-hex character %q at position %d", ErrInvalidIdentifier, c, i)
		}
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return nil
}

// String returns the canonical lowercase hex form.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsZero reports whether the ID is the all-zero value, meaning "absent".
func (t TraceID) IsZero() bool {
	return t == TraceID{}
}

// MarshalText implements encoding.TextMarshaler.
func (t TraceID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TraceID) UnmarshalText(text []byte) error {
	id, err := ParseTraceID(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

// String returns the canonical lowercase hex form.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// IsZero reports whether the ID is the all-zero value, meaning "absent".
func (s SpanID) IsZero() bool {
	return s == SpanID{}
}

// MarshalText implements encoding.TextMarshaler.
func (s SpanID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SpanID) UnmarshalText(text []byte) error {
	id, err := ParseSpanID(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}
