// Package id issues the identifiers the driver hands out.
//
// Session and element ids are random UUIDs: WebDriver clients treat them as
// opaque and echo them back. Request and span ids are prefixed ULIDs drawn
// from a monotonic source, so they sort by issue order in the logs.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionID identifies an automation session.
type SessionID string

// ElementID identifies an element handle within one session.
type ElementID string

// RequestID identifies an API request or trace span.
type RequestID string

const (
	RequestPrefix = "req"
	SpanPrefix    = "span"
)

func (s SessionID) String() string { return string(s) }
func (e ElementID) String() string { return string(e) }
func (r RequestID) String() string { return string(r) }

// NewSessionID returns a fresh session id.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// NewElementID returns a fresh element id.
func NewElementID() ElementID {
	return ElementID(uuid.NewString())
}

// IsUUID reports whether s is a UUID in any form uuid.Parse accepts.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// sequence hands out strictly increasing ULIDs. MonotonicEntropy is not
// safe for concurrent use, hence the mutex.
type sequence struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func newSequence(r io.Reader, now func() time.Time) *sequence {
	return &sequence{entropy: ulid.Monotonic(r, 0), now: now}
}

func (s *sequence) next() ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy)
}

var requests = newSequence(rand.Reader, time.Now)

// NewRequestID returns a request id of the form req_<ulid>.
func NewRequestID() RequestID {
	return RequestID(RequestPrefix + "_" + requests.next().String())
}

// NewSpanID returns a span id of the form span_<ulid>.
func NewSpanID() RequestID {
	return RequestID(SpanPrefix + "_" + requests.next().String())
}

// IssuedAt extracts the issue time of a request or span id. It reports
// false for ids this package did not produce.
func IssuedAt(r RequestID) (time.Time, bool) {
	_, raw, ok := strings.Cut(string(r), "_")
	if !ok {
		return time.Time{}, false
	}
	parsed, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}
