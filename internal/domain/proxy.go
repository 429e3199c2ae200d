package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProxyEntry is a single registration: an opaque identifier pointing at a
// target URL until ExpiresAt.
//
// Entries are plain values. The store hands out copies, never pointers into
// its own map.
type ProxyEntry struct {
	// ID is a random (v4) UUID generated at registration. It is the only
	// public handle to the entry.
	ID uuid.UUID

	// Target is the absolute URL supplied by the registrant.
	// It is opaque to the store; the outbound HTTP client is the only judge
	// of whether it is usable.
	Target string

	// ExpiresAt is registration time + TTL.
	ExpiresAt time.Time
}

// Live reports whether the entry is still resolvable at now.
// An entry expiring exactly at now is already gone.
func (e ProxyEntry) Live(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Remaining returns how long the entry stays resolvable after now
// (zero once expired).
func (e ProxyEntry) Remaining(now time.Time) time.Duration {
	if !e.Live(now) {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// TTLBounds is the inclusive range of accepted registration TTLs.
type TTLBounds struct {
	Min time.Duration
	Max time.Duration
}

// Validate checks a caller-supplied TTL expressed in whole seconds.
// Comparison is done in seconds so huge values can't overflow a Duration.
func (b TTLBounds) Validate(seconds uint64) (time.Duration, error) {
	lo := uint64(b.Min / time.Second)
	hi := uint64(b.Max / time.Second)
	if seconds < lo || seconds > hi {
		return 0, BadRequest(fmt.Sprintf("ttl should be between %d and %d", lo, hi))
	}
	return time.Duration(seconds) * time.Second, nil
}

// NewID returns a fresh random identifier.
func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID parses the path form of an identifier.
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
