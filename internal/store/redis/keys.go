package redis

const (
	// KeyPrefixHits prefixes per-identifier forward counters.
	KeyPrefixHits = "relay:hits:"
	// KeyRegistrations counts successful registrations.
	KeyRegistrations = "relay:stats:registrations"
	// KeyForwards counts successful forwards across all identifiers.
	KeyForwards = "relay:stats:forwards"
)

// HitsKey returns the counter key for an identifier.
func HitsKey(id string) string {
	return KeyPrefixHits + id
}
