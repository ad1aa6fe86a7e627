// Package expiry decides whether timestamped records have outlived the
// retention window. Everything here is pure.
package expiry

import "time"

const (
	// TTL is the retention window shared by active notes (measured from
	// CreatedAt) and trashed notes (measured from DeletedAt).
	TTL = time.Hour

	// SweepInterval is how often the engine re-applies the policy.
	SweepInterval = time.Minute
)

// IsExpired reports whether now-stamp has reached ttl.
func IsExpired(stamp, now time.Time, ttl time.Duration) bool {
	return now.Sub(stamp) >= ttl
}

// FilterLive returns the items whose stamp has not expired, preserving their
// relative order. The input slice is not modified.
func FilterLive[T any](items []T, stamp func(T) time.Time, now time.Time, ttl time.Duration) []T {
	live := make([]T, 0, len(items))
	for _, it := range items {
		if !IsExpired(stamp(it), now, ttl) {
			live = append(live, it)
		}
	}
	return live
}
