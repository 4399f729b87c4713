package cacheengine

import "time"

// entry is the value stored at each recency-list element.
//
// expiresAt is the zero time.Time when the entry has no TTL ("never"
// expires); hasExpiry distinguishes that from an entry whose deadline
// happens to land on the zero instant, which cannot actually occur with
// time.Now()-derived deadlines but is kept explicit rather than relying on
// IsZero for correctness.
type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	hasExpiry bool
}

func (e *entry) expired(now time.Time) bool {
	return e.hasExpiry && !e.expiresAt.After(now)
}

func cloneValue(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
