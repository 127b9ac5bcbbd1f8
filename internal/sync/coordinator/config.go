package coordinator

import (
	"math/rand/v2"
	"time"
)

// pollingInterval returns base with a random jitter of up to a quarter of
// base in either direction, so that instances do not poll in lockstep
func pollingInterval(base time.Duration) time.Duration {
	jitter := base / 4
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return base + offset
}
