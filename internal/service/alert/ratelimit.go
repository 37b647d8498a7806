package alert

import (
	"sync"
	"time"
)

// rateLimiter tracks per (type, subject) alert counts for the current UTC
// day. Counters live in process memory only; a restart resets them, which at
// worst widens a single day's budget. All mutation happens inside the
// single-flighted scan, the mutex guards against a concurrent Resolve path
// reading counters in future extensions.
type rateLimiter struct {
	mu     sync.Mutex
	day    time.Time
	counts map[string]int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{counts: make(map[string]int)}
}

// Allow reserves one emission slot for the key. Once maxPerDay slots are
// consumed within the current UTC day, further candidates are dropped until
// the next UTC midnight. maxPerDay <= 0 means unlimited.
func (l *rateLimiter) Allow(key string, maxPerDay int, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(l.day) {
		l.day = day
		l.counts = make(map[string]int)
	}

	if maxPerDay > 0 && l.counts[key] >= maxPerDay {
		return false
	}
	l.counts[key]++
	return true
}
