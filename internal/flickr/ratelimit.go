package flickr

import (
	"context"
	"sync"
	"time"
)

// rateLimiter allows at most requestsPerMinute calls in any sliding minute
type rateLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	requests          []time.Time
	now               func() time.Time
}

func newRateLimiter(rpm int) *rateLimiter {
	return &rateLimiter{
		requestsPerMinute: rpm,
		requests:          make([]time.Time, 0, max(rpm, 0)),
		now:               time.Now,
	}
}

// wait blocks until a request slot is free or ctx is done
func (rl *rateLimiter) wait(ctx context.Context) error {
	if rl == nil || rl.requestsPerMinute <= 0 {
		return nil
	}

	for {
		delay := rl.reserve()
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a request and returns 0, or returns how long to wait
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	// Drop requests older than one minute
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(rl.requests) && !rl.requests[i].After(cutoff) {
		i++
	}
	rl.requests = rl.requests[i:]

	if len(rl.requests) >= rl.requestsPerMinute {
		return rl.requests[0].Add(time.Minute).Sub(now)
	}

	rl.requests = append(rl.requests, now)
	return 0
}
