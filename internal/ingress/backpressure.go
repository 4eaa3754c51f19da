package ingress

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Backpressure bounds the number of /sendLocation requests admitted
// concurrently. Past the high-water mark, Admit rejects immediately
// with a retryable error rather than queuing. Admit also rejects when
// the token-bucket limiter underneath the hard ceiling has no token
// left, so a burst faster than its refill rate is turned away too.
type Backpressure struct {
	highWaterMark int64
	inFlight      int64
	limiter       *rate.Limiter
}

// NewBackpressure builds a gauge admitting at most highWaterMark
// concurrent requests, each also drawing from a token bucket refilling
// at ratePerSecond with the given burst.
func NewBackpressure(highWaterMark int, ratePerSecond float64, burst int) *Backpressure {
	if highWaterMark <= 0 {
		highWaterMark = 500
	}
	if ratePerSecond <= 0 {
		ratePerSecond = float64(highWaterMark)
	}
	if burst <= 0 {
		burst = highWaterMark
	}
	return &Backpressure{
		highWaterMark: int64(highWaterMark),
		limiter:       rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Admit reserves a slot for one in-flight request. The caller must call
// the returned release func exactly once, regardless of outcome.
func (b *Backpressure) Admit() (release func(), ok bool) {
	if atomic.AddInt64(&b.inFlight, 1) > b.highWaterMark || !b.limiter.Allow() {
		atomic.AddInt64(&b.inFlight, -1)
		return nil, false
	}
	return func() { atomic.AddInt64(&b.inFlight, -1) }, true
}

// InFlight reports the current number of admitted, not-yet-released
// requests, for the data-stats endpoint.
func (b *Backpressure) InFlight() int64 {
	return atomic.LoadInt64(&b.inFlight)
}
