package metadata

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing provider requests
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond requests with the given burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Wait blocks until it's safe to make another request or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
