package service

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ProviderLimiter rate-limits outbound provider calls, one token bucket per
// provider name, so a burst of pipeline work cannot trip upstream quotas.
type ProviderLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewProviderLimiter creates a limiter factory with a shared per-provider rate.
func NewProviderLimiter(rps float64, burst int) *ProviderLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until the named provider's bucket grants a token or the context
// is cancelled.
func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	p.mu.Lock()
	limiter, ok := p.limiters[provider]
	if !ok {
		limiter = rate.NewLimiter(p.rps, p.burst)
		p.limiters[provider] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}
