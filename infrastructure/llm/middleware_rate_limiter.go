package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kidtalk/tutorbench/internal/domain"
)

// rateLimitedLLM paces requests with a token bucket so a parallel benchmark
// run stays inside provider rate limits.
type rateLimitedLLM struct {
	next    CoreLLM
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a requests-per-second
// limit with a token bucket. Burst allows short spikes above the sustained
// rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{
			next:    next,
			limiter: limiter,
		}
	}
}

// DoChat blocks until a token is available, then forwards the request.
func (r *rateLimitedLLM) DoChat(ctx context.Context, req domain.ChatRequest) (ChatResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ChatResult{}, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoChat(ctx, req)
}

// GetModel returns the model name from the wrapped implementation.
func (r *rateLimitedLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *rateLimitedLLM) SetModel(m string) { r.next.SetModel(m) }
