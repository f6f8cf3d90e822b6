package llm

import (
	"context"

	"github.com/ppiankov/infodemic/internal/worker"
)

type rateLimited struct {
	Provider
	limiter *worker.Limiter
}

// RateLimited wraps a provider so every completion first waits for the
// limiter bucket named after the provider.
func RateLimited(p Provider, limiter *worker.Limiter) Provider {
	if limiter == nil {
		return p
	}
	return &rateLimited{Provider: p, limiter: limiter}
}

func (r *rateLimited) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx, r.Name()); err != nil {
		return nil, err
	}
	return r.Provider.Complete(ctx, req)
}
