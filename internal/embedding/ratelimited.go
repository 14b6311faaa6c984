package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Embedding with a token-bucket limiter so bulk
// ingestion stays inside the provider's request quota.
type RateLimited struct {
	inner   Embedding
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited embedding client allowing rps
// requests per second with the given burst.
func NewRateLimited(inner Embedding, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for the limiter, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}

// EmbedBatch waits for the limiter once per batch, then delegates.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedBatch(ctx, texts)
}

var _ Embedding = (*RateLimited)(nil)
