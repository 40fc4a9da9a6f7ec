package llm

import (
	"context"

	"github.com/aretw0/gleaner/pkg/ports"
	"golang.org/x/time/rate"
)

// RateLimited wraps any ChatModel with a request-per-second budget, so
// pipelines with refinement loops cannot hammer a provider. It blocks until
// a token is available or the context is done; the per-step timeout still
// bounds the total wait.
type RateLimited struct {
	inner   ports.ChatModel
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited view of inner allowing rps requests
// per second with the given burst.
func NewRateLimited(inner ports.ChatModel, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Complete waits for the limiter before delegating to the wrapped model.
func (c *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.inner.Complete(ctx, prompt)
}
