package generative

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to another Translator.
type Limited struct {
	next    Translator
	limiter *rate.Limiter
}

// WithRateLimit wraps next so that at most rps calls per second are made.
// A non-positive rps returns next unchanged.
func WithRateLimit(next Translator, rps float64, burst int) Translator {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Name() string { return l.next.Name() }

// Translate waits for a token before delegating.
func (l *Limited) Translate(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generative rate limit: %w", err)
	}
	return l.next.Translate(ctx, req)
}
