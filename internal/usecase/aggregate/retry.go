package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/urpick/urpick/internal/domain"
)

// RetryPolicy retries a provider call with exponential backoff.
// A call failing with a client-class HTTP status aborts immediately;
// exhausting the retries yields a SourceUnavailableError.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the provider retry defaults: 3 retries,
// 1s initial delay, doubling per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, Multiplier: 2}
}

// Do runs fn up to MaxRetries+1 times, sleeping InitialDelay·Multiplierᵏ
// between attempts. Context cancellation cuts the wait short.
func (r RetryPolicy) Do(
	ctx context.Context, source domain.Source,
	fn func(ctx context.Context) (domain.SearchResult, error),
) (domain.SearchResult, error) {
	var lastErr error
	delay := r.InitialDelay

	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.SearchResult{}, domain.NewSourceUnavailable(source, attempt, ctx.Err())
			}
			delay = time.Duration(float64(delay) * r.Multiplier)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var provErr *domain.ProviderError
		if errors.As(err, &provErr) && !provErr.Temporary() {
			// Caller error, retrying cannot help.
			return domain.SearchResult{}, domain.NewSourceUnavailable(source, attempt+1, err)
		}
	}

	return domain.SearchResult{}, domain.NewSourceUnavailable(source, r.MaxRetries+1, lastErr)
}
