package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urpick/urpick/internal/domain"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := fastRetry().Do(context.Background(), domain.SourceRakuten,
		func(_ context.Context) (domain.SearchResult, error) {
			calls++
			return resultOf(domain.SourceRakuten), nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if result.Source != domain.SourceRakuten {
		t.Errorf("unexpected source: %s", result.Source)
	}
}

func TestRetry_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	_, err := fastRetry().Do(context.Background(), domain.SourceYahoo,
		func(_ context.Context) (domain.SearchResult, error) {
			calls++
			if calls < 3 {
				return domain.SearchResult{}, &domain.ProviderError{
					Source: domain.SourceYahoo, StatusCode: 503, Err: errors.New("overloaded"),
				}
			}
			return resultOf(domain.SourceYahoo), nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_Exhaustion(t *testing.T) {
	policy := fastRetry()
	calls := 0
	_, err := policy.Do(context.Background(), domain.SourceRakuten,
		func(_ context.Context) (domain.SearchResult, error) {
			calls++
			return domain.SearchResult{}, errors.New("connection refused")
		})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if calls != policy.MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", policy.MaxRetries+1, calls)
	}

	var unavail *domain.SourceUnavailableError
	if !errors.As(err, &unavail) {
		t.Fatal("expected SourceUnavailableError")
	}
	if unavail.Attempts != policy.MaxRetries+1 {
		t.Errorf("expected %d attempts recorded, got %d", policy.MaxRetries+1, unavail.Attempts)
	}
}

func TestRetry_ClientErrorAbortsImmediately(t *testing.T) {
	calls := 0
	_, err := fastRetry().Do(context.Background(), domain.SourceYahoo,
		func(_ context.Context) (domain.SearchResult, error) {
			calls++
			return domain.SearchResult{}, &domain.ProviderError{
				Source: domain.SourceYahoo, StatusCode: 400, Err: errors.New("bad query"),
			}
		})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("4xx should not be retried, got %d calls", calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Hour, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := policy.Do(ctx, domain.SourceRakuten,
		func(_ context.Context) (domain.SearchResult, error) {
			calls++
			return domain.SearchResult{}, errors.New("down")
		})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("cancellation should stop further attempts, got %d calls", calls)
	}
}
