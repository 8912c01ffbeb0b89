package aggregate

import (
	"context"
	"time"

	"github.com/urpick/urpick/internal/domain"
)

// mockClient implements SourceClient for tests.
type mockClient struct {
	name        domain.Source
	searchFn    func(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error)
	availableFn func(ctx context.Context) bool
}

func (m *mockClient) Name() domain.Source { return m.name }

func (m *mockClient) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, params)
	}
	return domain.SearchResult{Source: m.name}, nil
}

func (m *mockClient) IsAvailable(ctx context.Context) bool {
	if m.availableFn != nil {
		return m.availableFn(ctx)
	}
	return true
}

// fastRetry keeps test runs short.
func fastRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 2}
}

func mustParams(query string, maxResults int) domain.SearchParams {
	params, err := domain.NewSearchParams(query, maxResults, 0, 0, domain.SortRelevance)
	if err != nil {
		panic(err)
	}
	return params
}

func resultOf(source domain.Source, products ...domain.Product) domain.SearchResult {
	return domain.SearchResult{Products: products, TotalCount: len(products), Source: source}
}
