package recommend

import (
	"context"
	"fmt"

	"github.com/urpick/urpick/internal/domain"
)

// --- mocks for the engine's collaborators ---

type mockAggregator struct {
	searchAllFn func(ctx context.Context, params domain.SearchParams) (domain.AggregatedResult, error)
}

func (m *mockAggregator) SearchAll(ctx context.Context, params domain.SearchParams) (domain.AggregatedResult, error) {
	if m.searchAllFn != nil {
		return m.searchAllFn(ctx, params)
	}
	return domain.AggregatedResult{Products: []domain.Product{}, Sources: map[domain.Source]int{}}, nil
}

type mockReasoner struct {
	completeFn func(ctx context.Context, prompt, systemPrompt string, opts domain.CompletionOptions) (string, error)
	calls      int
}

func (m *mockReasoner) Complete(ctx context.Context, prompt, systemPrompt string, opts domain.CompletionOptions) (string, error) {
	m.calls++
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt, systemPrompt, opts)
	}
	return "", domain.ErrReasoningFailure
}

type mockHistory struct {
	countFn func(ctx context.Context, userID string) (int, error)
	likedFn func(ctx context.Context, userID string, limit int) ([]domain.LikedProduct, error)
}

func (m *mockHistory) CountByUser(ctx context.Context, userID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockHistory) RecentLiked(ctx context.Context, userID string, limit int) ([]domain.LikedProduct, error) {
	if m.likedFn != nil {
		return m.likedFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockPrefs struct {
	getFn func(ctx context.Context, userID string) (*domain.PreferenceProfile, error)
}

func (m *mockPrefs) Get(ctx context.Context, userID string) (*domain.PreferenceProfile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

// newTestService wires an engine over fresh mocks.
func newTestService() (*Service, *mockAggregator, *mockReasoner, *mockHistory, *mockPrefs) {
	agg := &mockAggregator{}
	reasoner := &mockReasoner{}
	history := &mockHistory{}
	prefs := &mockPrefs{}
	return New(agg, reasoner, history, prefs), agg, reasoner, history, prefs
}

// catalog builds n distinct products with descending ratings, so the
// deterministic ranking returns them in generation order.
func catalog(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			ID:          fmt.Sprintf("rakuten_%d", i),
			Name:        fmt.Sprintf("Product %d", i),
			Description: "a product",
			Price:       1000 * (i + 1),
			Source:      domain.SourceRakuten,
			Rating:      5 - float64(i)*0.1,
			ReviewCount: 100,
		}
	}
	return products
}

func aggregateOf(products []domain.Product) domain.AggregatedResult {
	return domain.AggregatedResult{
		Products:   products,
		TotalCount: len(products),
		Sources:    map[domain.Source]int{domain.SourceRakuten: len(products)},
	}
}
