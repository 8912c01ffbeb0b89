package aggregate

import (
	"context"

	"github.com/urpick/urpick/internal/domain"
)

// SourceClient is a single shopping provider adapter.
type SourceClient interface {
	// Name returns the provider tag used in product ids and logs.
	Name() domain.Source

	// Search runs one product search against the provider. Results are
	// normalized into the canonical Product shape.
	Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error)

	// IsAvailable reports whether the provider can serve requests.
	// It never returns an error: internal failures read as unavailable.
	IsAvailable(ctx context.Context) bool
}
