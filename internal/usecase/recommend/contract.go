package recommend

import (
	"context"

	"github.com/urpick/urpick/internal/domain"
)

// Aggregator runs the provider fan-out and merge.
type Aggregator interface {
	SearchAll(ctx context.Context, params domain.SearchParams) (domain.AggregatedResult, error)
}

// Reasoner is the external text-completion capability used for candidate
// selection and per-product justifications.
type Reasoner interface {
	Complete(ctx context.Context, prompt, systemPrompt string, opts domain.CompletionOptions) (string, error)
}

// InteractionHistory reads a user's recorded swipes.
type InteractionHistory interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	RecentLiked(ctx context.Context, userID string, limit int) ([]domain.LikedProduct, error)
}

// PreferenceStore reads a user's stored preferences. An absent profile is
// (nil, nil), not an error.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (*domain.PreferenceProfile, error)
}
