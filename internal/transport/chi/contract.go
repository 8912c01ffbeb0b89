package chi

import (
	"context"

	"github.com/urpick/urpick/internal/domain"
	healthuc "github.com/urpick/urpick/internal/usecase/health"
	profileuc "github.com/urpick/urpick/internal/usecase/profile"
	recommenduc "github.com/urpick/urpick/internal/usecase/recommend"
)

// Recommender produces ranked product recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Result, error)
}

// ProfileService manages users, swipes, and preferences.
type ProfileService interface {
	CreateUser(ctx context.Context) (domain.User, error)
	GetUser(ctx context.Context, userID string) (profileuc.Profile, error)
	RecordSwipe(ctx context.Context, swipe domain.Swipe) error
	ListSwipes(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error)
	UpdatePreferences(ctx context.Context, userID string, update profileuc.PreferenceUpdate) (*domain.PreferenceProfile, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
