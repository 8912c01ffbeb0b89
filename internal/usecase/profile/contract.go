package profile

import (
	"context"
	"time"

	"github.com/urpick/urpick/internal/domain"
)

// Users is the user record store.
type Users interface {
	Create(ctx context.Context, u domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Exists(ctx context.Context, id string) (bool, error)
}

// Swipes is the swipe history store.
type Swipes interface {
	Record(ctx context.Context, s domain.Swipe) error
	CountByUser(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error)
}

// Preferences is the preference profile store.
type Preferences interface {
	Get(ctx context.Context, userID string) (*domain.PreferenceProfile, error)
	Put(ctx context.Context, userID string, profile *domain.PreferenceProfile) error
}
