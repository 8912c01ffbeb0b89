// Package profile manages users, their swipe history, and their stored
// shopping preferences.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urpick/urpick/internal/domain"
)

// Profile is a user with their activity summary and stored preferences.
type Profile struct {
	User        domain.User
	SwipeCount  int
	Preferences *domain.PreferenceProfile
}

// PreferenceUpdate is a partial preference change. Nil fields keep the
// stored value; set fields replace it wholesale.
type PreferenceUpdate struct {
	PriceRange *domain.PriceRange
	Categories *[]string
	Brands     *[]string
}

// Service handles user lifecycle, swipes, and preference updates.
type Service struct {
	users Users
	swipe Swipes
	prefs Preferences
	now   func() time.Time
}

// New creates a profile service.
func New(users Users, swipe Swipes, prefs Preferences) *Service {
	return &Service{users: users, swipe: swipe, prefs: prefs, now: time.Now}
}

// CreateUser registers a new anonymous user and returns it.
func (s *Service) CreateUser(ctx context.Context) (domain.User, error) {
	now := s.now().UTC()
	u := domain.User{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser returns a user's profile: the record, the swipe count, and the
// stored preferences (nil if never set).
func (s *Service) GetUser(ctx context.Context, userID string) (Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	count, err := s.swipe.CountByUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("count swipes: %w", err)
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get preferences: %w", err)
	}

	return Profile{User: u, SwipeCount: count, Preferences: prefs}, nil
}

// RecordSwipe validates and stores one swipe, updating the user's
// last-active timestamp.
func (s *Service) RecordSwipe(ctx context.Context, swipe domain.Swipe) error {
	if swipe.ProductID == "" {
		return fmt.Errorf("%w: productId is required", domain.ErrValidation)
	}
	if !swipe.Action.IsValid() {
		return fmt.Errorf("%w: invalid action %q", domain.ErrValidation, swipe.Action)
	}

	exists, err := s.users.Exists(ctx, swipe.UserID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, swipe.UserID)
	}

	swipe.CreatedAt = s.now().UTC()
	if err := s.swipe.Record(ctx, swipe); err != nil {
		return fmt.Errorf("record swipe: %w", err)
	}

	return s.users.Touch(ctx, swipe.UserID, swipe.CreatedAt)
}

// ListSwipes returns a user's recorded swipes, optionally filtered by
// action ("" = all).
func (s *Service) ListSwipes(
	ctx context.Context, userID string, action domain.SwipeAction, limit int,
) ([]domain.Swipe, error) {
	if action != "" && !action.IsValid() {
		return nil, fmt.Errorf("%w: invalid action %q", domain.ErrValidation, action)
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	return s.swipe.List(ctx, userID, action, limit)
}

// UpdatePreferences overlays a partial update on the stored preferences
// and returns the merged result.
func (s *Service) UpdatePreferences(
	ctx context.Context, userID string, update PreferenceUpdate,
) (*domain.PreferenceProfile, error) {
	if update.PriceRange != nil {
		if err := update.PriceRange.Validate(); err != nil {
			return nil, err
		}
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	current, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if current == nil {
		current = &domain.PreferenceProfile{}
	}

	if update.PriceRange != nil {
		current.PriceRange = update.PriceRange
	}
	if update.Categories != nil {
		current.Categories = *update.Categories
	}
	if update.Brands != nil {
		current.Brands = *update.Brands
	}

	if err := s.prefs.Put(ctx, userID, current); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return current, nil
}
