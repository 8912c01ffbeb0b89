package profile

import (
	"context"
	"time"

	"github.com/urpick/urpick/internal/domain"
)

type mockUsers struct {
	createFn func(ctx context.Context, u domain.User) error
	getFn    func(ctx context.Context, id string) (domain.User, error)
	touchFn  func(ctx context.Context, id string, at time.Time) error
	existsFn func(ctx context.Context, id string) (bool, error)
}

func (m *mockUsers) Create(ctx context.Context, u domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUsers) Get(ctx context.Context, id string) (domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domain.User{ID: id}, nil
}

func (m *mockUsers) Touch(ctx context.Context, id string, at time.Time) error {
	if m.touchFn != nil {
		return m.touchFn(ctx, id, at)
	}
	return nil
}

func (m *mockUsers) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

type mockSwipes struct {
	recordFn func(ctx context.Context, s domain.Swipe) error
	countFn  func(ctx context.Context, userID string) (int, error)
	listFn   func(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error)
}

func (m *mockSwipes) Record(ctx context.Context, s domain.Swipe) error {
	if m.recordFn != nil {
		return m.recordFn(ctx, s)
	}
	return nil
}

func (m *mockSwipes) CountByUser(ctx context.Context, userID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockSwipes) List(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, action, limit)
	}
	return nil, nil
}

type mockPrefs struct {
	getFn func(ctx context.Context, userID string) (*domain.PreferenceProfile, error)
	putFn func(ctx context.Context, userID string, profile *domain.PreferenceProfile) error
}

func (m *mockPrefs) Get(ctx context.Context, userID string) (*domain.PreferenceProfile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPrefs) Put(ctx context.Context, userID string, profile *domain.PreferenceProfile) error {
	if m.putFn != nil {
		return m.putFn(ctx, userID, profile)
	}
	return nil
}

func newTestService() (*Service, *mockUsers, *mockSwipes, *mockPrefs) {
	users := &mockUsers{}
	swipes := &mockSwipes{}
	prefs := &mockPrefs{}
	svc := New(users, swipes, prefs)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, users, swipes, prefs
}
