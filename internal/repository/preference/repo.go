// Package preference persists user preference profiles as JSON values.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urpick/urpick/internal/db"
	"github.com/urpick/urpick/internal/domain"
)

// store is the consumer interface for preference profiles (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/profile.Preferences and
// usecase/recommend.PreferenceStore.
type Repo struct {
	store  store
	prefix string
}

// New creates a preference repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get returns a user's stored profile, or (nil, nil) when none exists.
// Absence is normal for new users, not an error.
func (r *Repo) Get(ctx context.Context, userID string) (*domain.PreferenceProfile, error) {
	raw, err := r.store.Get(ctx, r.key(userID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.key(userID), err)
	}
	var profile domain.PreferenceProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}
	return &profile, nil
}

// Put stores a user's profile, replacing any previous one.
func (r *Repo) Put(ctx context.Context, userID string, profile *domain.PreferenceProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.store.Set(ctx, r.key(userID), data); err != nil {
		return fmt.Errorf("set %s: %w", r.key(userID), err)
	}
	return nil
}

func (r *Repo) key(userID string) string {
	return r.prefix + "prefs:" + userID
}
