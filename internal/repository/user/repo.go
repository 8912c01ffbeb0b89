// Package user persists app users as JSON values in the key-value store.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urpick/urpick/internal/db"
	"github.com/urpick/urpick/internal/domain"
)

// store is the consumer interface for user records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements usecase/profile.Users.
type Repo struct {
	store  store
	prefix string
}

// New creates a user repository. prefix namespaces all keys (e.g. "urpick:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

type userDTO struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Create stores a new user record.
func (r *Repo) Create(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(userDTO{ID: u.ID, CreatedAt: u.CreatedAt, LastActiveAt: u.LastActiveAt})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := r.store.Set(ctx, r.key(u.ID), data); err != nil {
		return fmt.Errorf("set %s: %w", r.key(u.ID), err)
	}
	return nil
}

// Get returns a user by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.User, error) {
	raw, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get %s: %w", r.key(id), err)
	}
	var dto userDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user %s: %w", id, err)
	}
	return domain.User{ID: dto.ID, CreatedAt: dto.CreatedAt, LastActiveAt: dto.LastActiveAt}, nil
}

// Touch updates the user's last-active timestamp.
func (r *Repo) Touch(ctx context.Context, id string, at time.Time) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	u.LastActiveAt = at
	return r.Create(ctx, u)
}

// Exists reports whether a user record is present.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.key(id))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.key(id), err)
	}
	return ok, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "user:" + id
}
