// Package swipe persists swipe history. The full log and the liked-only
// history are Redis lists (newest first); the per-user counter is a plain
// key incremented atomically, so concurrent swipes never lose counts.
package swipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urpick/urpick/internal/db"
	"github.com/urpick/urpick/internal/domain"
)

// History caps. Old entries fall off the end; the counter keeps the
// lifetime total.
const (
	maxLogEntries   = 500
	maxLikedEntries = 100
)

// store is the consumer interface for swipe history (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Repo implements usecase/profile.Swipes and usecase/recommend.InteractionHistory.
type Repo struct {
	store  store
	prefix string
}

// New creates a swipe repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

type swipeDTO struct {
	ProductID     string        `json:"product_id"`
	Query         string        `json:"query"`
	Action        string        `json:"action"`
	ProductName   string        `json:"product_name"`
	ProductPrice  int           `json:"product_price"`
	ProductSource domain.Source `json:"product_source"`
	CreatedAt     time.Time     `json:"created_at"`
}

type likedDTO struct {
	Name   string        `json:"name"`
	Source domain.Source `json:"source"`
}

// Record appends a swipe to the user's log and bumps the counter.
// Liked swipes also feed the liked-product history used as reasoning context.
func (r *Repo) Record(ctx context.Context, s domain.Swipe) error {
	data, err := json.Marshal(swipeDTO{
		ProductID:     s.ProductID,
		Query:         s.Query,
		Action:        string(s.Action),
		ProductName:   s.ProductName,
		ProductPrice:  s.ProductPrice,
		ProductSource: s.ProductSource,
		CreatedAt:     s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal swipe: %w", err)
	}

	logKey := r.logKey(s.UserID)
	if err := r.store.LPush(ctx, logKey, string(data)); err != nil {
		return fmt.Errorf("lpush %s: %w", logKey, err)
	}
	if err := r.store.LTrim(ctx, logKey, 0, maxLogEntries-1); err != nil {
		return fmt.Errorf("ltrim %s: %w", logKey, err)
	}

	if _, err := r.store.IncrBy(ctx, r.countKey(s.UserID), 1); err != nil {
		return fmt.Errorf("incr %s: %w", r.countKey(s.UserID), err)
	}

	if s.Action == domain.SwipeLike {
		liked, err := json.Marshal(likedDTO{Name: s.ProductName, Source: s.ProductSource})
		if err != nil {
			return fmt.Errorf("marshal liked product: %w", err)
		}
		likedKey := r.likedKey(s.UserID)
		if err := r.store.LPush(ctx, likedKey, string(liked)); err != nil {
			return fmt.Errorf("lpush %s: %w", likedKey, err)
		}
		if err := r.store.LTrim(ctx, likedKey, 0, maxLikedEntries-1); err != nil {
			return fmt.Errorf("ltrim %s: %w", likedKey, err)
		}
	}

	return nil
}

// CountByUser returns the lifetime swipe count (0 for unknown users).
func (r *Repo) CountByUser(ctx context.Context, userID string) (int, error) {
	raw, err := r.store.Get(ctx, r.countKey(userID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %w", r.countKey(userID), err)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", r.countKey(userID), err)
	}
	return n, nil
}

// RecentLiked returns up to limit most recently liked products, newest first.
// Malformed entries are skipped.
func (r *Repo) RecentLiked(ctx context.Context, userID string, limit int) ([]domain.LikedProduct, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := r.store.LRange(ctx, r.likedKey(userID), 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", r.likedKey(userID), err)
	}
	liked := make([]domain.LikedProduct, 0, len(items))
	for _, item := range items {
		var dto likedDTO
		if err := json.Unmarshal([]byte(item), &dto); err != nil {
			continue
		}
		liked = append(liked, domain.LikedProduct{Name: dto.Name, Source: dto.Source})
	}
	return liked, nil
}

// List returns up to limit most recent swipes, optionally filtered by action
// (empty action = all). Newest first.
func (r *Repo) List(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error) {
	if limit <= 0 {
		limit = 50
	}
	// Over-read when filtering: matching entries may be sparse in the log.
	stop := int64(limit) - 1
	if action != "" {
		stop = maxLogEntries - 1
	}
	items, err := r.store.LRange(ctx, r.logKey(userID), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", r.logKey(userID), err)
	}

	swipes := make([]domain.Swipe, 0, limit)
	for _, item := range items {
		var dto swipeDTO
		if err := json.Unmarshal([]byte(item), &dto); err != nil {
			continue
		}
		if action != "" && domain.SwipeAction(dto.Action) != action {
			continue
		}
		swipes = append(swipes, domain.Swipe{
			UserID:        userID,
			ProductID:     dto.ProductID,
			Query:         dto.Query,
			Action:        domain.SwipeAction(dto.Action),
			ProductName:   dto.ProductName,
			ProductPrice:  dto.ProductPrice,
			ProductSource: dto.ProductSource,
			CreatedAt:     dto.CreatedAt,
		})
		if len(swipes) >= limit {
			break
		}
	}
	return swipes, nil
}

func (r *Repo) logKey(userID string) string {
	return r.prefix + "swipes:" + userID + ":log"
}

func (r *Repo) likedKey(userID string) string {
	return r.prefix + "swipes:" + userID + ":liked"
}

func (r *Repo) countKey(userID string) string {
	return r.prefix + "swipes:" + userID + ":count"
}
