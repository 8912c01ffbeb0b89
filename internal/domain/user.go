package domain

import (
	"fmt"
	"time"
)

// User is an anonymous app user. The swipe counter lives in the swipe
// repository, not here, so that it can be incremented atomically.
type User struct {
	ID           string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// SwipeAction is the user's verdict on a product card.
type SwipeAction string

// Swipe actions.
const (
	SwipeLike    SwipeAction = "like"
	SwipeDislike SwipeAction = "dislike"
)

// IsValid checks if the action is one of the supported values.
func (a SwipeAction) IsValid() bool {
	return a == SwipeLike || a == SwipeDislike
}

// Swipe is one recorded like/dislike on a product.
type Swipe struct {
	UserID        string      `json:"userId"`
	ProductID     string      `json:"productId"`
	Query         string      `json:"query"`
	Action        SwipeAction `json:"action"`
	ProductName   string      `json:"productName"`
	ProductPrice  int         `json:"productPrice"`
	ProductSource Source      `json:"productSource"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// LikedProduct is the lightweight shape of a past liked product used for
// reasoning context.
type LikedProduct struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
}

// PriceRange is a preferred price window in yen.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Validate checks the range bounds.
func (r PriceRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("%w: minimum price must be non-negative", ErrValidation)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%w: maximum price must be >= minimum price", ErrValidation)
	}
	return nil
}

// PreferenceProfile is a user's stored shopping preferences. All fields are
// optional; an absent profile is represented as a nil *PreferenceProfile.
type PreferenceProfile struct {
	PriceRange *PriceRange `json:"preferredPriceRange,omitempty"`
	Categories []string    `json:"preferredCategories,omitempty"`
	Brands     []string    `json:"preferredBrands,omitempty"`
}

// CompletionOptions tune a single reasoning service call. Operation is a
// short tag ("select", "reason") used for instrumentation only.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
	Operation   string
}
