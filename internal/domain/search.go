package domain

import (
	"fmt"
	"strings"
	"time"
)

// SortOrder is the product ordering applied after aggregation.
type SortOrder string

// Supported sort orders.
const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortRating    SortOrder = "rating"
)

// IsValid checks if the sort order is one of the supported values.
func (s SortOrder) IsValid() bool {
	return s == SortRelevance || s == SortPriceAsc || s == SortPriceDesc || s == SortRating
}

// Search parameter limits.
const (
	MaxQueryLength    = 500
	DefaultMaxResults = 10
	MaxMaxResults     = 20
)

// SearchParams is a validated product search request.
type SearchParams struct {
	query      string
	maxResults int
	minPrice   int
	maxPrice   int
	sortBy     SortOrder
}

// NewSearchParams validates and normalizes search parameters.
// Defaults: maxResults=10, sortBy=relevance. A zero maxPrice means no cap.
func NewSearchParams(query string, maxResults, minPrice, maxPrice int, sortBy SortOrder) (SearchParams, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchParams{}, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if len(query) > MaxQueryLength {
		return SearchParams{}, fmt.Errorf("%w: query too long (max %d chars)", ErrValidation, MaxQueryLength)
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxMaxResults {
		return SearchParams{}, fmt.Errorf("%w: maxResults must be between 1 and %d", ErrValidation, MaxMaxResults)
	}
	if minPrice < 0 || maxPrice < 0 {
		return SearchParams{}, fmt.Errorf("%w: prices must be non-negative", ErrValidation)
	}
	if maxPrice > 0 && maxPrice < minPrice {
		return SearchParams{}, fmt.Errorf("%w: maxPrice must be >= minPrice", ErrValidation)
	}
	if sortBy == "" {
		sortBy = SortRelevance
	}
	if !sortBy.IsValid() {
		return SearchParams{}, fmt.Errorf("%w: invalid sort order %q", ErrValidation, sortBy)
	}

	return SearchParams{
		query:      query,
		maxResults: maxResults,
		minPrice:   minPrice,
		maxPrice:   maxPrice,
		sortBy:     sortBy,
	}, nil
}

// Query returns the free-text search query.
func (p *SearchParams) Query() string { return p.query }

// MaxResults returns the result cap.
func (p *SearchParams) MaxResults() int { return p.maxResults }

// MinPrice returns the lower price bound (0 = unset).
func (p *SearchParams) MinPrice() int { return p.minPrice }

// MaxPrice returns the upper price bound (0 = unset).
func (p *SearchParams) MaxPrice() int { return p.maxPrice }

// SortBy returns the requested ordering.
func (p *SearchParams) SortBy() SortOrder { return p.sortBy }

// WithMaxResults returns a copy with a different result cap. Used by the
// engine to over-fetch from sources beyond the caller-facing limit.
func (p SearchParams) WithMaxResults(n int) SearchParams {
	p.maxResults = n
	return p
}

// SearchResult is the response of a single provider for one request.
type SearchResult struct {
	Products   []Product
	TotalCount int
	Source     Source
}

// AggregatedResult is the merged outcome of the provider fan-out.
// TotalCount is the unique-product count before truncation; Sources maps
// each configured provider to the number of products it contributed to
// the deduplicated set.
type AggregatedResult struct {
	Products   []Product
	TotalCount int
	Sources    map[Source]int
	Duration   time.Duration
}
