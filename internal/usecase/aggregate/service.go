// Package aggregate fans a product search out to all configured
// providers, merges their results, and deduplicates across providers.
package aggregate

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/logger"
)

// Default per-source time budgets.
const (
	DefaultProbeTimeout  = time.Second
	DefaultSearchTimeout = 8 * time.Second
)

// Service orchestrates the provider fan-out.
type Service struct {
	clients       []SourceClient
	retry         RetryPolicy
	probeTimeout  time.Duration
	searchTimeout time.Duration
}

// New creates an aggregator over the given provider clients.
func New(clients []SourceClient, retry RetryPolicy) *Service {
	return &Service{
		clients:       clients,
		retry:         retry,
		probeTimeout:  DefaultProbeTimeout,
		searchTimeout: DefaultSearchTimeout,
	}
}

// WithTimeouts overrides the per-source availability and search budgets.
func (s *Service) WithTimeouts(probe, search time.Duration) *Service {
	if probe > 0 {
		s.probeTimeout = probe
	}
	if search > 0 {
		s.searchTimeout = search
	}
	return s
}

// SearchAll queries every available provider concurrently and merges the
// results. Provider failures and timeouts cost only that provider's
// contribution; the aggregate itself never fails. All sources failing
// yields an empty result, not an error.
func (s *Service) SearchAll(ctx context.Context, params domain.SearchParams) (domain.AggregatedResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	results := make([]*domain.SearchResult, len(s.clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range s.clients {
		g.Go(func() error {
			if !s.probeAvailable(gctx, client) {
				log.Info("source unavailable, skipping",
					zap.String("source", string(client.Name())))
				return nil
			}

			result, err := s.searchOne(gctx, client, params)
			if err != nil {
				log.Warn("source search failed",
					zap.String("source", string(client.Name())),
					zap.Error(err))
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	// Workers only ever return nil; partial failures are absorbed above.
	_ = g.Wait()

	merged := dedupe(results)
	counts := s.sourceCounts(merged)
	sortProducts(merged, params.SortBy())

	total := len(merged)
	if len(merged) > params.MaxResults() {
		merged = merged[:params.MaxResults()]
	}

	return domain.AggregatedResult{
		Products:   merged,
		TotalCount: total,
		Sources:    counts,
		Duration:   time.Since(start),
	}, nil
}

// probeAvailable races the client's availability probe against a short
// timeout. An expired probe reads as unavailable; the probe goroutine is
// left to finish on its own.
func (s *Service) probeAvailable(ctx context.Context, client SourceClient) bool {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() { done <- client.IsAvailable(ctx) }()

	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		return false
	}
}

// searchOne runs one provider search under the retry policy, bounded by
// the per-source search budget.
func (s *Service) searchOne(
	ctx context.Context, client SourceClient, params domain.SearchParams,
) (domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	return s.retry.Do(ctx, client.Name(), func(ctx context.Context) (domain.SearchResult, error) {
		return client.Search(ctx, params)
	})
}

// sourceCounts reports how many deduplicated products each configured
// provider contributed. Providers that contributed nothing appear with a
// zero count.
func (s *Service) sourceCounts(products []domain.Product) map[domain.Source]int {
	counts := make(map[domain.Source]int, len(s.clients))
	for _, client := range s.clients {
		counts[client.Name()] = 0
	}
	for _, p := range products {
		counts[p.Source]++
	}
	return counts
}

// dedupeKey normalizes a product name into its cross-provider merge key.
func dedupeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// dedupe merges per-source results, collapsing products that share a
// normalized name. On a collision the higher-rated product wins; equal
// ratings keep the first-seen product, preserving its position.
func dedupe(results []*domain.SearchResult) []domain.Product {
	merged := make([]domain.Product, 0, 32)
	index := make(map[string]int)

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, p := range r.Products {
			key := dedupeKey(p.Name)
			if at, seen := index[key]; seen {
				if p.Rating > merged[at].Rating {
					merged[at] = p
				}
				continue
			}
			index[key] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged
}

// sortProducts orders the merged set per the requested sort. Relevance
// uses rating·ln(reviewCount+1), a cheap pre-ranking ahead of the full
// scorer downstream.
func sortProducts(products []domain.Product, order domain.SortOrder) {
	switch order {
	case domain.SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case domain.SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case domain.SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Rating != products[j].Rating {
				return products[i].Rating > products[j].Rating
			}
			return products[i].ReviewCount > products[j].ReviewCount
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return relevance(products[i]) > relevance(products[j])
		})
	}
}

func relevance(p domain.Product) float64 {
	return p.Rating * math.Log(float64(p.ReviewCount)+1)
}
