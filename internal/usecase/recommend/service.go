// Package recommend is the top-level recommendation engine: it
// classifies the user, aggregates provider results, ranks them either
// deterministically or through the reasoning service, and annotates the
// final list with per-product justifications.
package recommend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/logger"
	"github.com/urpick/urpick/internal/metrics"
	"github.com/urpick/urpick/internal/usecase/scoring"
)

// Engine defaults; all overridable via WithTuning.
const (
	DefaultCandidateLimit   = 30
	DefaultNewUserThreshold = 5
	DefaultSelectTimeout    = 10 * time.Second
	DefaultReasonTimeout    = 8 * time.Second
)

// overFetchFactor widens the source query beyond the caller's limit so
// that dedup, filtering, and reranking have headroom.
const overFetchFactor = 3

// Request is one recommendation call. UserID is optional; without it the
// request is ranked deterministically.
type Request struct {
	Query      string
	UserID     string
	MaxResults int
	MinPrice   int
	MaxPrice   int
}

// Result is the engine's response.
type Result struct {
	Products       []domain.Product
	Strategy       Strategy
	ProcessingTime time.Duration
}

// Service is the recommendation engine.
type Service struct {
	agg      Aggregator
	reasoner Reasoner
	history  InteractionHistory
	prefs    PreferenceStore

	candidateLimit   int
	newUserThreshold int
	selectTimeout    time.Duration
	reasonTimeout    time.Duration
}

// New creates a recommendation engine with default tuning.
func New(agg Aggregator, reasoner Reasoner, history InteractionHistory, prefs PreferenceStore) *Service {
	return &Service{
		agg:              agg,
		reasoner:         reasoner,
		history:          history,
		prefs:            prefs,
		candidateLimit:   DefaultCandidateLimit,
		newUserThreshold: DefaultNewUserThreshold,
		selectTimeout:    DefaultSelectTimeout,
		reasonTimeout:    DefaultReasonTimeout,
	}
}

// WithTuning overrides the engine tunables. Zero values keep defaults.
func (s *Service) WithTuning(candidateLimit, newUserThreshold int, selectTimeout, reasonTimeout time.Duration) *Service {
	if candidateLimit > 0 {
		s.candidateLimit = candidateLimit
	}
	if newUserThreshold > 0 {
		s.newUserThreshold = newUserThreshold
	}
	if selectTimeout > 0 {
		s.selectTimeout = selectTimeout
	}
	if reasonTimeout > 0 {
		s.reasonTimeout = reasonTimeout
	}
	return s
}

// Recommend produces the final ranked, annotated product list. Only
// validation failures error; partial failures inside aggregation,
// reranking, and annotation degrade per their documented fallbacks.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	params, err := domain.NewSearchParams(req.Query, req.MaxResults, req.MinPrice, req.MaxPrice, domain.SortRelevance)
	if err != nil {
		return Result{}, err
	}
	maxResults := params.MaxResults()

	strategy := s.classify(ctx, req.UserID)

	log.Info("generating recommendations",
		zap.String("query", params.Query()),
		zap.String("user_id", req.UserID),
		zap.Int("max_results", maxResults),
		zap.String("strategy", string(strategy)))

	agg, err := s.agg.SearchAll(ctx, params.WithMaxResults(maxResults*overFetchFactor))
	if err != nil {
		return Result{}, err
	}
	if len(agg.Products) == 0 {
		log.Warn("no products found from any source")
		return Result{
			Products:       []domain.Product{},
			Strategy:       strategy,
			ProcessingTime: time.Since(start),
		}, nil
	}

	log.Info("products aggregated",
		zap.Int("count", len(agg.Products)),
		zap.Duration("fanout_duration", agg.Duration))

	var products []domain.Product
	if strategy == StrategyLLMBased {
		products = s.rerank(ctx, agg.Products, params.Query(), req.UserID, maxResults)
	} else {
		ranked := scoring.ScoreAndRank(agg.Products, params.Query(), nil)
		products = rankedProducts(ranked, maxResults)
	}

	s.annotateReasons(ctx, products, params.Query(), req.UserID)

	metrics.RecommendationsTotal.WithLabelValues(string(strategy)).Inc()

	elapsed := time.Since(start)
	log.Info("recommendations generated",
		zap.Int("count", len(products)),
		zap.String("strategy", string(strategy)),
		zap.Duration("processing_time", elapsed))

	return Result{
		Products:       products,
		Strategy:       strategy,
		ProcessingTime: elapsed,
	}, nil
}
