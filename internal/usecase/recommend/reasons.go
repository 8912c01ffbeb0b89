package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/logger"
)

// Reasoning call tuning for per-product justifications.
const (
	reasonTemperature = 0.7
	reasonMaxTokens   = 200
)

// fallbackReason is assigned when a justification call fails. Products
// always leave the annotation stage with a non-empty reason.
const fallbackReason = "この商品はあなたの検索にマッチしています。"

const reasonSystemPrompt = `You are a shopping assistant helping users find products that match their needs.
Generate a concise recommendation reason (1-2 sentences, max 50 words) in Japanese.
Focus on why this product matches the user's request.`

// annotateReasons fills RecommendReason on every product concurrently.
// Each product gets its own reasoning call; a failed call degrades to the
// static fallback without touching its siblings. Returns once every
// product is annotated.
func (s *Service) annotateReasons(ctx context.Context, products []domain.Product, query, userID string) {
	if len(products) == 0 {
		return
	}
	log := logger.FromContext(ctx)

	var userContext string
	if userID != "" {
		liked, err := s.history.RecentLiked(ctx, userID, recentLikedForContext)
		if err != nil {
			log.Warn("liked-history lookup failed, annotating without it",
				zap.String("user_id", userID), zap.Error(err))
		} else if len(liked) > 0 {
			names := make([]string, len(liked))
			for i, p := range liked {
				names[i] = p.Name
			}
			userContext = strings.Join(names, ", ")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range products {
		g.Go(func() error {
			reason, err := s.generateReason(gctx, products[i], query, userContext)
			if err != nil {
				log.Warn("reason generation failed, using fallback",
					zap.String("product_id", products[i].ID),
					zap.Error(err))
				reason = fallbackReason
			}
			products[i].RecommendReason = reason
			return nil
		})
	}
	// Workers never return an error; failures degrade to the fallback.
	_ = g.Wait()
}

// generateReason asks for one short justification string.
func (s *Service) generateReason(
	ctx context.Context, p domain.Product, query, userContext string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.reasonTimeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "ユーザーのリクエスト: %s\n\n", query)
	fmt.Fprintf(&b, "商品名: %s\n", p.Name)
	fmt.Fprintf(&b, "商品説明: %s\n", p.Description)
	if userContext != "" {
		fmt.Fprintf(&b, "\nユーザーの嗜好: %s\n", userContext)
	}
	b.WriteString("\nこの商品がユーザーのリクエストにマッチする理由を、簡潔に1-2文で説明してください。")

	reason, err := s.reasoner.Complete(ctx, b.String(), reasonSystemPrompt, domain.CompletionOptions{
		Temperature: reasonTemperature,
		MaxTokens:   reasonMaxTokens,
		Operation:   "reason",
	})
	if err != nil {
		return "", err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", domain.ErrReasoningFailure
	}
	return reason, nil
}
