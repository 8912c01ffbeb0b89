package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/logger"
	"github.com/urpick/urpick/internal/usecase/scoring"
)

// Reasoning call tuning for candidate selection.
const (
	selectTemperature = 0.3
	selectMaxTokens   = 500
)

// recentLikedForContext caps how many past liked products are quoted in
// the reasoning context.
const recentLikedForContext = 5

const selectSystemPromptFmt = `You are a product recommendation expert.
Select the %d best products that match the user's query and preferences.
Return ONLY a JSON array of product IDs in order of relevance, like: ["id1", "id2", "id3"]`

// jsonArrayRe grabs the first JSON array in a free-text completion.
var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// rerank runs the reasoning-assisted ranking path: scorer pre-filter,
// bounded candidate set, reasoning-service selection, backfill. Any
// failure falls back to the deterministic ranking; this never errors.
func (s *Service) rerank(
	ctx context.Context, products []domain.Product, query, userID string, maxResults int,
) []domain.Product {
	log := logger.FromContext(ctx)

	profile, err := s.prefs.Get(ctx, userID)
	if err != nil {
		log.Warn("preference lookup failed, ranking without profile",
			zap.String("user_id", userID), zap.Error(err))
		profile = nil
	}

	ranked := scoring.ScoreAndRank(products, query, profile)

	limit := s.candidateLimit
	if len(ranked) < limit {
		limit = len(ranked)
	}
	candidates := ranked[:limit]

	liked, err := s.history.RecentLiked(ctx, userID, recentLikedForContext)
	if err != nil {
		log.Warn("liked-history lookup failed, ranking without it",
			zap.String("user_id", userID), zap.Error(err))
		liked = nil
	}
	userContext := buildUserContext(profile, liked)

	selected, err := s.selectCandidates(ctx, query, candidates, userContext, maxResults)
	if err != nil {
		log.Warn("reasoning selection failed, falling back to deterministic ranking",
			zap.Error(err))
		return rankedProducts(ranked, maxResults)
	}

	final := backfill(selected, candidates, maxResults)
	return final
}

// selectCandidates asks the reasoning service to pick the best candidate
// ids and maps them back to products, dropping unknown ids.
func (s *Service) selectCandidates(
	ctx context.Context, query string, candidates []scoring.Ranked, userContext string, maxResults int,
) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.selectTimeout)
	defer cancel()

	prompt := buildSelectPrompt(query, candidates, userContext, maxResults)
	systemPrompt := fmt.Sprintf(selectSystemPromptFmt, maxResults)

	response, err := s.reasoner.Complete(ctx, prompt, systemPrompt, domain.CompletionOptions{
		Temperature: selectTemperature,
		MaxTokens:   selectMaxTokens,
		Operation:   "select",
	})
	if err != nil {
		return nil, err
	}

	ids := parseSelectedIDs(ctx, response)

	byID := make(map[string]domain.Product, len(candidates))
	for _, c := range candidates {
		byID[c.Product.ID] = c.Product
	}

	selected := make([]domain.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if p, ok := byID[id]; ok {
			selected = append(selected, p)
			seen[id] = true
		}
	}
	return selected, nil
}

// buildSelectPrompt lists the candidates and asks for a ranked id array.
func buildSelectPrompt(query string, candidates []scoring.Ranked, userContext string, maxResults int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ユーザーのリクエスト: %s\n", query)
	if userContext != "" {
		fmt.Fprintf(&b, "\nユーザーの嗜好: %s\n", userContext)
	}
	b.WriteString("\n商品リスト:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. ID: %s, 名前: %s, 価格: ¥%d\n", i+1, c.Product.ID, c.Product.Name, c.Product.Price)
	}
	fmt.Fprintf(&b, "\n上記の商品から、ユーザーのリクエストに最もマッチする%d件を選択し、商品IDのJSON配列で返してください。", maxResults)
	return b.String()
}

// buildUserContext summarizes the profile and recent likes for prompts.
func buildUserContext(profile *domain.PreferenceProfile, liked []domain.LikedProduct) string {
	var parts []string

	if profile != nil {
		if pr := profile.PriceRange; pr != nil {
			parts = append(parts, fmt.Sprintf("予算: ¥%d - ¥%d", pr.Min, pr.Max))
		}
		if len(profile.Categories) > 0 {
			parts = append(parts, "好きなカテゴリ: "+strings.Join(profile.Categories, ", "))
		}
		if len(profile.Brands) > 0 {
			parts = append(parts, "好きなブランド: "+strings.Join(profile.Brands, ", "))
		}
	}

	if len(liked) > 0 {
		names := make([]string, 0, recentLikedForContext)
		for i, p := range liked {
			if i == recentLikedForContext {
				break
			}
			names = append(names, p.Name)
		}
		parts = append(parts, "過去に興味を示した商品: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, "\n")
}

// parseSelectedIDs pulls a JSON array of ids out of a free-text
// completion. Malformed or missing arrays read as an empty selection.
func parseSelectedIDs(ctx context.Context, response string) []string {
	match := jsonArrayRe.FindString(response)
	if match == "" {
		logger.FromContext(ctx).Warn("no JSON array in reasoning response")
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(match), &ids); err != nil {
		logger.FromContext(ctx).Warn("unparseable id array in reasoning response", zap.Error(err))
		return nil
	}
	return ids
}

// backfill tops a short selection up with the highest-scored unused
// candidates, keeping the selection's order first.
func backfill(selected []domain.Product, candidates []scoring.Ranked, maxResults int) []domain.Product {
	if len(selected) >= maxResults {
		return selected[:maxResults]
	}

	used := make(map[string]bool, len(selected))
	for _, p := range selected {
		used[p.ID] = true
	}

	for _, c := range candidates {
		if len(selected) >= maxResults {
			break
		}
		if !used[c.Product.ID] {
			selected = append(selected, c.Product)
			used[c.Product.ID] = true
		}
	}
	return selected
}

// rankedProducts flattens a scored ranking to its top products.
func rankedProducts(ranked []scoring.Ranked, maxResults int) []domain.Product {
	n := len(ranked)
	if n > maxResults {
		n = maxResults
	}
	out := make([]domain.Product, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].Product
	}
	return out
}
