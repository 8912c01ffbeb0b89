package recommend

import (
	"context"

	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/logger"
)

// Strategy names the ranking path used for a request.
type Strategy string

// Ranking strategies.
const (
	// StrategyRuleBased ranks with the deterministic scorer only.
	StrategyRuleBased Strategy = "rule-based"
	// StrategyLLMBased delegates final selection to the reasoning
	// service, with the scorer as pre-filter and fallback.
	StrategyLLMBased Strategy = "llm-based"
)

// classify picks the ranking strategy from the user's swipe count.
// No user id, too few swipes, or a history read failure all classify as
// new: the deterministic path is the safe default and this never errors.
func (s *Service) classify(ctx context.Context, userID string) Strategy {
	if userID == "" {
		return StrategyRuleBased
	}

	count, err := s.history.CountByUser(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Warn("swipe count lookup failed, treating user as new",
			zap.String("user_id", userID),
			zap.Error(err))
		return StrategyRuleBased
	}
	if count < s.newUserThreshold {
		return StrategyRuleBased
	}
	return StrategyLLMBased
}
