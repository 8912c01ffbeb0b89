// Package openai implements the reasoning service over any
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/metrics"
)

// Reasoner is a text-completion provider backed by a chat model.
type Reasoner struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the reasoning provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewReasoner creates an OpenAI-compatible reasoning provider.
func NewReasoner(cfg *Config) *Reasoner {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Reasoner{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete sends one prompt to the chat model and returns the text of the
// first choice, with transport-level metrics.
func (r *Reasoner) Complete(
	ctx context.Context, prompt, systemPrompt string, opts domain.CompletionOptions,
) (string, error) {
	op := opts.Operation
	if op == "" {
		op = "complete"
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	start := time.Now()

	resp, err := r.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ReasoningRequestsTotal.WithLabelValues(op, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.ReasoningRequestsTotal.WithLabelValues(op, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrReasoningFailure)
	}

	metrics.ReasoningRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.ReasoningRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.ReasoningTokensTotal.WithLabelValues(op, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ReasoningTokensTotal.WithLabelValues(op, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.ReasoningTokensTotal.WithLabelValues(op, "total").Add(float64(resp.Usage.TotalTokens))
	}

	r.logger.Debug("completion received",
		zap.String("operation", op),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", duration))

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Reasoner) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrReasoningFailure so callers can
// apply the soft-fallback rules uniformly.
func parseAPIError(err error) error {
	wrap := domain.ErrReasoningFailure

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractMessage(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("reasoning API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("reasoning API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("reasoning API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("reasoning request failed: %w", wrap)
}

// extractMessage extracts the error message from a JSON error body.
func extractMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return ""
}
