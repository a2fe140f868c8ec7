package oracle

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ip-landscape/recon-cli/internal/model"
	"github.com/ip-landscape/recon-cli/pkg/openrouter"
)

// OpenRouter answers correction batches through the OpenRouter
// chat-completions API.
type OpenRouter struct {
	client openrouter.Client
}

// NewOpenRouter builds an OpenRouter-backed oracle.
func NewOpenRouter(client openrouter.Client) *OpenRouter {
	return &OpenRouter{client: client}
}

// Resolve implements reconcile.Oracle.
func (o *OpenRouter) Resolve(ctx context.Context, entityType string, batch []model.CorrectionCandidate) ([]model.CorrectionResult, error) {
	payload := buildPayload(entityType, batch)

	resp, err := o.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Messages: []openrouter.Message{
			{Role: "system", Content: systemPrompt(entityType)},
			{Role: "user", Content: payload},
		},
		Temperature: floatPtr(0),
	})
	if err != nil {
		return nil, eris.Wrapf(model.ErrOracleUnavailable, "openrouter: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Wrap(model.ErrOracleMalformed, "openrouter: reply has no choices")
	}

	zap.L().Debug("oracle: openrouter reply received",
		zap.Int("batch", len(batch)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return parseReply(entityType, resp.Choices[0].Message.Content)
}

func floatPtr(f float64) *float64 { return &f }
