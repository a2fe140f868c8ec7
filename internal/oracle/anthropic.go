package oracle

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/ip-landscape/recon-cli/internal/model"
)

const anthropicMaxTokens = 2048

// Anthropic answers correction batches through the Anthropic Messages API.
type Anthropic struct {
	client sdk.Client
	model  string
}

// NewAnthropic builds an Anthropic-backed oracle.
func NewAnthropic(apiKey, modelID string, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: sdk.NewClient(opts...),
		model:  modelID,
	}
}

// Resolve implements reconcile.Oracle.
func (o *Anthropic) Resolve(ctx context.Context, entityType string, batch []model.CorrectionCandidate) ([]model.CorrectionResult, error) {
	payload := buildPayload(entityType, batch)

	msg, err := o.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(o.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: systemPrompt(entityType)}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(payload))},
	})
	if err != nil {
		return nil, eris.Wrapf(model.ErrOracleUnavailable, "anthropic: %v", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, eris.Wrap(model.ErrOracleMalformed, "anthropic: reply has no text content")
	}

	return parseReply(entityType, sb.String())
}
