// Package llm adapts provider SDKs to the generation client interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/spachava753/fieldgen/internal/generate"
	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

// OpenAIClient implements generate.Client with the OpenAI chat completions API.
// Any OpenAI compatible endpoint can be used through the base URL. The
// underlying HTTP client is shared and safe for concurrent use.
type OpenAIClient struct {
	client openai.Client
	logger *slog.Logger
}

// NewOpenAIClient creates a client for the given API key and optional base URL.
// SDK level retries are disabled; the generation pipeline owns the retry policy.
func NewOpenAIClient(apiKey, baseURL string, logger *slog.Logger, extra ...option.RequestOption) *OpenAIClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		// Ensure baseURL ends with a trailing "/"
		if !strings.HasSuffix(baseURL, "/") {
			baseURL = baseURL + "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// Complete sends one chat completion request.
func (o *OpenAIClient) Complete(ctx context.Context, req generate.ChatRequest) (*generate.ChatResponse, error) {
	resp, err := o.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return nil, convertError(err)
	}

	out := &generate.ChatResponse{
		Model: resp.Model,
		Usage: generate.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, generate.Choice{
			Content:      choice.Message.Content,
			FinishReason: choice.FinishReason,
		})
	}
	o.logger.Debug("chat completion finished",
		slog.String("id", resp.ID), slog.String("model", resp.Model), slog.Int("choices", len(resp.Choices)))
	return out, nil
}

func buildParams(req generate.ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
	}

	for _, m := range req.Messages {
		switch m.Role {
		case generate.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	switch req.TokenParam {
	case modelcatalog.TokenParamMaxCompletionTokens:
		params.MaxCompletionTokens = openai.Int(int64(req.TokenValue))
	default:
		params.MaxTokens = openai.Int(int64(req.TokenValue))
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(req.ReasoningEffort)
	}
	return params
}

// convertError turns an API error body into a generate.ProviderError so the
// pipeline can read the rejected parameter. Network errors pass through.
func convertError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = fmt.Sprintf("provider returned status %d", apiErr.StatusCode)
	}
	return &generate.ProviderError{
		StatusCode: apiErr.StatusCode,
		Code:       apiErr.Code,
		Param:      apiErr.Param,
		Type:       apiErr.Type,
		Message:    msg,
	}
}
