package generate

import (
	"context"
	"fmt"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// ChatRequest is one chat completion call. The token limit is sent under
// TokenParam; Temperature and ReasoningEffort are omitted when unset.
type ChatRequest struct {
	Model           string
	Messages        []Message
	TokenParam      modelcatalog.TokenParam
	TokenValue      int
	Temperature     *float64
	ReasoningEffort modelcatalog.ReasoningEffort
}

type Choice struct {
	Content      string
	FinishReason string
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type ChatResponse struct {
	Choices []Choice
	Usage   Usage
	// Model is the model that served the request, as reported by the provider.
	Model string
}

// FinishReasonLength marks output truncated by the token limit.
const FinishReasonLength = "length"

// Client performs chat completion calls against a remote provider.
type Client interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ProviderError is a request rejected by the provider with a structured
// error body. Param names the offending request field when the provider
// reports one.
type ProviderError struct {
	StatusCode int
	Code       string
	Param      string
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}
