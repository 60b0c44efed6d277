// Package generate turns a prompt and its field context into finished field
// content. It resolves the request parameters for the target model, calls the
// provider with retries and adapts the request when the provider refuses a
// parameter the model descriptor claimed it accepts.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/formatter"
	"github.com/spachava753/fieldgen/internal/params"
	"github.com/spachava753/fieldgen/internal/prompt"
)

// Request is the input of one generation.
type Request struct {
	Prompt string
	// ModelID selects the descriptor; Settings.Model is used when empty.
	ModelID  string
	Context  prompt.Context
	Settings config.Settings
}

// InvalidParameterError is returned before any provider call when the
// resolved parameters cannot be sent.
type InvalidParameterError struct {
	Param  string
	Value  int
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Param, e.Value, e.Reason)
}

// TransportError is the last provider call failure after every attempt was
// used. Its message is the underlying error's message unchanged.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Resolver computes request parameters for a model. *params.Resolver implements it.
type Resolver interface {
	Resolve(modelID string, override params.Override) (params.Resolved, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Pipeline generates field content through a Client. It is safe for concurrent use.
type Pipeline struct {
	client    Client
	resolver  Resolver
	logger    *slog.Logger
	sleep     Sleeper
	requestID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSleeper replaces the backoff sleep.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) { p.sleep = s }
}

// WithRequestID replaces the generator of the request_id log attribute.
func WithRequestID(fn func() string) Option {
	return func(p *Pipeline) { p.requestID = fn }
}

// New creates a Pipeline. A nil logger discards log output.
func New(client Client, resolver Resolver, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		client:    client,
		resolver:  resolver,
		logger:    logger,
		sleep:     sleepContext,
		requestID: newRequestID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newRequestID() string {
	return gonanoid.MustGenerate(requestIDAlphabet, 12)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retrySchedule yields 1s, 2s, 4s ... between attempts.
func retrySchedule() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         10 * time.Minute,
	}
	b.Reset()
	return b
}

// fallbacks records which parameter adjustments were already tried.
type fallbacks struct {
	tokenParam  bool
	temperature bool
}

// Generate produces content for req.
//
// Up to Settings.MaxRetries provider calls are made, sleeping 2^(n-1) seconds
// before attempt n+1. A parameter rejection triggers an immediate extra call
// with that parameter adjusted, outside of the attempt budget. Once every
// attempt fails the most recent error is returned as a *TransportError.
// An empty completion is returned as "" without error.
func (p *Pipeline) Generate(ctx context.Context, req Request) (string, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = req.Settings.Model
	}
	logger := p.logger.With(
		slog.String("request_id", p.requestID()),
		slog.String("model", modelID),
		slog.String("entry_type", req.Context.EntryTypeHandle),
		slog.String("section", req.Context.SectionHandle),
		slog.String("field", req.Context.FieldHandle),
	)

	base := prompt.DefaultSystemPrompt
	if strings.TrimSpace(req.Settings.PromptOverride) != "" {
		base = req.Settings.PromptOverride
	}
	system := prompt.BuildSystemPrompt(base, req.Context)

	resolved, err := p.resolver.Resolve(modelID, params.Override{MaxTokens: req.Settings.MaxTokens})
	if err != nil {
		return "", err
	}
	if resolved.TokenValue <= 0 {
		return "", &InvalidParameterError{
			Param:  string(resolved.TokenParam),
			Value:  resolved.TokenValue,
			Reason: "token limit must be positive",
		}
	}

	chat := ChatRequest{
		Model: resolved.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: req.Prompt},
		},
		TokenParam:      resolved.TokenParam,
		TokenValue:      resolved.TokenValue,
		Temperature:     resolved.Temperature,
		ReasoningEffort: resolved.ReasoningEffort,
	}

	attempts := max(req.Settings.MaxRetries, 1)
	timeout := req.Settings.APITimeout()
	schedule := retrySchedule()
	var used fallbacks
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := schedule.NextBackOff()
			logger.Debug("waiting before retry", slog.Int("attempt", attempt), slog.Duration("wait", wait))
			if err := p.sleep(ctx, wait); err != nil {
				return "", errors.Join(&TransportError{Attempts: attempt - 1, Err: lastErr}, err)
			}
		}

		resp, err := p.call(ctx, chat, timeout)
		if err != nil {
			resp, err = p.fallback(ctx, logger, &chat, &used, err, timeout)
		}
		if err == nil {
			return p.finish(logger, chat, resp, req.Context.Format), nil
		}

		lastErr = err
		logger.Warn("generation attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Any("error", err),
		)
	}

	logger.Error("generation failed", slog.Int("attempts", attempts), slog.Any("error", lastErr))
	return "", &TransportError{Attempts: attempts, Err: lastErr}
}

func (p *Pipeline) call(ctx context.Context, chat ChatRequest, timeout time.Duration) (*ChatResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.client.Complete(ctx, chat)
}

// fallback retries a call whose failure was a parameter rejection. Each kind
// of adjustment is applied at most once per generation and is kept for the
// attempts that follow, except a token name swap that the provider refuses as
// well, which is undone. The error of the last call made is returned when no
// adjustment helps.
func (p *Pipeline) fallback(ctx context.Context, logger *slog.Logger, chat *ChatRequest, used *fallbacks, err error, timeout time.Duration) (*ChatResponse, error) {
	for {
		reason := Classify(err, *chat)
		switch reason {
		case RejectionTokenParam:
			if used.tokenParam {
				return nil, err
			}
			used.tokenParam = true
			from := chat.TokenParam
			chat.TokenParam = from.Other()
			logger.Info("provider rejected token parameter, retrying with alternative",
				slog.String("from", string(from)), slog.String("to", string(chat.TokenParam)))
		case RejectionTemperature:
			if used.temperature || chat.Temperature == nil {
				return nil, err
			}
			used.temperature = true
			chat.Temperature = nil
			logger.Info("provider rejected temperature, retrying without it")
		default:
			return nil, err
		}

		resp, callErr := p.call(ctx, *chat, timeout)
		if callErr == nil {
			return resp, nil
		}
		logger.Debug("adjusted request failed", slog.String("reason", reason.String()), slog.Any("error", callErr))
		if reason == RejectionTokenParam && Classify(callErr, *chat) == RejectionTokenParam {
			// Both names refused.
			chat.TokenParam = chat.TokenParam.Other()
			logger.Info("alternative token parameter also rejected, keeping original",
				slog.String("token_param", string(chat.TokenParam)))
			return nil, err
		}
		err = callErr
	}
}

func (p *Pipeline) finish(logger *slog.Logger, chat ChatRequest, resp *ChatResponse, format formatter.Format) string {
	logger.Info("generation succeeded",
		slog.String("served_model", resp.Model),
		slog.Int64("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
		slog.Int64("total_tokens", resp.Usage.TotalTokens),
	)

	if len(resp.Choices) == 0 {
		logger.Warn("provider returned no choices")
		return ""
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		if choice.FinishReason == FinishReasonLength {
			logger.Warn("empty content, output truncated by token limit",
				slog.String("token_param", string(chat.TokenParam)), slog.Int("token_value", chat.TokenValue))
		} else {
			logger.Warn("empty content", slog.String("finish_reason", choice.FinishReason))
		}
		return ""
	}
	return formatter.Apply(choice.Content, format)
}
