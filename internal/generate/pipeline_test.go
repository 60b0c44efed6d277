package generate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/fieldgen/internal/config"
	"github.com/spachava753/fieldgen/internal/formatter"
	"github.com/spachava753/fieldgen/internal/modelcatalog"
	"github.com/spachava753/fieldgen/internal/params"
	"github.com/spachava753/fieldgen/internal/prompt"
)

type result struct {
	resp *ChatResponse
	err  error
}

// stubClient replays scripted results and records every request it receives.
// The last result repeats once the script is exhausted.
type stubClient struct {
	mu       sync.Mutex
	script   []result
	requests []ChatRequest
}

func (s *stubClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	i := min(len(s.requests)-1, len(s.script)-1)
	return s.script[i].resp, s.script[i].err
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type stubResolver struct {
	resolved params.Resolved
	err      error
	override params.Override
}

func (r *stubResolver) Resolve(modelID string, override params.Override) (params.Resolved, error) {
	r.override = override
	if r.err != nil {
		return params.Resolved{}, r.err
	}
	out := r.resolved
	out.Model = modelID
	return out, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func ok(content string) result {
	return result{resp: &ChatResponse{
		Choices: []Choice{{Content: content, FinishReason: "stop"}},
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		Model:   "gpt-4o-2024-08-06",
	}}
}

func fail(err error) result { return result{err: err} }

func defaultResolved() params.Resolved {
	temp := 0.1
	return params.Resolved{
		TokenParam:  modelcatalog.TokenParamMaxTokens,
		TokenValue:  1000,
		Temperature: &temp,
	}
}

func settings(maxRetries int) config.Settings {
	return config.Settings{Model: "gpt-4o", MaxRetries: maxRetries, APITimeoutSeconds: 30}
}

func newPipeline(client Client, resolver Resolver, sleeper *sleepRecorder, logger *slog.Logger) *Pipeline {
	return New(client, resolver, logger, WithSleeper(sleeper.sleep), WithRequestID(func() string { return "req-1" }))
}

func TestGenerate_FailsTwiceThenSucceeds(t *testing.T) {
	client := &stubClient{script: []result{
		fail(errors.New("connection reset")),
		fail(errors.New("rate limited")),
		ok("  \"Hello <b>World</b>\"  "),
	}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	got, err := p.Generate(context.Background(), Request{
		Prompt:   "Write a greeting",
		Context:  prompt.Context{Format: formatter.Plain},
		Settings: settings(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got)
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestGenerate_AlwaysFailingPropagatesLastError(t *testing.T) {
	for _, maxRetries := range []int{1, 3, 5} {
		last := errors.New("service unavailable (last)")
		var script []result
		for range maxRetries - 1 {
			script = append(script, fail(errors.New("service unavailable")))
		}
		script = append(script, fail(last))
		client := &stubClient{script: script}
		sleeper := &sleepRecorder{}
		p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

		_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(maxRetries)})
		require.Error(t, err)
		assert.ErrorIs(t, err, last)
		assert.Equal(t, last.Error(), err.Error(), "message is propagated verbatim")

		var terr *TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, maxRetries, terr.Attempts)
		assert.Equal(t, maxRetries, client.calls())
		assert.Len(t, sleeper.waits, maxRetries-1)
	}
}

func TestGenerate_BackoffDoublesEachRetry(t *testing.T) {
	client := &stubClient{script: []result{fail(errors.New("boom"))}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(5)})
	require.Error(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.waits)
}

func TestGenerate_SuccessOnFirstAttemptDoesNotSleep(t *testing.T) {
	client := &stubClient{script: []result{ok("Simple text")}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	got, err := p.Generate(context.Background(), Request{
		Prompt:   "x",
		Context:  prompt.Context{Format: formatter.HTML},
		Settings: settings(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Simple text</p>", got)
	assert.Empty(t, sleeper.waits)
	assert.Equal(t, 1, client.calls())
}

func TestGenerate_BuildsRequest(t *testing.T) {
	client := &stubClient{script: []result{ok("done")}}
	resolver := &stubResolver{resolved: params.Resolved{
		TokenParam:      modelcatalog.TokenParamMaxCompletionTokens,
		TokenValue:      2000,
		ReasoningEffort: modelcatalog.ReasoningEffortLow,
	}}
	p := newPipeline(client, resolver, &sleepRecorder{}, nil)

	s := settings(3)
	s.MaxTokens = 1500
	s.PromptOverride = "You write product copy."
	_, err := p.Generate(context.Background(), Request{
		Prompt:   "Describe the chair",
		ModelID:  "o3-mini",
		Context:  prompt.Context{FieldHandle: "body", Format: formatter.Markdown},
		Settings: s,
	})
	require.NoError(t, err)

	assert.Equal(t, params.Override{MaxTokens: 1500}, resolver.override)
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "o3-mini", req.Model)
	assert.Equal(t, modelcatalog.TokenParamMaxCompletionTokens, req.TokenParam)
	assert.Equal(t, 2000, req.TokenValue)
	assert.Nil(t, req.Temperature)
	assert.Equal(t, modelcatalog.ReasoningEffortLow, req.ReasoningEffort)
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: prompt.BuildSystemPrompt("You write product copy.", prompt.Context{FieldHandle: "body", Format: formatter.Markdown})},
		{Role: RoleUser, Content: "Describe the chair"},
	}, req.Messages)
}

func TestGenerate_DefaultsToSettingsModelAndPrompt(t *testing.T) {
	client := &stubClient{script: []result{ok("done")}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	s := settings(1)
	s.PromptOverride = "   "
	_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: s})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.requests[0].Model)
	assert.Equal(t, prompt.DefaultSystemPrompt, client.requests[0].Messages[0].Content)
}

func TestGenerate_TokenParamFallback(t *testing.T) {
	rejection := &ProviderError{
		StatusCode: 400,
		Code:       "unsupported_parameter",
		Param:      "max_tokens",
		Message:    "Unsupported parameter: 'max_tokens' is not supported with this model. Use 'max_completion_tokens' instead.",
	}
	client := &stubClient{script: []result{fail(rejection), ok("fixed")}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	got, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(3)})
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
	require.Len(t, client.requests, 2)
	assert.Equal(t, modelcatalog.TokenParamMaxTokens, client.requests[0].TokenParam)
	assert.Equal(t, modelcatalog.TokenParamMaxCompletionTokens, client.requests[1].TokenParam)
	assert.Equal(t, client.requests[0].TokenValue, client.requests[1].TokenValue)
	assert.Empty(t, sleeper.waits, "fallback does not back off")
}

func TestGenerate_TemperatureFallback(t *testing.T) {
	rejection := errors.New("Unsupported value: 'temperature' does not support 0.1 with this model. Only the default (1) value is supported.")
	client := &stubClient{script: []result{fail(rejection), ok("fixed")}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	got, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(3)})
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
	require.Len(t, client.requests, 2)
	assert.NotNil(t, client.requests[0].Temperature)
	assert.Nil(t, client.requests[1].Temperature)
}

func TestGenerate_FallbacksChain(t *testing.T) {
	client := &stubClient{script: []result{
		fail(&ProviderError{StatusCode: 400, Param: "max_tokens", Message: "max_tokens is not supported"}),
		fail(&ProviderError{StatusCode: 400, Param: "temperature", Message: "temperature is not supported"}),
		ok("fixed"),
	}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	got, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(1)})
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
	require.Len(t, client.requests, 3)
	last := client.requests[2]
	assert.Equal(t, modelcatalog.TokenParamMaxCompletionTokens, last.TokenParam)
	assert.Nil(t, last.Temperature)
}

func TestGenerate_FailedFallbackContinuesRetryLoop(t *testing.T) {
	rejection := &ProviderError{StatusCode: 400, Param: "max_tokens", Message: "max_tokens is not supported"}
	fallbackErr := errors.New("upstream timeout")
	client := &stubClient{script: []result{
		fail(rejection),
		fail(fallbackErr),
		ok("recovered"),
	}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	got, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(3)})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.waits)
	require.Len(t, client.requests, 3)
	assert.Equal(t, modelcatalog.TokenParamMaxCompletionTokens, client.requests[2].TokenParam, "adjustment is kept")
}

func TestGenerate_FallbackUsedOncePerGeneration(t *testing.T) {
	maxTokensRejected := &ProviderError{StatusCode: 400, Code: "unsupported_parameter", Param: "max_tokens", Message: "Unsupported parameter: 'max_tokens'"}
	completionRejected := &ProviderError{StatusCode: 400, Code: "unsupported_parameter", Param: "max_completion_tokens", Message: "Unsupported parameter: 'max_completion_tokens'"}
	client := &stubClient{script: []result{fail(maxTokensRejected), fail(completionRejected), fail(maxTokensRejected)}}
	sleeper := &sleepRecorder{}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(2)})
	require.Error(t, err)
	// attempt 1 plus its fallback, then attempt 2 without another fallback.
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, modelcatalog.TokenParamMaxTokens, client.requests[2].TokenParam, "refused swap is undone")
	assert.ErrorIs(t, err, maxTokensRejected)
}

func TestGenerate_RefusedTokenSwapReturnsOriginalError(t *testing.T) {
	maxTokensRejected := &ProviderError{StatusCode: 400, Code: "unsupported_parameter", Param: "max_tokens", Message: "Unsupported parameter: 'max_tokens'"}
	client := &stubClient{script: []result{
		fail(maxTokensRejected),
		fail(errors.New("Unrecognized request argument supplied: max_completion_tokens")),
	}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(1)})
	require.Error(t, err)
	assert.Equal(t, 2, client.calls())
	assert.EqualError(t, err, "Unsupported parameter: 'max_tokens'")
}

func TestGenerate_ValueErrorsAreNotFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
	}{
		{
			name: "token limit too large",
			err:  &ProviderError{StatusCode: 400, Code: "invalid_value", Param: "max_tokens", Message: "max_tokens is too large: 100000. This model supports at most 16384 completion tokens, whereas you provided 100000."},
		},
		{
			name: "temperature out of range",
			err:  &ProviderError{StatusCode: 400, Code: "decimal_above_max_value", Param: "temperature", Message: "Invalid 'temperature': decimal above maximum value. Expected a value <= 2, but got 5 instead."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{script: []result{fail(tt.err)}}
			p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

			_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(3)})
			require.Error(t, err)
			assert.Equal(t, tt.err.Message, err.Error())
			require.Len(t, client.requests, 3, "one call per attempt, no adjusted calls")
			for _, req := range client.requests {
				assert.Equal(t, modelcatalog.TokenParamMaxTokens, req.TokenParam)
				assert.NotNil(t, req.Temperature)
			}
		})
	}
}

func TestGenerate_TemperatureFallbackNeedsTemperature(t *testing.T) {
	rejection := errors.New("temperature is not supported")
	client := &stubClient{script: []result{fail(rejection)}}
	resolver := &stubResolver{resolved: params.Resolved{TokenParam: modelcatalog.TokenParamMaxTokens, TokenValue: 100}}
	p := newPipeline(client, resolver, &sleepRecorder{}, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(1)})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls())
}

func TestGenerate_InvalidTokenValueFailsFast(t *testing.T) {
	for _, v := range []int{0, -5} {
		client := &stubClient{script: []result{ok("never")}}
		resolver := &stubResolver{resolved: params.Resolved{TokenParam: modelcatalog.TokenParamMaxTokens, TokenValue: v}}
		p := newPipeline(client, resolver, &sleepRecorder{}, nil)

		_, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(3)})
		var perr *InvalidParameterError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, v, perr.Value)
		assert.Zero(t, client.calls())
	}
}

func TestGenerate_ResolverErrorIsNotRetried(t *testing.T) {
	client := &stubClient{script: []result{ok("never")}}
	notFound := &params.ModelNotFoundError{ID: "gpt-9"}
	p := newPipeline(client, &stubResolver{err: notFound}, &sleepRecorder{}, nil)

	_, err := p.Generate(context.Background(), Request{Prompt: "x", ModelID: "gpt-9", Settings: settings(3)})
	var nf *params.ModelNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Zero(t, client.calls())
}

func TestGenerate_EmptyContent(t *testing.T) {
	tests := []struct {
		name    string
		resp    *ChatResponse
		wantLog string
	}{
		{
			name:    "truncated",
			resp:    &ChatResponse{Choices: []Choice{{Content: "", FinishReason: FinishReasonLength}}},
			wantLog: "output truncated by token limit",
		},
		{
			name:    "filtered",
			resp:    &ChatResponse{Choices: []Choice{{Content: "  ", FinishReason: "content_filter"}}},
			wantLog: "finish_reason=content_filter",
		},
		{
			name:    "no choices",
			resp:    &ChatResponse{},
			wantLog: "provider returned no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			client := &stubClient{script: []result{{resp: tt.resp}}}
			sleeper := &sleepRecorder{}
			p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, sleeper, logger)

			got, err := p.Generate(context.Background(), Request{
				Prompt:   "x",
				Context:  prompt.Context{Format: formatter.HTML},
				Settings: settings(3),
			})
			require.NoError(t, err)
			assert.Equal(t, "", got)
			assert.Equal(t, 1, client.calls(), "empty content is not retried")
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), "request_id=req-1")
		})
	}
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	callErr := errors.New("boom")
	client := &stubClient{script: []result{fail(callErr)}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	_, err := p.Generate(ctx, Request{Prompt: "x", Settings: settings(3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, callErr)
	assert.Equal(t, 1, client.calls())
}

func TestGenerate_ConcurrentCalls(t *testing.T) {
	client := &stubClient{script: []result{ok("same")}}
	p := newPipeline(client, &stubResolver{resolved: defaultResolved()}, &sleepRecorder{}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Generate(context.Background(), Request{Prompt: "x", Settings: settings(1)})
			assert.NoError(t, err)
			assert.Equal(t, "same", got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, client.calls())
}

func TestDefaultRequestIDs(t *testing.T) {
	a, b := newRequestID(), newRequestID()
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}
