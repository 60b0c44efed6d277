package generate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

func TestClassify(t *testing.T) {
	temp := 0.2
	withTemp := ChatRequest{TokenParam: modelcatalog.TokenParamMaxTokens, Temperature: &temp}
	noTemp := ChatRequest{TokenParam: modelcatalog.TokenParamMaxCompletionTokens}

	tests := []struct {
		name string
		err  error
		req  ChatRequest
		want RejectionReason
	}{
		{
			name: "structured token param",
			err:  &ProviderError{StatusCode: 400, Code: "unsupported_parameter", Param: "max_tokens", Message: "whatever"},
			req:  withTemp,
			want: RejectionTokenParam,
		},
		{
			name: "structured temperature",
			err:  &ProviderError{StatusCode: 400, Code: "unsupported_value", Param: "temperature", Message: "whatever"},
			req:  withTemp,
			want: RejectionTemperature,
		},
		{
			name: "wrapped structured error",
			err:  fmt.Errorf("calling provider: %w", &ProviderError{Code: "unsupported_parameter", Param: "MAX_COMPLETION_TOKENS"}),
			req:  noTemp,
			want: RejectionTokenParam,
		},
		{
			name: "openai token message",
			err:  errors.New("Unsupported parameter: 'max_tokens' is not supported with this model. Use 'max_completion_tokens' instead."),
			req:  withTemp,
			want: RejectionTokenParam,
		},
		{
			name: "other name mentioned",
			err:  errors.New("unrecognized request argument supplied: max_completion_tokens"),
			req:  noTemp,
			want: RejectionTokenParam,
		},
		{
			name: "temperature message",
			err:  errors.New("Unsupported value: 'temperature' does not support 0.2 with this model."),
			req:  withTemp,
			want: RejectionTemperature,
		},
		{
			name: "temperature message without temperature sent",
			err:  errors.New("temperature is not supported"),
			req:  noTemp,
			want: RejectionOther,
		},
		{
			name: "structured token value too large",
			err:  &ProviderError{StatusCode: 400, Code: "invalid_value", Param: "max_tokens", Message: "max_tokens is too large: 100000. This model supports at most 16384 completion tokens, whereas you provided 100000."},
			req:  withTemp,
			want: RejectionOther,
		},
		{
			name: "structured temperature out of range",
			err:  &ProviderError{StatusCode: 400, Code: "decimal_above_max_value", Param: "temperature", Message: "Invalid 'temperature': decimal above maximum value. Expected a value <= 2, but got 5 instead."},
			req:  withTemp,
			want: RejectionOther,
		},
		{
			name: "structured param without code uses wording",
			err:  &ProviderError{StatusCode: 400, Param: "max_tokens", Message: "max_tokens is not supported"},
			req:  withTemp,
			want: RejectionTokenParam,
		},
		{
			name: "structured param on other field",
			err:  &ProviderError{StatusCode: 400, Code: "unsupported_parameter", Param: "top_p", Message: "Unsupported parameter: 'top_p'"},
			req:  withTemp,
			want: RejectionOther,
		},
		{
			name: "parameter mentioned without rejection",
			err:  errors.New("max_tokens exceeded the rate limit window"),
			req:  withTemp,
			want: RejectionOther,
		},
		{
			name: "rate limit",
			err:  &ProviderError{StatusCode: 429, Code: "rate_limit_exceeded", Message: "Rate limit reached"},
			req:  withTemp,
			want: RejectionOther,
		},
		{
			name: "nil",
			req:  withTemp,
			want: RejectionOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err, tt.req))
		})
	}
}

func TestRejectionReasonString(t *testing.T) {
	assert.Equal(t, "token_param_rejected", RejectionTokenParam.String())
	assert.Equal(t, "temperature_rejected", RejectionTemperature.String())
	assert.Equal(t, "other", RejectionOther.String())
}

func TestProviderErrorMessage(t *testing.T) {
	assert.Equal(t, "Rate limit reached", (&ProviderError{StatusCode: 429, Message: "Rate limit reached"}).Error())
	assert.Equal(t, "provider returned status 500", (&ProviderError{StatusCode: 500}).Error())
}
