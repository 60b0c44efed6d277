// Package params turns a model descriptor plus caller settings into the
// concrete parameters of one provider request.
package params

import (
	"fmt"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

// Bounds applied to a caller supplied token limit.
const (
	MinOverrideTokens = 100
	MaxOverrideTokens = 4000
)

// ModelNotFoundError is returned when the requested model id is not in the catalog.
type ModelNotFoundError struct {
	ID string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found in model catalog", e.ID)
}

// Models looks up descriptors by id. *modelcatalog.Catalog implements it.
type Models interface {
	FindModel(id string) (*modelcatalog.Descriptor, bool)
}

// Override carries the caller settings that take part in resolution.
type Override struct {
	// MaxTokens replaces the model default when non-zero.
	MaxTokens int
}

// Resolved holds the concrete API parameters for one call.
type Resolved struct {
	Model      string
	TokenParam modelcatalog.TokenParam
	TokenValue int
	// Temperature is nil when the model does not accept one.
	Temperature *float64
	// ReasoningEffort is empty when the model does not accept one.
	ReasoningEffort modelcatalog.ReasoningEffort
}

type Resolver struct {
	models Models
}

func NewResolver(models Models) *Resolver {
	return &Resolver{models: models}
}

// Resolve computes the request parameters for modelID.
//
// The token value starts at the model's default limit, is replaced by the
// override clamped to [MinOverrideTokens, MaxOverrideTokens] when one is
// given, and is finally capped at the model's context window if it declares
// one.
func (r *Resolver) Resolve(modelID string, override Override) (Resolved, error) {
	d, ok := r.models.FindModel(modelID)
	if !ok {
		return Resolved{}, &ModelNotFoundError{ID: modelID}
	}

	api := d.APIParameters
	if !api.TokenParameterName.Valid() {
		return Resolved{}, &modelcatalog.ConfigurationError{
			Model:  d.ID,
			Field:  "apiParameters.tokenParameterName",
			Reason: fmt.Sprintf("%q must be one of %s, %s", api.TokenParameterName, modelcatalog.TokenParamMaxTokens, modelcatalog.TokenParamMaxCompletionTokens),
		}
	}

	tokens := api.DefaultTokenLimit
	if override.MaxTokens != 0 {
		tokens = clamp(override.MaxTokens, MinOverrideTokens, MaxOverrideTokens)
	}
	if ceiling := d.VersionInfo.MaxContextTokens; ceiling > 0 {
		tokens = min(tokens, ceiling)
	}

	resolved := Resolved{
		Model:      d.ID,
		TokenParam: api.TokenParameterName,
		TokenValue: tokens,
	}
	if api.TemperatureSupported() {
		t := api.Temperature()
		resolved.Temperature = &t
	}
	if api.ReasoningEffortSupported() {
		resolved.ReasoningEffort = api.ReasoningEffort()
	}
	return resolved, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
