package modelcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/spachava753/fieldgen/internal/urlhandler"
)

// ModelsDevAPI is the URL for the models.dev registry
const ModelsDevAPI = "https://models.dev/api.json"

// RegistryProvider represents a provider in the models.dev registry
type RegistryProvider struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	API    string                   `json:"api,omitempty"`
	Models map[string]RegistryModel `json:"models"`
}

// RegistryModel represents a model in the models.dev registry
type RegistryModel struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Reasoning   bool                `json:"reasoning"`
	Temperature *bool               `json:"temperature,omitempty"`
	ReleaseDate string              `json:"release_date,omitempty"`
	Modalities  *RegistryModalities `json:"modalities,omitempty"`
	Limit       *RegistryLimit      `json:"limit,omitempty"`
}

type RegistryModalities struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// RegistryLimit represents token limits for a model
type RegistryLimit struct {
	Context int `json:"context"`
	Output  int `json:"output"`
}

// FetchRegistry fetches the registry document from url, normally ModelsDevAPI.
func FetchRegistry(ctx context.Context, url string, cfg *urlhandler.Config) (map[string]RegistryProvider, error) {
	doc, err := urlhandler.Fetch(ctx, url, cfg)
	if err != nil {
		return nil, err
	}

	var registry map[string]RegistryProvider
	if err := json.Unmarshal(doc.Data, &registry); err != nil {
		return nil, fmt.Errorf("decoding registry: %w", err)
	}

	return registry, nil
}

// LookupRegistryModel looks up a provider and model in the registry
func LookupRegistryModel(registry map[string]RegistryProvider, providerID, modelID string) (*RegistryModel, error) {
	provider, ok := registry[providerID]
	if !ok {
		return nil, fmt.Errorf("provider %q not found in models.dev registry", providerID)
	}

	model, ok := provider.Models[modelID]
	if !ok {
		available := make([]string, 0, len(provider.Models))
		for id := range provider.Models {
			available = append(available, id)
		}
		sort.Strings(available)
		return nil, fmt.Errorf("model %q not found for provider %q. Available models: %v", modelID, providerID, available)
	}
	if model.ID == "" {
		model.ID = modelID
	}

	return &model, nil
}

// DescriptorFromRegistry converts a registry entry into a descriptor.
// Reasoning models are given max_completion_tokens and reasoning effort
// support; everything else uses max_tokens. Imported models are shown in the
// dropdown.
func DescriptorFromRegistry(model *RegistryModel) (*Descriptor, error) {
	if model.Limit == nil || model.Limit.Context <= 0 || model.Limit.Output <= 0 {
		return nil, fmt.Errorf("model %q does not include required context/output limits in models.dev", model.ID)
	}

	d := &Descriptor{
		ID:          model.ID,
		DisplayName: model.Name,
		Capabilities: Capabilities{
			SupportsVision: model.Modalities != nil && slices.Contains(model.Modalities.Input, "image"),
		},
		APIParameters: APIParameters{
			TokenParameterName: TokenParamMaxTokens,
			DefaultTokenLimit:  model.Limit.Output,
		},
		VersionInfo: VersionInfo{
			MaxContextTokens: model.Limit.Context,
			ReleaseDate:      model.ReleaseDate,
		},
		UIDisplay: UIDisplay{ShowInDropdown: true},
	}

	if model.Temperature != nil {
		supported := *model.Temperature
		d.APIParameters.SupportsTemperature = &supported
	}
	if model.Reasoning {
		supported := true
		d.APIParameters.TokenParameterName = TokenParamMaxCompletionTokens
		d.APIParameters.SupportsReasoningEffort = &supported
		d.APIParameters.DefaultReasoningEffort = DefaultReasoningEffort
	}

	return d, nil
}
