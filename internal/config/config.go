package config

import (
	"time"

	"github.com/spachava753/fieldgen/internal/formatter"
)

// Defaults applied when the settings file leaves a field empty.
const (
	DefaultMaxRetries        = 3
	DefaultAPITimeoutSeconds = 30
	DefaultModelsDir         = "models"
)

// Settings is the plugin-level configuration read by the generation core.
type Settings struct {
	// APIKey authenticates against the provider. Usually supplied through
	// ${OPENAI_API_KEY} expansion or FIELDGEN_API_KEY.
	APIKey string `yaml:"apiKey" json:"apiKey" jsonschema:"description=Provider API key; environment variables are expanded"`
	// BaseURL overrides the provider endpoint for OpenAI compatible gateways.
	BaseURL string `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty" validate:"omitempty,url"`
	// Model is the descriptor id used when a request does not name one.
	Model string `yaml:"model" json:"model" validate:"required" jsonschema:"required"`

	MaxRetries        int `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty" validate:"min=1,max=10" jsonschema:"minimum=1,maximum=10"`
	APITimeoutSeconds int `yaml:"apiTimeoutSeconds,omitempty" json:"apiTimeoutSeconds,omitempty" validate:"min=10,max=120" jsonschema:"minimum=10,maximum=120"`
	// MaxTokens overrides the model's default token limit; zero keeps the default.
	MaxTokens int `yaml:"maxTokens,omitempty" json:"maxTokens,omitempty" validate:"omitempty,min=100,max=4000" jsonschema:"minimum=0,maximum=4000"`

	// PromptOverride replaces the built-in system prompt when non-blank.
	PromptOverride string `yaml:"promptOverride,omitempty" json:"promptOverride,omitempty"`

	// ModelsDir holds the model descriptor files. Relative paths are resolved
	// against the directory of the settings file.
	ModelsDir string `yaml:"modelsDir,omitempty" json:"modelsDir,omitempty"`

	// FieldTypeSupport maps external field type identifiers to the format
	// generated content takes in them.
	FieldTypeSupport map[string]FieldTypeSetting `yaml:"fieldTypeSupport,omitempty" json:"fieldTypeSupport,omitempty" validate:"dive"`
}

// FieldTypeSetting enables generation for one external field type.
type FieldTypeSetting struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Format  string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=plain html markdown" jsonschema:"enum=plain,enum=html,enum=markdown"`
}

// DefaultFieldTypeSupport is used when the settings file declares no mapping.
func DefaultFieldTypeSupport() map[string]FieldTypeSetting {
	return map[string]FieldTypeSetting{
		"plain_text": {Enabled: true, Format: string(formatter.Plain)},
		"rich_text":  {Enabled: true, Format: string(formatter.HTML)},
		"markdown":   {Enabled: true, Format: string(formatter.Markdown)},
		"table":      {Enabled: false, Format: string(formatter.Plain)},
	}
}

// APITimeout is the per-attempt deadline for provider calls.
func (s Settings) APITimeout() time.Duration {
	return time.Duration(s.APITimeoutSeconds) * time.Second
}

// FormatFor maps an external field type onto a content format. It reports
// false when the field type is unknown or generation is disabled for it.
func (s Settings) FormatFor(fieldType string) (formatter.Format, bool) {
	setting, ok := s.FieldTypeSupport[fieldType]
	if !ok || !setting.Enabled {
		return "", false
	}
	return formatter.ParseFormat(setting.Format), true
}

// applyDefaults fills zero values with their defaults.
func (s *Settings) applyDefaults() {
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.APITimeoutSeconds == 0 {
		s.APITimeoutSeconds = DefaultAPITimeoutSeconds
	}
	if s.ModelsDir == "" {
		s.ModelsDir = DefaultModelsDir
	}
	if len(s.FieldTypeSupport) == 0 {
		s.FieldTypeSupport = DefaultFieldTypeSupport()
	}
}
