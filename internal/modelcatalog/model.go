package modelcatalog

// TokenParam is the request field a provider expects the output token limit under.
type TokenParam string

const (
	TokenParamMaxTokens           TokenParam = "max_tokens"
	TokenParamMaxCompletionTokens TokenParam = "max_completion_tokens"
)

// Valid reports whether p is one of the two names providers accept.
func (p TokenParam) Valid() bool {
	return p == TokenParamMaxTokens || p == TokenParamMaxCompletionTokens
}

// Other returns the alternative token parameter name.
func (p TokenParam) Other() TokenParam {
	if p == TokenParamMaxCompletionTokens {
		return TokenParamMaxTokens
	}
	return TokenParamMaxCompletionTokens
}

// ReasoningEffort is the depth of internal deliberation requested from reasoning models.
type ReasoningEffort string

const (
	ReasoningEffortMinimal ReasoningEffort = "minimal"
	ReasoningEffortLow     ReasoningEffort = "low"
	ReasoningEffortMedium  ReasoningEffort = "medium"
	ReasoningEffortHigh    ReasoningEffort = "high"
)

// Valid reports whether e is one of the enumerated effort levels.
func (e ReasoningEffort) Valid() bool {
	switch e {
	case ReasoningEffortMinimal, ReasoningEffortLow, ReasoningEffortMedium, ReasoningEffortHigh:
		return true
	}
	return false
}

const (
	// DefaultTemperature is used when a temperature-capable model declares none.
	DefaultTemperature = 0.1
	// DefaultReasoningEffort is used when a reasoning model declares no effort.
	DefaultReasoningEffort = ReasoningEffortMedium
)

// Descriptor is the declarative record of one model's capabilities and API quirks.
// Descriptors returned by a Catalog are shared and must not be modified.
type Descriptor struct {
	ID            string        `json:"id" yaml:"id" jsonschema:"required,description=Model identifier sent to the provider"`
	DisplayName   string        `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Capabilities  Capabilities  `json:"capabilities" yaml:"capabilities" jsonschema:"required"`
	APIParameters APIParameters `json:"apiParameters" yaml:"apiParameters" jsonschema:"required"`
	VersionInfo   VersionInfo   `json:"versionInfo,omitempty" yaml:"versionInfo,omitempty"`
	UIDisplay     UIDisplay     `json:"uiDisplay,omitempty" yaml:"uiDisplay,omitempty"`

	// Source is the file the descriptor was read from.
	Source string `json:"-" yaml:"-"`
}

type Capabilities struct {
	SupportsVision bool `json:"supportsVision" yaml:"supportsVision" jsonschema:"required"`
}

type APIParameters struct {
	TokenParameterName      TokenParam      `json:"tokenParameterName" yaml:"tokenParameterName" jsonschema:"required,enum=max_tokens,enum=max_completion_tokens"`
	DefaultTokenLimit       int             `json:"defaultTokenLimit,omitempty" yaml:"defaultTokenLimit,omitempty" jsonschema:"minimum=1"`
	SupportsTemperature     *bool           `json:"supportsTemperature,omitempty" yaml:"supportsTemperature,omitempty"`
	DefaultTemperature      *float64        `json:"defaultTemperature,omitempty" yaml:"defaultTemperature,omitempty"`
	SupportsReasoningEffort *bool           `json:"supportsReasoningEffort,omitempty" yaml:"supportsReasoningEffort,omitempty"`
	DefaultReasoningEffort  ReasoningEffort `json:"defaultReasoningEffort,omitempty" yaml:"defaultReasoningEffort,omitempty" jsonschema:"enum=minimal,enum=low,enum=medium,enum=high"`
}

// TemperatureSupported defaults to true when the descriptor is silent.
func (p APIParameters) TemperatureSupported() bool {
	return p.SupportsTemperature == nil || *p.SupportsTemperature
}

// Temperature returns the declared default temperature or DefaultTemperature.
func (p APIParameters) Temperature() float64 {
	if p.DefaultTemperature == nil {
		return DefaultTemperature
	}
	return *p.DefaultTemperature
}

// ReasoningEffortSupported defaults to false when the descriptor is silent.
func (p APIParameters) ReasoningEffortSupported() bool {
	return p.SupportsReasoningEffort != nil && *p.SupportsReasoningEffort
}

// ReasoningEffort returns the declared default effort or DefaultReasoningEffort.
func (p APIParameters) ReasoningEffort() ReasoningEffort {
	if p.DefaultReasoningEffort == "" {
		return DefaultReasoningEffort
	}
	return p.DefaultReasoningEffort
}

type VersionInfo struct {
	// MaxContextTokens caps the token limit sent to the provider; zero means no cap.
	MaxContextTokens int    `json:"maxContextTokens,omitempty" yaml:"maxContextTokens,omitempty" jsonschema:"minimum=1"`
	ReleaseDate      string `json:"releaseDate,omitempty" yaml:"releaseDate,omitempty"`
}

type UIDisplay struct {
	ShowInDropdown bool    `json:"showInDropdown,omitempty" yaml:"showInDropdown,omitempty"`
	Priority       float64 `json:"priority,omitempty" yaml:"priority,omitempty"`
	Badge          string  `json:"badge,omitempty" yaml:"badge,omitempty"`
	Recommended    bool    `json:"recommended,omitempty" yaml:"recommended,omitempty"`
}
