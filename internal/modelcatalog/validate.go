package modelcatalog

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed or missing descriptor field.
type ConfigurationError struct {
	// Model is the descriptor id, or the source name when the id is missing.
	Model  string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model %q: %s %s", e.Model, e.Field, e.Reason)
}

var booleanFields = []struct{ section, key string }{
	{"capabilities", "supportsVision"},
	{"apiParameters", "supportsTemperature"},
	{"apiParameters", "supportsReasoningEffort"},
	{"uiDisplay", "showInDropdown"},
	{"uiDisplay", "recommended"},
}

// checkDocument returns every violation found in doc, never stopping at the first.
func checkDocument(doc document, source string) []*ConfigurationError {
	name := strings.TrimSpace(doc.str("id"))
	if name == "" {
		name = source
	}
	var issues []*ConfigurationError
	report := func(field, format string, args ...any) {
		issues = append(issues, &ConfigurationError{Model: name, Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(doc.str("id")) == "" {
		report("id", "is required")
	}

	caps := doc.section("capabilities")
	if !caps.has("supportsVision") {
		report("capabilities.supportsVision", "is required")
	}

	api := doc.section("apiParameters")
	if !api.has("tokenParameterName") {
		report("apiParameters.tokenParameterName", "is required")
	} else if p := TokenParam(api.str("tokenParameterName")); !p.Valid() {
		report("apiParameters.tokenParameterName", "%v must be one of %s, %s", api["tokenParameterName"], TokenParamMaxTokens, TokenParamMaxCompletionTokens)
	}

	for _, f := range booleanFields {
		sec := doc.section(f.section)
		if !sec.has(f.key) {
			continue
		}
		if _, ok := sec.boolean(f.key); !ok {
			report(f.section+"."+f.key, "must be a boolean, got %T", sec[f.key])
		}
	}

	if api.has("defaultTokenLimit") {
		if n, ok := api.number("defaultTokenLimit"); !ok || !isInteger(n) || n <= 0 {
			report("apiParameters.defaultTokenLimit", "must be a positive integer, got %v", api["defaultTokenLimit"])
		}
	}
	if api.has("defaultTemperature") {
		if _, ok := api.number("defaultTemperature"); !ok {
			report("apiParameters.defaultTemperature", "must be numeric, got %v", api["defaultTemperature"])
		}
	}
	if reasoning, _ := api.boolean("supportsReasoningEffort"); reasoning && api.has("defaultReasoningEffort") {
		if e := ReasoningEffort(api.str("defaultReasoningEffort")); !e.Valid() {
			report("apiParameters.defaultReasoningEffort", "%v must be one of minimal, low, medium, high", api["defaultReasoningEffort"])
		}
	}

	version := doc.section("versionInfo")
	if version.has("maxContextTokens") {
		if n, ok := version.number("maxContextTokens"); !ok || !isInteger(n) || n <= 0 {
			report("versionInfo.maxContextTokens", "must be a positive integer, got %v", version["maxContextTokens"])
		}
	}

	ui := doc.section("uiDisplay")
	if ui.has("priority") {
		if _, ok := ui.number("priority"); !ok {
			report("uiDisplay.priority", "must be numeric, got %v", ui["priority"])
		}
	}

	return issues
}
