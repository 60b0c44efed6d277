package modelcatalog

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is a parsed descriptor source before typing.
type document map[string]any

// isSourceFile reports whether name looks like a descriptor source.
func isSourceFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// parseDocument decodes data based on the file name extension.
func parseDocument(name string, data []byte) (document, error) {
	var doc document
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing JSON descriptor: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing YAML descriptor: %w", err)
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("descriptor is empty")
	}
	return doc, nil
}

// section returns the nested object stored under key, or nil.
func (d document) section(key string) document {
	switch v := d[key].(type) {
	case map[string]any:
		return v
	case document:
		return v
	}
	return nil
}

func (d document) has(key string) bool {
	if d == nil {
		return false
	}
	v, ok := d[key]
	return ok && v != nil
}

func (d document) str(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

func (d document) boolean(key string) (bool, bool) {
	b, ok := d[key].(bool)
	return b, ok
}

func (d document) number(key string) (float64, bool) {
	return toNumber(d[key])
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func isInteger(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

// descriptorFrom builds a Descriptor from a parsed document. Wrongly typed
// values are left at their zero value; Validate reports them.
func descriptorFrom(doc document, source string) *Descriptor {
	d := &Descriptor{
		ID:          strings.TrimSpace(doc.str("id")),
		DisplayName: doc.str("displayName"),
		Description: doc.str("description"),
		Source:      source,
	}

	caps := doc.section("capabilities")
	d.Capabilities.SupportsVision, _ = caps.boolean("supportsVision")

	api := doc.section("apiParameters")
	d.APIParameters.TokenParameterName = TokenParam(api.str("tokenParameterName"))
	if n, ok := api.number("defaultTokenLimit"); ok && isInteger(n) {
		d.APIParameters.DefaultTokenLimit = int(n)
	}
	if b, ok := api.boolean("supportsTemperature"); ok {
		d.APIParameters.SupportsTemperature = &b
	}
	if n, ok := api.number("defaultTemperature"); ok {
		d.APIParameters.DefaultTemperature = &n
	}
	if b, ok := api.boolean("supportsReasoningEffort"); ok {
		d.APIParameters.SupportsReasoningEffort = &b
	}
	d.APIParameters.DefaultReasoningEffort = ReasoningEffort(api.str("defaultReasoningEffort"))

	version := doc.section("versionInfo")
	if n, ok := version.number("maxContextTokens"); ok && isInteger(n) {
		d.VersionInfo.MaxContextTokens = int(n)
	}
	d.VersionInfo.ReleaseDate = version.str("releaseDate")

	ui := doc.section("uiDisplay")
	d.UIDisplay.ShowInDropdown, _ = ui.boolean("showInDropdown")
	d.UIDisplay.Priority, _ = ui.number("priority")
	d.UIDisplay.Badge = ui.str("badge")
	d.UIDisplay.Recommended, _ = ui.boolean("recommended")

	return d
}
