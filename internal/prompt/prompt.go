// Package prompt composes the system instruction sent ahead of the editor's prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/spachava753/fieldgen/internal/formatter"
)

// DefaultSystemPrompt is used when no prompt override is configured.
const DefaultSystemPrompt = "You are a professional content writer working inside a content management system. " +
	"Write clear, accurate and engaging content that fits the field it will be stored in. " +
	"Respond with the content only, without any preamble, explanation or surrounding quotes."

// Context describes where the generated content will end up.
type Context struct {
	EntryTypeHandle string           `json:"entryType,omitempty" yaml:"entryType,omitempty"`
	SectionHandle   string           `json:"section,omitempty" yaml:"section,omitempty"`
	FieldHandle     string           `json:"field,omitempty" yaml:"field,omitempty"`
	Format          formatter.Format `json:"format,omitempty" yaml:"format,omitempty"`
	ExistingContent string           `json:"existingContent,omitempty" yaml:"existingContent,omitempty"`
	EntryTitle      string           `json:"entryTitle,omitempty" yaml:"entryTitle,omitempty"`
}

// IsZero reports whether no context field is set.
func (c Context) IsZero() bool {
	return c == Context{}
}

// BuildSystemPrompt appends one instruction line per available context field
// to base: entry type, target field, format directive and a note about any
// existing content. A zero context returns base unchanged.
func BuildSystemPrompt(base string, ctx Context) string {
	if ctx.IsZero() {
		return base
	}

	var lines []string
	if ctx.EntryTypeHandle != "" {
		lines = append(lines, fmt.Sprintf("The content is for an entry of type %q.", ctx.EntryTypeHandle))
	}
	if ctx.FieldHandle != "" {
		lines = append(lines, fmt.Sprintf("The content will be placed in the %q field.", ctx.FieldHandle))
	}
	lines = append(lines, formatDirective(ctx.Format))
	if strings.TrimSpace(ctx.ExistingContent) != "" {
		lines = append(lines, "The field already contains the following content; take it into account:\n"+ctx.ExistingContent)
	}

	return base + "\n\n" + strings.Join(lines, "\n")
}

func formatDirective(f formatter.Format) string {
	switch f {
	case formatter.HTML:
		return "Format the content as clean HTML with tags."
	case formatter.Markdown:
		return "Format the content as Markdown."
	default:
		return "Format the content as plain text."
	}
}
