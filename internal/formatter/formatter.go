// Package formatter normalizes raw model output for the field it is destined for.
package formatter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Format is the closed set of content shapes a target field can accept.
type Format string

const (
	Plain    Format = "plain"
	HTML     Format = "html"
	Markdown Format = "markdown"
)

// ParseFormat maps s onto a Format. Anything unrecognized is Plain.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case HTML:
		return HTML
	case Markdown:
		return Markdown
	}
	return Plain
}

var stripPolicy = bluemonday.StrictPolicy()

// Apply normalizes raw for the target format.
//
// Surrounding whitespace and one layer of matching quotes are always removed.
// HTML output without any tag is escaped and wrapped in a paragraph, markdown
// is passed through and everything else is reduced to single-spaced text.
func Apply(raw string, target Format) string {
	content := unquote(strings.TrimSpace(raw))

	switch target {
	case HTML:
		if strings.Contains(content, "<") {
			return content
		}
		return wrapParagraph(content)
	case Markdown:
		return content
	default:
		return plain(content)
	}
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func wrapParagraph(s string) string {
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

func plain(s string) string {
	stripped := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}
