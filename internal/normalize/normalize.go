// Package normalize holds the text preprocessing shared by the ingest and
// query paths. Stored review vectors and query vectors must see identical
// preprocessing or the same words embed to different points.
package normalize

import (
	"regexp"
	"strings"
)

var (
	scriptStyleRegex = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	htmlTagRegex     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML markup, collapses whitespace, and lowercases.
// Returns "" for input with no embeddable text.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = scriptStyleRegex.ReplaceAllString(text, " ")
	text = htmlTagRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.ToLower(strings.TrimSpace(text))
}
