// Package normalize turns raw AI completion text into fully-populated
// records. Parsing is strict-first with a best-effort text scan fallback, and
// every field is validated independently against its documented default, so
// normalization never fails: downstream phases depend on structural
// completeness, not on AI-output quality.
package normalize

import "strings"

// CleanJSON extracts a JSON object from text that may contain markdown code
// fences or surrounding prose.
func CleanJSON(text string) string {
	return clean(text, "{", "}")
}

// CleanJSONArray extracts a JSON array from text that may contain markdown
// code fences or surrounding prose.
func CleanJSONArray(text string) string {
	return clean(text, "[", "]")
}

func clean(text, open, close string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
