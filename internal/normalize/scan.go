package normalize

import "strings"

// scanField looks for a "Key: value" line matching any of the given keys,
// case-insensitively. Used as the best-effort fallback when strict JSON
// parsing fails.
func scanField(text string, keys ...string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*# "))
		colon := strings.Index(line, ":")
		if colon <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(strings.Trim(line[:colon], "\"'*")))
		for _, key := range keys {
			if name == strings.ToLower(key) {
				value := strings.TrimSpace(strings.Trim(line[colon+1:], "\"', "))
				if value != "" {
					return value
				}
			}
		}
	}
	return ""
}

// scanList collects bullet or numbered list entries from free text, capped at
// max items. Returns nil if nothing usable is found.
func scanList(text string, max int) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		var item string
		switch {
		case strings.HasPrefix(trimmed, "- "):
			item = strings.TrimPrefix(trimmed, "- ")
		case strings.HasPrefix(trimmed, "* "):
			item = strings.TrimPrefix(trimmed, "* ")
		case len(trimmed) > 2 && trimmed[0] >= '1' && trimmed[0] <= '9' && (trimmed[1] == '.' || trimmed[1] == ')'):
			item = strings.TrimSpace(trimmed[2:])
		default:
			continue
		}
		item = strings.TrimSpace(strings.Trim(item, "\"'"))
		if item == "" || strings.Contains(item, ":") {
			continue
		}
		items = append(items, item)
		if len(items) >= max {
			break
		}
	}
	return items
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// orList returns items if non-empty, otherwise fallback.
func orList(items, fallback []string) []string {
	if len(items) > 0 {
		return items
	}
	return fallback
}
