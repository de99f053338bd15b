package registry

import "strings"

// NormalizeTags trims every tag, drops empties and collapses duplicates.
// The first occurrence of each tag keeps its position so output is
// deterministic, though callers must not rely on ordering.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}

// SplitTagString splits a comma-separated tag string into individual tags,
// trimming each segment and dropping empty ones.
func SplitTagString(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}
