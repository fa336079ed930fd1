// Package rules contains the deterministic half of the categorization
// pipeline: cache-key normalization, tag validation, and the fixed merchant
// and category rule tables. Everything here is pure and performs no I/O.
package rules

import "strings"

const (
	maxTags      = 20
	maxTagLength = 50
)

// NormalizeCacheKey canonicalizes a merchant string for cache lookups.
// Both persistent caches index on this form.
func NormalizeCacheKey(merchant string) string {
	return strings.ToUpper(strings.TrimSpace(merchant))
}

// ValidateTags sanitizes a free-form tag list: trims each tag to 50
// characters, drops empties and duplicates, and caps the result at 20 tags.
// First-occurrence order is preserved. Malformed input degrades to fewer
// tags, never an error.
func ValidateTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	validated := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		clean := strings.TrimSpace(tag)
		if len(clean) > maxTagLength {
			clean = clean[:maxTagLength]
		}
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		validated = append(validated, clean)
		seen[clean] = struct{}{}
	}

	if len(validated) == 0 {
		return nil
	}
	return validated
}
