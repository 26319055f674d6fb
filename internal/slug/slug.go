// Package slug turns free-form item text into URL-safe tokens.
package slug

import (
	"regexp"
	"strings"
)

var (
	// disallowed matches anything that is not a lowercase letter, digit, or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// hyphenRuns collapses runs of hyphens into one.
	hyphenRuns = regexp.MustCompile(`-{2,}`)

	// rewrites are applied one after another; order matters.
	rewrites = []struct{ old, new string }{
		{"★ ", ""},
		{"stattrak™", "stattrak"},
		{" | ", "-"},
		{" ", "-"},
		{"&", "and"},
		{"(", ""},
		{")", ""},
	}
)

// Sanitize converts text into a slug of lowercase ASCII letters, digits and
// single hyphens with no leading or trailing hyphen.
// Example: "StatTrak™ AWP | Asiimov" -> "stattrak-awp-asiimov"
func Sanitize(text string) string {
	s := strings.ToLower(text)
	for _, r := range rewrites {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Join concatenates the non-empty slugs with a single hyphen.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}
