package identity

import (
	"regexp"
	"strings"
)

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9 ]`)
	whitespace    = regexp.MustCompile(`\s+`)

	gloveKeywords = []string{
		"hand wraps",
		"moto gloves",
		"specialist gloves",
		"sport gloves",
		"driver gloves",
		"hydra gloves",
		"broken fang gloves",
		"bloodhound gloves",
	}

	containerNames = normalizedSet(
		"esports 2013 case", "esports 2013 winter case", "esports 2014 summer case",
		"csgo weapon case", "csgo weapon case 2", "csgo weapon case 3",
		"cs20 case", "horizon case", "danger zone case", "glove case",
		"revolver case", "gamma case", "gamma 2 case", "chroma case", "chroma 2 case",
		"chroma 3 case", "falchion case", "shadow case", "operation vanguard weapon case",
		"operation breakout weapon case", "operation phoenix weapon case", "operation hydra case",
		"operation bravo case", "operation wildfire case", "winter offensive weapon case",
		"huntsman weapon case", "breakout case", "spectrum case", "spectrum 2 case", "clutch case",
	)
)

func normalizedSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[normalizeContainerName(n)] = struct{}{}
	}
	return set
}

// normalizeContainerName lowercases, drops everything but letters, digits and
// spaces, and collapses whitespace.
func normalizeContainerName(name string) string {
	name = strings.ToLower(name)
	name = nonAlnumSpace.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// IsContainer reports whether name refers to a case, container or souvenir package.
func IsContainer(name string) bool {
	norm := normalizeContainerName(name)
	if strings.HasSuffix(norm, " case") ||
		strings.HasSuffix(norm, " weapon case") ||
		strings.HasSuffix(norm, " container") ||
		strings.Contains(norm, " souvenir package") {
		return true
	}
	_, ok := containerNames[norm]
	return ok
}

// IsGlove reports whether name contains one of the glove family keywords.
func IsGlove(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range gloveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsPin reports whether the last word of name is "pin".
func IsPin(name string) bool {
	fields := strings.Fields(strings.ToLower(name))
	return len(fields) > 0 && fields[len(fields)-1] == "pin"
}
