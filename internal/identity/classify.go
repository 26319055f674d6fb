// Package identity classifies raw item names and builds canonical
// marketplace paths from the result.
package identity

import (
	"regexp"
	"strings"
)

// rule is one entry of the ordered classification list
type rule struct {
	matches func(name, lower string) bool
	extract func(name, lower string) ParsedIdentity
}

// stickerPattern is one structured sticker sub-pattern
type stickerPattern struct {
	category Category
	re       *regexp.Regexp
	extract  func(m []string) ParsedIdentity
}

var (
	// weapon | skin name (wear); the skin name may carry its own parenthesized group
	glovePattern = regexp.MustCompile(`^([^|]+)\s*\|\s*([^(]+(?:\([^)]+\))?)\s*\(([^)]+)\)`)
	skinPattern  = regexp.MustCompile(`^([^|]+)\|\s*([^(]+(?:\([^)]+\))?)\s*\(([^)]+)\)`)

	stickerWithFinish  = regexp.MustCompile(`(?i)^Sticker\s*\|\s*([^(|]+)\s*\(([^)]+)\)\s*\|\s*([^|]+)`)
	stickerTournament  = regexp.MustCompile(`(?i)^Sticker\s*\|\s*([^|]+)\|\s*([^|]+)`)
	stickerWithSubtype = regexp.MustCompile(`(?i)^Sticker\s*\|\s*([^(]+)\(([^)]+)\)`)
	// Written identically to stickerWithFinish, so it never matches first.
	// Kept until the intended autograph naming is confirmed.
	stickerAutograph = regexp.MustCompile(`(?i)^Sticker\s*\|\s*([^(|]+)\s*\(([^)]+)\)\s*\|\s*([^|]+)`)

	markerStripper = strings.NewReplacer("★", "", "StatTrak™", "", "Souvenir", "")
)

var stickerPatterns = []stickerPattern{
	{
		category: CategoryTournamentStickerWithFinish,
		re:       stickerWithFinish,
		extract: func(m []string) ParsedIdentity {
			return ParsedIdentity{Team: trim(m[1]), Finish: trim(m[2]), Tournament: trim(m[3])}
		},
	},
	{
		category: CategoryTournamentSticker,
		re:       stickerTournament,
		extract: func(m []string) ParsedIdentity {
			return ParsedIdentity{Team: trim(m[1]), Tournament: trim(m[2])}
		},
	},
	{
		category: CategoryPlainStickerWithSubtype,
		re:       stickerWithSubtype,
		extract: func(m []string) ParsedIdentity {
			return ParsedIdentity{SkinName: trim(m[1]), Finish: trim(m[2])}
		},
	},
	{
		category: CategoryTournamentAutograph,
		re:       stickerAutograph,
		extract: func(m []string) ParsedIdentity {
			return ParsedIdentity{Player: trim(m[1]), Team: trim(m[2]), Tournament: trim(m[3])}
		},
	},
}

// rules is evaluated in order; the first rule whose predicate holds wins.
// The last rule always matches.
var rules = []rule{
	// pin
	{
		matches: func(name, _ string) bool { return IsPin(name) },
		extract: wholeName(CategoryPin),
	},
	// glove; ahead of containers so "Sport Gloves Case" stays a glove
	{
		matches: func(name, _ string) bool { return IsGlove(name) },
		extract: extractGlove,
	},
	// case, container, souvenir package
	{
		matches: func(name, _ string) bool { return IsContainer(name) },
		extract: wholeName(CategoryContainer),
	},
	// sticker family
	{
		matches: func(_, lower string) bool { return strings.Contains(lower, "sticker") },
		extract: extractSticker,
	},
	// standard skin
	{
		matches: func(_, _ string) bool { return true },
		extract: extractSkin,
	},
}

// Classify determines the category of a raw item name and extracts its
// structured fields. It never fails: names that match no structured pattern
// come back Degraded with a whole-name slug source.
func Classify(raw string) ParsedIdentity {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)

	for _, r := range rules {
		if r.matches(name, lower) {
			return r.extract(name, lower)
		}
	}

	return ParsedIdentity{Category: CategoryFallback, Name: name, Degraded: true}
}

func wholeName(category Category) func(name, lower string) ParsedIdentity {
	return func(name, _ string) ParsedIdentity {
		return ParsedIdentity{Category: category, Name: name}
	}
}

func extractGlove(name, _ string) ParsedIdentity {
	cleaned := stripMarkers(name)

	m := glovePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return ParsedIdentity{Category: CategoryGlove, Name: cleaned, Degraded: true}
	}

	return ParsedIdentity{
		Category: CategoryGlove,
		Name:     cleaned,
		Weapon:   trim(m[1]),
		SkinName: trim(m[2]),
		Wear:     trim(m[3]),
	}
}

func extractSticker(name, _ string) ParsedIdentity {
	for _, p := range stickerPatterns {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id := p.extract(m)
		id.Category = p.category
		id.Name = name
		return id
	}

	return ParsedIdentity{Category: CategorySticker, Name: name, Degraded: true}
}

func extractSkin(name, lower string) ParsedIdentity {
	statTrak := strings.Contains(lower, "stattrak")
	souvenir := strings.Contains(lower, "souvenir")
	cleaned := stripMarkers(name)

	m := skinPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return ParsedIdentity{
			Category: CategoryFallback,
			Name:     cleaned,
			StatTrak: statTrak,
			Souvenir: souvenir,
			Degraded: true,
		}
	}

	return ParsedIdentity{
		Category: CategoryStandardSkin,
		Name:     cleaned,
		Weapon:   trim(m[1]),
		SkinName: trim(m[2]),
		Wear:     trim(m[3]),
		StatTrak: statTrak,
		Souvenir: souvenir,
	}
}

// stripMarkers removes the rarity star, StatTrak and Souvenir markers.
func stripMarkers(name string) string {
	return strings.TrimSpace(markerStripper.Replace(name))
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
