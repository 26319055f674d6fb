package identity

import (
	"regexp"
	"strings"

	"sjsage522/skinpricer/internal/slug"
)

// DefaultBaseURL is the marketplace item root canonical paths hang off
const DefaultBaseURL = "https://pricempire.com/cs2-items"

// Root path segments per category
const (
	RootSkin                = "skin"
	RootGlove               = "glove"
	RootContainer           = "container"
	RootSticker             = "sticker"
	RootTournamentSticker   = "tournament-sticker"
	RootTournamentAutograph = "tournament-autograph"
	RootPin                 = "pin"
)

var (
	roots = map[Category]string{
		CategoryPin:                         RootPin,
		CategoryGlove:                       RootGlove,
		CategoryContainer:                   RootContainer,
		CategoryTournamentStickerWithFinish: RootTournamentSticker,
		CategoryTournamentSticker:           RootTournamentSticker,
		CategoryPlainStickerWithSubtype:     RootSticker,
		CategoryTournamentAutograph:         RootTournamentAutograph,
		CategorySticker:                     RootSticker,
		CategoryStandardSkin:                RootSkin,
		CategoryFallback:                    RootSkin,
	}

	// trailingGroup captures a final parenthesized token, e.g. "Doppler (Phase 2)"
	trailingGroup = regexp.MustCompile(`^(.*)\s+\(([^()]*)\)\s*$`)
)

// Path builds the canonical "<root>/<primary>[/<variant>]" path for id.
// Empty segments are dropped, so the result is always a valid path.
func Path(id ParsedIdentity) string {
	root, ok := roots[id.Category]
	if !ok {
		root = RootSkin
	}

	var primary, variant string
	switch id.Category {
	case CategoryStandardSkin, CategoryGlove:
		if id.Degraded {
			primary = slug.Sanitize(id.Name)
			break
		}
		primary = slug.Join(slug.Sanitize(id.Weapon), flattenSkinName(id.SkinName))
		variant = wearSegment(id)
	case CategoryTournamentStickerWithFinish:
		primary = slug.Join("sticker", slug.Sanitize(id.Team), slug.Sanitize(id.Tournament))
		variant = slug.Sanitize(id.Finish)
	case CategoryTournamentSticker:
		primary = slug.Join("sticker", slug.Sanitize(id.Team), slug.Sanitize(id.Tournament))
	case CategoryPlainStickerWithSubtype:
		primary = slug.Join("sticker", slug.Sanitize(id.SkinName))
		variant = slug.Sanitize(id.Finish)
	case CategoryTournamentAutograph:
		primary = slug.Join("sticker", slug.Sanitize(id.Player), slug.Sanitize(id.Team), slug.Sanitize(id.Tournament))
	default:
		primary = slug.Sanitize(id.Name)
	}

	return joinSegments(root, primary, variant)
}

// URL joins base and the canonical path of id.
func URL(base string, id ParsedIdentity) string {
	path := Path(id)
	base = strings.TrimRight(base, "/")
	if base == "" {
		return path
	}
	return base + "/" + path
}

// Resolve classifies name and returns its identity and canonical URL under base.
func Resolve(base, name string) (ParsedIdentity, string) {
	id := Classify(name)
	return id, URL(base, id)
}

// flattenSkinName slugs a skin name, using only the inner token when the
// name ends with its own parenthesized group.
func flattenSkinName(skinName string) string {
	if m := trailingGroup.FindStringSubmatch(skinName); m != nil {
		return slug.Sanitize(m[2])
	}
	return slug.Sanitize(skinName)
}

func wearSegment(id ParsedIdentity) string {
	wear := slug.Sanitize(id.Wear)
	if wear == "" {
		return ""
	}
	switch {
	case id.StatTrak:
		return "stattrak-" + wear
	case id.Souvenir:
		return "souvenir-" + wear
	default:
		return wear
	}
}

func joinSegments(segments ...string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "/")
}
