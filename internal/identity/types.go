package identity

// Category identifies which naming family an item belongs to
type Category string

const (
	CategoryPin                         Category = "pin"
	CategoryGlove                       Category = "glove"
	CategoryContainer                   Category = "container"
	CategoryTournamentStickerWithFinish Category = "tournament_sticker_with_finish"
	CategoryTournamentSticker           Category = "tournament_sticker"
	CategoryPlainStickerWithSubtype     Category = "plain_sticker_with_subtype"
	CategoryTournamentAutograph         Category = "tournament_autograph"
	// CategorySticker is a sticker name none of the structured sticker patterns matched
	CategorySticker      Category = "sticker"
	CategoryStandardSkin Category = "standard_skin"
	// CategoryFallback is a skin name whose "weapon | skin (wear)" capture failed
	CategoryFallback Category = "fallback"
)

// ParsedIdentity is the structured form of a raw item name.
// Only the fields relevant to Category are populated. Text fields hold the
// trimmed captures as they appeared in the name; slugs are derived on build.
type ParsedIdentity struct {
	Category Category `json:"category"`

	// Name is the cleaned whole name used for whole-name slugs
	Name string `json:"name,omitempty"`

	Weapon   string `json:"weapon,omitempty"`
	SkinName string `json:"skin_name,omitempty"`
	Wear     string `json:"wear,omitempty"`

	Team       string `json:"team,omitempty"`
	Finish     string `json:"finish,omitempty"`
	Tournament string `json:"tournament,omitempty"`
	Player     string `json:"player,omitempty"`

	StatTrak bool `json:"stattrak,omitempty"`
	Souvenir bool `json:"souvenir,omitempty"`

	// Degraded is set when no structured pattern matched and a whole-name slug is used
	Degraded bool `json:"degraded,omitempty"`
}
