package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

// Quote is the best-effort price reading of one item page.
// Every field may be empty; an empty field means nothing was found.
type Quote struct {
	VariantPrice string `json:"variant_price"`
	MarketName   string `json:"market_name"`
	MarketPrice  string `json:"market_price"`
}

// Empty reports whether no price of any kind was found
func (q Quote) Empty() bool {
	return q.VariantPrice == "" && q.MarketPrice == ""
}

// Priced reports whether the variant price was found
func (q Quote) Priced() bool {
	return q.VariantPrice != ""
}

var (
	parenGroup = regexp.MustCompile(`\(([^)]+)\)`)
	usdCleaner = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")
)

// ParseWear returns the content of the last parenthesized group of name, or ""
func ParseWear(name string) string {
	matches := parenGroup.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// WantsStatTrak reports whether name asks for the StatTrak variant
func WantsStatTrak(name string) bool {
	return strings.Contains(strings.ToLower(name), "stattrak")
}

// ParseUSD converts a displayed price such as "$1,234.56" into a number
func ParseUSD(text string) (float64, bool) {
	cleaned := usdCleaner.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
