package pricing

import (
	"fmt"
	"os"
	"reflect"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Selectors contains the CSS selectors used to read a rendered item page
type Selectors struct {
	// VariantRow matches one wear/variant row; its text is the row label
	VariantRow string `yaml:"variant_row"`
	// VariantPrice matches the price element inside a variant row
	VariantPrice string `yaml:"variant_price"`

	// MarketLink matches the outbound deal link of a market listing
	MarketLink string `yaml:"market_link"`
	// MarketLogo matches the logo images whose alt text names a market
	MarketLogo string `yaml:"market_logo"`
	// PriceBlock matches the nearest container holding a listing's prices
	PriceBlock string `yaml:"price_block"`
	LargePrice string `yaml:"large_price"`
	BoldPrice  string `yaml:"bold_price"`
}

// DefaultSelectors returns the selectors matching the marketplace markup
func DefaultSelectors() Selectors {
	return Selectors{
		VariantRow:   "a[role='listitem']",
		VariantPrice: "span.font-bold.text-theme-200",
		MarketLink:   "a[rel='nofollow noopener']",
		MarketLogo:   "img",
		PriceBlock:   "div[class*='flex-col']",
		LargePrice:   "span[class*='text-2xl']",
		BoldPrice:    "span.font-bold",
	}
}

// LoadSelectors reads a YAML override file on top of the defaults.
// An empty path returns the defaults. Fields missing from the file keep
// their default value.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, fmt.Errorf("failed to read selectors file: %w", err)
	}

	var override Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Selectors{}, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
	}

	sel = sel.merge(override)
	if err := sel.Validate(); err != nil {
		return Selectors{}, err
	}
	return sel, nil
}

// Validate compiles every selector and reports the first invalid one
func (s Selectors) Validate() error {
	v := reflect.ValueOf(s)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("yaml")
		value := v.Field(i).String()
		if value == "" {
			return fmt.Errorf("selector %s is empty", name)
		}
		if _, err := cascadia.ParseGroup(value); err != nil {
			return fmt.Errorf("selector %s (%q) is invalid: %w", name, value, err)
		}
	}
	return nil
}

// merge returns s with every non-empty field of o applied
func (s Selectors) merge(o Selectors) Selectors {
	dst := reflect.ValueOf(&s).Elem()
	src := reflect.ValueOf(o)
	for i := 0; i < src.NumField(); i++ {
		if value := src.Field(i).String(); value != "" {
			dst.Field(i).SetString(value)
		}
	}
	return s
}
