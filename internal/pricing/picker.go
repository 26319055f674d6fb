// Package pricing reads variant and market prices out of a rendered item page.
package pricing

import (
	"strings"

	"sjsage522/skinpricer/logger"
)

// PriceExtractor reads a price candidate from a market listing; "" means none
type PriceExtractor func(row MarketRow) string

// MarketPick is the market listing a price was taken from
type MarketPick struct {
	Name  string
	Price string
}

// Picker applies the variant and market selection heuristics
type Picker struct {
	debug      bool
	log        *logger.Logger
	extractors []PriceExtractor
}

// NewPicker creates a picker. With debug set, every decision is logged.
func NewPicker(debug bool, log *logger.Logger) *Picker {
	if log == nil {
		log = logger.Nop()
	}
	return &Picker{
		debug:      debug,
		log:        log,
		extractors: []PriceExtractor{largePrice, boldDollarPrice},
	}
}

// Pick reads a full quote from page
func (p *Picker) Pick(page *Page, wear string, statTrak bool) Quote {
	variants := page.VariantRows()
	markets := page.MarketRows()
	if p.debug {
		p.log.Debug().
			Int("variants", len(variants)).
			Int("markets", len(markets)).
			Msg("Page rows extracted")
	}

	market := p.PickMarket(markets)
	return Quote{
		VariantPrice: p.PickVariant(variants, wear, statTrak),
		MarketName:   market.Name,
		MarketPrice:  market.Price,
	}
}

// PickVariant returns the price of the first row whose label contains wear.
// Rows without a price element are skipped. An empty wear matches the first
// priced row. statTrak is only reported; it does not filter rows.
func (p *Picker) PickVariant(rows []VariantRow, wear string, statTrak bool) string {
	want := strings.ToLower(wear)

	for _, row := range rows {
		label := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(row.Label), "\r", ""))
		if !row.HasPrice {
			if p.debug {
				p.log.Debug().Str("label", label).Msg("Variant row has no price element")
			}
			continue
		}

		if strings.Contains(label, want) {
			if p.debug {
				p.log.Debug().
					Str("label", label).
					Str("price", row.Price).
					Bool("stattrak", statTrak).
					Msg("Variant selected")
			}
			return row.Price
		}
	}

	if p.debug {
		p.log.Debug().Str("wear", wear).Bool("stattrak", statTrak).Msg("No matching variant")
	}
	return ""
}

// PickMarket returns the first listing, in page order, with a readable price
func (p *Picker) PickMarket(rows []MarketRow) MarketPick {
	for _, row := range rows {
		price := p.applyExtractors(row)
		if price == "" {
			continue
		}
		if p.debug {
			p.log.Debug().Str("market", row.MarketName).Str("price", price).Msg("Market selected")
		}
		return MarketPick{Name: row.MarketName, Price: price}
	}

	if p.debug {
		p.log.Debug().Int("listings", len(rows)).Msg("No market listing with a price")
	}
	return MarketPick{}
}

// applyExtractors returns the first non-empty extractor result
func (p *Picker) applyExtractors(row MarketRow) string {
	for _, extract := range p.extractors {
		if extract == nil {
			continue
		}
		if price := extract(row); price != "" {
			return price
		}
	}
	return ""
}

func largePrice(row MarketRow) string {
	return strings.TrimSpace(row.LargePrice)
}

// boldDollarPrice takes the first bold text that looks like "$<amount>"
func boldDollarPrice(row MarketRow) string {
	for _, text := range row.BoldTexts {
		t := strings.TrimSpace(text)
		if strings.HasPrefix(t, "$") && len(t) > 1 {
			return t
		}
	}
	return ""
}
