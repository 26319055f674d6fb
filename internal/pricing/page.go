package pricing

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VariantRow is one wear/variant entry of an item page
type VariantRow struct {
	Label string
	Price string
	// HasPrice is false when the row carries no price element at all
	HasPrice bool
}

// MarketRow is one resale market listing of an item page
type MarketRow struct {
	// MarketName is the alt text of the closest logo before the listing link
	MarketName string
	// LargePrice is the text of the first large price span in the listing block
	LargePrice string
	// BoldTexts are the texts of the bold spans in the listing block, in page order
	BoldTexts []string
}

// Page is a parsed snapshot of a rendered item page
type Page struct {
	doc *goquery.Document
	sel Selectors
}

// ParsePage parses rendered HTML into a page snapshot
func ParsePage(r io.Reader, sel Selectors) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return NewPage(doc, sel), nil
}

// NewPage wraps an already parsed document
func NewPage(doc *goquery.Document, sel Selectors) *Page {
	return &Page{doc: doc, sel: sel}
}

// VariantRows returns the variant rows in page order
func (p *Page) VariantRows() []VariantRow {
	var rows []VariantRow
	p.doc.Find(p.sel.VariantRow).Each(func(_ int, s *goquery.Selection) {
		row := VariantRow{Label: renderedText(s)}
		if priceSel := s.Find(p.sel.VariantPrice).First(); priceSel.Length() > 0 {
			row.Price = renderedText(priceSel)
			row.HasPrice = true
		}
		rows = append(rows, row)
	})
	return rows
}

// MarketRows returns the market listings in page order
func (p *Page) MarketRows() []MarketRow {
	var rows []MarketRow
	lastAlt := ""

	// Logos and links are visited together in document order so each link
	// sees the alt of the last logo that precedes it.
	p.doc.Find(p.sel.MarketLogo + ", " + p.sel.MarketLink).Each(func(_ int, s *goquery.Selection) {
		if !s.Is(p.sel.MarketLink) {
			lastAlt, _ = s.Attr("alt")
			return
		}
		rows = append(rows, p.marketRow(s, lastAlt))
	})
	return rows
}

func (p *Page) marketRow(link *goquery.Selection, marketName string) MarketRow {
	row := MarketRow{MarketName: strings.TrimSpace(marketName)}

	block := link.Closest(p.sel.PriceBlock)
	if block.Length() == 0 {
		return row
	}

	if large := block.Find(p.sel.LargePrice).First(); large.Length() > 0 {
		row.LargePrice = renderedText(large)
	}
	block.Find(p.sel.BoldPrice).Each(func(_ int, b *goquery.Selection) {
		row.BoldTexts = append(row.BoldTexts, renderedText(b))
	})
	return row
}

// renderedText approximates the text a browser shows for s: whitespace
// runs collapse to a single space and the ends are trimmed.
func renderedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
