// Package resolver turns an item display name into its canonical marketplace
// URL and a price quote read from the rendered item page.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sjsage522/skinpricer/internal/fetch"
	"sjsage522/skinpricer/internal/identity"
	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/logger"
	apperrors "sjsage522/skinpricer/pkg/errors"
)

// Result is the outcome of resolving one item name
type Result struct {
	Name       string            `json:"name"`
	Category   identity.Category `json:"category"`
	URL        string            `json:"url"`
	Quote      pricing.Quote     `json:"quote"`
	Cached     bool              `json:"cached"`
	ResolvedAt time.Time         `json:"resolved_at"`
	RunID      string            `json:"run_id,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// QuoteCache stores quotes by canonical path
type QuoteCache interface {
	Get(path string) (pricing.Quote, bool)
	Put(path string, q pricing.Quote)
}

// Options configures a Resolver
type Options struct {
	// BaseURL is the marketplace item root; defaults to identity.DefaultBaseURL
	BaseURL   string
	Selectors pricing.Selectors
	// Cache is optional
	Cache QuoteCache
	Debug bool
}

// Resolver resolves item names through a page fetcher
type Resolver struct {
	fetcher   fetch.Fetcher
	cache     QuoteCache
	picker    *pricing.Picker
	selectors pricing.Selectors
	baseURL   string
	debug     bool
	log       *logger.Logger
	now       func() time.Time
}

// New creates a resolver
func New(fetcher fetch.Fetcher, opts Options) *Resolver {
	log := logger.ForResolver()

	if opts.BaseURL == "" {
		opts.BaseURL = identity.DefaultBaseURL
	}
	if opts.Selectors == (pricing.Selectors{}) {
		opts.Selectors = pricing.DefaultSelectors()
	}

	return &Resolver{
		fetcher:   fetcher,
		cache:     opts.Cache,
		picker:    pricing.NewPicker(opts.Debug, log),
		selectors: opts.Selectors,
		baseURL:   opts.BaseURL,
		debug:     opts.Debug,
		log:       log,
		now:       time.Now,
	}
}

// Resolve builds the canonical URL for name and reads its price quote.
// A missing price is not an error: the quote fields are simply empty. The
// returned Result always carries the URL, even when err is non-nil.
func (r *Resolver) Resolve(ctx context.Context, name string) (Result, error) {
	if strings.TrimSpace(name) == "" {
		return Result{Name: name, ResolvedAt: r.now()}, apperrors.NewValidation(name, "empty item name")
	}

	request := requestName(name)
	id, url := identity.Resolve(r.baseURL, request)
	path := identity.Path(id)

	result := Result{
		Name:       name,
		Category:   id.Category,
		URL:        url,
		ResolvedAt: r.now(),
	}

	if id.Degraded {
		r.log.Debug().Str("item", name).Str("url", url).Msg("No structured pattern matched; using whole-name slug")
	}

	if r.cache != nil {
		if q, ok := r.cache.Get(path); ok {
			result.Quote = q
			result.Cached = true
			return result, nil
		}
	}

	wear := pricing.ParseWear(request)
	statTrak := pricing.WantsStatTrak(request)
	if r.debug {
		r.log.Debug().
			Str("item", name).
			Str("url", url).
			Str("wear", wear).
			Bool("stattrak", statTrak).
			Msg("Loading item page")
	}

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return result, fmt.Errorf("resolve %q: %w", name, err)
	}

	page, err := pricing.ParsePage(body, r.selectors)
	if err != nil {
		return result, apperrors.NewParsing(name, "failed to parse item page", err)
	}

	result.Quote = r.picker.Pick(page, wear, statTrak)
	result.ResolvedAt = r.now()

	if r.debug {
		r.log.Debug().
			Str("item", name).
			Str("price", result.Quote.VariantPrice).
			Str("market", result.Quote.MarketName).
			Str("market_price", result.Quote.MarketPrice).
			Msg("Quote resolved")
	}

	if r.cache != nil && result.Quote.Priced() {
		r.cache.Put(path, result.Quote)
	}
	return result, nil
}

// requestName normalizes a display name for lookup; "&" becomes "-" as the
// marketplace does in its own item paths.
func requestName(name string) string {
	return strings.ReplaceAll(name, "&", "-")
}
