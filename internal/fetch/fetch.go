// Package fetch renders marketplace item pages and hands back their HTML.
package fetch

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Fetcher returns the rendered HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
	Close() error
}

// Mode selects the fetcher implementation
type Mode string

const (
	ModeBrowser Mode = "browser"
	ModeHTTP    Mode = "http"
)

// Options configures the fetcher returned by New
type Options struct {
	Mode              Mode
	BrowserBin        string
	Headless          bool
	Sessions          int
	SettleDelay       time.Duration
	NavigationTimeout time.Duration
}

// New creates the fetcher selected by opts.Mode
func New(opts Options) (Fetcher, error) {
	switch opts.Mode {
	case ModeBrowser, "":
		return NewBrowserPool(BrowserConfig{
			Bin:               opts.BrowserBin,
			Headless:          opts.Headless,
			Sessions:          opts.Sessions,
			SettleDelay:       opts.SettleDelay,
			NavigationTimeout: opts.NavigationTimeout,
		}), nil
	case ModeHTTP:
		return NewHTTPFetcher(opts.NavigationTimeout), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", opts.Mode)
	}
}
