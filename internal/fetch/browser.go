package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sjsage522/skinpricer/logger"
	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultSessions          = 6
	defaultSettleDelay       = time.Second
	defaultNavigationTimeout = 45 * time.Second
)

// BrowserConfig configures the headless browser pool
type BrowserConfig struct {
	// Bin is the browser binary; empty lets the launcher find or download one
	Bin      string
	Headless bool
	// Sessions caps the number of pages open at once
	Sessions int
	// SettleDelay is waited after the load event so client-side rendering can finish
	SettleDelay       time.Duration
	NavigationTimeout time.Duration
}

// BrowserPool renders pages in a shared headless browser.
// Sessions are created lazily up to the configured size and reused.
type BrowserPool struct {
	cfg BrowserConfig
	log *logger.Logger

	mu      sync.Mutex
	browser *rod.Browser
	open    int
	closed  bool

	// slots holds one token per checked-out session
	slots chan struct{}
	idle  chan *rod.Page

	openPage  func() (*rod.Page, error)
	closePage func(*rod.Page) error
}

// NewBrowserPool creates a pool; the browser is launched on first use
func NewBrowserPool(cfg BrowserConfig) *BrowserPool {
	if cfg.Sessions <= 0 {
		cfg.Sessions = defaultSessions
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}

	p := &BrowserPool{
		cfg:   cfg,
		log:   logger.ForFetcher("browser"),
		slots: make(chan struct{}, cfg.Sessions),
		idle:  make(chan *rod.Page, cfg.Sessions),
	}
	p.openPage = p.newSessionLocked
	p.closePage = func(page *rod.Page) error { return page.Close() }
	return p
}

// Fetch navigates a pooled session to url and returns the rendered HTML
func (p *BrowserPool) Fetch(ctx context.Context, url string) (io.Reader, error) {
	page, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}

	healthy := false
	defer func() { p.release(page, healthy) }()

	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()
	tab := page.Context(navCtx)

	if err := tab.Navigate(url); err != nil {
		return nil, apperrors.NewRender(url, "navigation failed", err)
	}
	if err := tab.WaitLoad(); err != nil {
		return nil, apperrors.NewRender(url, "page did not finish loading", err)
	}

	if err := sleepCtx(navCtx, p.cfg.SettleDelay); err != nil {
		return nil, apperrors.NewRender(url, "settle wait interrupted", err)
	}

	html, err := tab.HTML()
	if err != nil {
		return nil, apperrors.NewRender(url, "failed to read page HTML", err)
	}

	healthy = true
	p.log.Debug().Str("url", url).Int("bytes", len(html)).Msg("Page rendered")
	return strings.NewReader(html), nil
}

// Close closes every idle session and the browser
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

drain:
	for {
		select {
		case page := <-p.idle:
			_ = p.closePage(page)
			p.open--
		default:
			break drain
		}
	}

	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}

// acquire takes a slot, then hands out an idle session or opens a new one.
// It blocks while every slot is in use.
func (p *BrowserPool) acquire(ctx context.Context) (*rod.Page, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		<-p.slots
		return nil, apperrors.NewRender("", "browser pool is closed", nil)
	}

	select {
	case page := <-p.idle:
		return page, nil
	default:
	}

	page, err := p.openPage()
	if err != nil {
		<-p.slots
		return nil, err
	}
	p.open++
	return page, nil
}

// release returns a session to the pool, or drops it if it failed mid-use.
// The slot is freed either way.
func (p *BrowserPool) release(page *rod.Page, healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { <-p.slots }()

	if healthy && !p.closed {
		p.idle <- page
		return
	}

	_ = p.closePage(page)
	p.open--
}

// newSessionLocked opens a blank page, launching the browser if needed.
// Callers must hold p.mu.
func (p *BrowserPool) newSessionLocked() (*rod.Page, error) {
	if p.browser == nil {
		if err := p.launchLocked(); err != nil {
			return nil, err
		}
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, apperrors.NewRender("", "failed to open browser session", err)
	}
	p.log.Debug().Int("sessions", p.open+1).Msg("Browser session opened")
	return page, nil
}

func (p *BrowserPool) launchLocked() error {
	l := launcher.New().
		Headless(p.cfg.Headless).
		NoSandbox(true).
		Leakless(false)
	if p.cfg.Bin != "" {
		l = l.Bin(p.cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return apperrors.NewRender("", "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return apperrors.NewRender("", fmt.Sprintf("failed to connect to browser at %s", controlURL), err)
	}

	p.browser = browser
	p.log.Info().Str("control_url", controlURL).Bool("headless", p.cfg.Headless).Msg("Browser launched")
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
