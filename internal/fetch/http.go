package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"sjsage522/skinpricer/logger"
	apperrors "sjsage522/skinpricer/pkg/errors"

	"golang.org/x/net/html/charset"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// HTTPFetcher fetches pages with a plain GET and browser-like headers.
// It sees only server-rendered markup.
type HTTPFetcher struct {
	client *http.Client
	log    *logger.Logger

	mu  sync.Mutex
	rnd *mathrand.Rand
}

// NewHTTPFetcher creates an HTTP fetcher with the given request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		log:    logger.ForFetcher("http"),
		rnd:    mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch sends a GET request for url and returns the body converted to UTF-8
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetwork(url, "failed to create request", err)
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork(url, "request failed", err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, apperrors.NewNetwork(url, fmt.Sprintf("rate limited; retry after %s", resp.Header.Get("Retry-After")), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork(url, "failed to read response body", err)
	}

	f.log.Debug().Str("url", url).Int("bytes", len(body)).Msg("Page fetched")
	return toUTF8(body, resp.Header.Get("Content-Type"))
}

// Close is a no-op; the fetcher holds no long-lived resources
func (f *HTTPFetcher) Close() error {
	return nil
}

func (f *HTTPFetcher) userAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return userAgents[f.rnd.Intn(len(userAgents))]
}

// toUTF8 converts body to UTF-8 using the Content-Type and any meta charset
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, apperrors.NewParsing("", fmt.Sprintf("failed to convert %s body to UTF-8", name), err)
	}
	return &buf, nil
}
