package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/skinpricer/helpers"
	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/internal/resolver"
	apperrors "sjsage522/skinpricer/pkg/errors"
	"sjsage522/skinpricer/services/cache"
	"sjsage522/skinpricer/services/publisher"
	"sjsage522/skinpricer/services/store"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockResolver answers from a script of quotes per attempt
type MockResolver struct {
	mu       sync.Mutex
	attempts map[string]int
	// quotes[name][n] is returned on attempt n; the last entry repeats
	quotes map[string][]pricing.Quote
	errs   map[string]error
	delay  time.Duration
}

var _ Resolver = (*MockResolver)(nil)

func NewMockResolver() *MockResolver {
	return &MockResolver{
		attempts: make(map[string]int),
		quotes:   make(map[string][]pricing.Quote),
		errs:     make(map[string]error),
	}
}

func (m *MockResolver) Resolve(ctx context.Context, name string) (resolver.Result, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return resolver.Result{Name: name}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.attempts[name]
	m.attempts[name]++

	result := resolver.Result{Name: name, URL: "https://example.test/" + name}
	if err, ok := m.errs[name]; ok {
		return result, err
	}
	if script := m.quotes[name]; len(script) > 0 {
		if n >= len(script) {
			n = len(script) - 1
		}
		result.Quote = script[n]
	}
	return result, nil
}

func (m *MockResolver) Attempts(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[name]
}

// MockPublisher records published messages
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	trims    int
	failWith error
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages = append(m.messages, messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockStore records saved batches
type MockStore struct {
	saved [][]resolver.Result
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) SaveResults(ctx context.Context, results []resolver.Result) error {
	m.saved = append(m.saved, results)
	return nil
}

func (m *MockStore) Close() {}

// MockLogger implements helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func (m *MockLogger) LogError(item string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, item+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func TestRunOnce_RetryPass(t *testing.T) {
	res := NewMockResolver()
	res.quotes["flaky"] = []pricing.Quote{{}, {VariantPrice: "$2.00", MarketPrice: "$1.90"}}
	res.quotes["steady"] = []pricing.Quote{{VariantPrice: "$1.00", MarketPrice: "$0.90"}}
	res.quotes["empty"] = []pricing.Quote{{}}

	failures := &MockLogger{}
	w := NewWorker(res, Options{Workers: 2, Failures: failures})

	results, err := w.RunOnce(context.Background(), []string{"flaky", "steady", "empty"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 2, res.Attempts("flaky"))
	assert.Equal(t, 1, res.Attempts("steady"))
	assert.Equal(t, 2, res.Attempts("empty"))

	// cheapest market price first, unpriced last
	assert.Equal(t, "steady", results[0].Name)
	assert.Equal(t, "flaky", results[1].Name)
	assert.Equal(t, "$2.00", results[1].Quote.VariantPrice)
	assert.Equal(t, "empty", results[2].Name)
	assert.Equal(t, ErrNoVariantPrice.Error(), results[2].Error)

	require.Len(t, failures.errors, 1)
	assert.Contains(t, failures.errors[0], "empty")
	require.Len(t, failures.infos, 1)
	assert.Contains(t, failures.infos[0], "3 items, 1 unresolved")

	runID := results[0].RunID
	assert.NotEmpty(t, runID)
	for _, r := range results {
		assert.Equal(t, runID, r.RunID)
	}
}

// SequenceFetcher serves pages[n] on call n; the last page repeats
type SequenceFetcher struct {
	mu    sync.Mutex
	pages []string
	calls int
}

func (f *SequenceFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls
	f.calls++
	if n >= len(f.pages) {
		n = len(f.pages) - 1
	}
	return strings.NewReader(f.pages[n]), nil
}

func (f *SequenceFetcher) Close() error { return nil }

// MapCache is an in-memory cache.CacheService
type MapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *MapCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, memcache.ErrCacheMiss
}

func (m *MapCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MapCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestRunOnce_RetryPassRefetchesWithCache(t *testing.T) {
	marketOnly := `<html><body>
		<div class="flex-col"><img alt="Skinport" src="/s.png"><a rel="nofollow noopener" href="#">Buy</a><span class="font-bold">$1.05</span></div>
	</body></html>`
	full := `<html><body>
		<a role="listitem">Chroma 3 Case <span class="font-bold text-theme-200">$1.20</span></a>
		<div class="flex-col"><img alt="Skinport" src="/s.png"><a rel="nofollow noopener" href="#">Buy</a><span class="font-bold">$1.05</span></div>
	</body></html>`

	fetcher := &SequenceFetcher{pages: []string{marketOnly, full}}
	quotes := cache.NewQuoteCache(&MapCache{data: make(map[string][]byte)}, time.Minute)
	res := resolver.New(fetcher, resolver.Options{Cache: quotes})

	failures := &MockLogger{}
	w := NewWorker(res, Options{Failures: failures})

	results, err := w.RunOnce(context.Background(), []string{"Chroma 3 Case"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, "$1.20", results[0].Quote.VariantPrice)
	assert.Equal(t, "$1.05", results[0].Quote.MarketPrice)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, failures.errors)

	// the priced quote is cached now
	again, err := res.Resolve(context.Background(), "Chroma 3 Case")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRunOnce_ResolveErrors(t *testing.T) {
	res := NewMockResolver()
	res.errs["broken"] = errors.New("navigation failed")
	res.quotes["fine"] = []pricing.Quote{{VariantPrice: "$3.00"}}

	failures := &MockLogger{}
	w := NewWorker(res, Options{Failures: failures})

	results, err := w.RunOnce(context.Background(), []string{"broken", "fine"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, res.Attempts("broken"))
	byName := map[string]resolver.Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, "navigation failed", byName["broken"].Error)
	assert.Equal(t, "https://example.test/broken", byName["broken"].URL)
	assert.Empty(t, byName["fine"].Error)
	assert.Equal(t, []string{"broken: navigation failed"}, failures.errors)
}

func TestRunOnce_PermanentErrorsSkipRetry(t *testing.T) {
	res := NewMockResolver()
	res.errs["blank"] = apperrors.NewValidation("blank", "empty item name")
	res.errs["timeout"] = apperrors.NewRender("timeout", "navigation failed", errors.New("deadline"))

	failures := &MockLogger{}
	w := NewWorker(res, Options{Failures: failures})

	results, err := w.RunOnce(context.Background(), []string{"blank", "timeout"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, res.Attempts("blank"))
	assert.Equal(t, 2, res.Attempts("timeout"))
	assert.Len(t, failures.errors, 2)
}

func TestRunOnce_PublishesAndStores(t *testing.T) {
	res := NewMockResolver()
	res.quotes["a"] = []pricing.Quote{{VariantPrice: "$1.00", MarketName: "Skinport", MarketPrice: "$0.95"}}
	res.quotes["b"] = []pricing.Quote{{VariantPrice: "$5.00"}}

	pub := &MockPublisher{}
	st := &MockStore{}
	w := NewWorker(res, Options{Publisher: pub, Store: st})

	_, err := w.RunOnce(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, pub.messages, 2)
	assert.Equal(t, 1, pub.trims)

	var first resolver.Result
	require.NoError(t, json.Unmarshal(pub.messages[0], &first))
	assert.Equal(t, "a", first.Name)
	assert.Equal(t, "Skinport", first.Quote.MarketName)

	require.Len(t, st.saved, 1)
	assert.Len(t, st.saved[0], 2)
}

func TestRunOnce_PublishFailureDoesNotFailRun(t *testing.T) {
	res := NewMockResolver()
	res.quotes["a"] = []pricing.Quote{{VariantPrice: "$1.00"}}

	w := NewWorker(res, Options{Publisher: &MockPublisher{failWith: errors.New("redis down")}})
	results, err := w.RunOnce(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRunOnce_Cancelled(t *testing.T) {
	res := NewMockResolver()
	res.delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorker(res, Options{Workers: 1})
	_, err := w.RunOnce(ctx, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunOnce_Empty(t *testing.T) {
	w := NewWorker(NewMockResolver(), Options{})
	results, err := w.RunOnce(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, defaultWorkers, w.workers)
}

func TestSortByMarketPrice(t *testing.T) {
	results := []resolver.Result{
		{Name: "none-1"},
		{Name: "ten", Quote: pricing.Quote{MarketPrice: "$10.00"}},
		{Name: "none-2", Quote: pricing.Quote{MarketPrice: "n/a"}},
		{Name: "thousand", Quote: pricing.Quote{MarketPrice: "$1,000.00"}},
		{Name: "one", Quote: pricing.Quote{MarketPrice: "$1.00"}},
	}

	SortByMarketPrice(results)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"one", "ten", "thousand", "none-1", "none-2"}, names)
}

func TestSchedule(t *testing.T) {
	res := NewMockResolver()
	res.quotes["a"] = []pricing.Quote{{VariantPrice: "$1.00"}}
	w := NewWorker(res, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Schedule(ctx, "@every 1h", func() ([]string, error) {
			return []string{"a"}, nil
		})
	}()

	assert.Eventually(t, func() bool { return res.Attempts("a") == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	w := NewWorker(NewMockResolver(), Options{})
	err := w.Schedule(context.Background(), "not a schedule", func() ([]string, error) { return nil, nil })
	assert.Error(t, err)
}
