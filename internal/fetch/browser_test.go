package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessions stands in for the browser when testing pool bookkeeping
type fakeSessions struct {
	mu       sync.Mutex
	opened   int
	closed   int
	failNext bool
}

func newTestPool(sessions int, fs *fakeSessions) *BrowserPool {
	p := NewBrowserPool(BrowserConfig{Sessions: sessions})
	p.openPage = func() (*rod.Page, error) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		if fs.failNext {
			fs.failNext = false
			return nil, errors.New("target crashed")
		}
		fs.opened++
		return &rod.Page{}, nil
	}
	p.closePage = func(*rod.Page) error {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		fs.closed++
		return nil
	}
	return p
}

func (fs *fakeSessions) counts() (opened, closed int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.opened, fs.closed
}

func TestBrowserPool_Defaults(t *testing.T) {
	p := NewBrowserPool(BrowserConfig{SettleDelay: -1})
	assert.Equal(t, defaultSessions, p.cfg.Sessions)
	assert.Equal(t, defaultSettleDelay, p.cfg.SettleDelay)
	assert.Equal(t, defaultNavigationTimeout, p.cfg.NavigationTimeout)
	assert.Equal(t, defaultSessions, cap(p.slots))
}

func TestBrowserPool_ReusesHealthySessions(t *testing.T) {
	fs := &fakeSessions{}
	p := newTestPool(2, fs)
	ctx := context.Background()

	first, err := p.acquire(ctx)
	require.NoError(t, err)
	p.release(first, true)

	second, err := p.acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	p.release(second, true)

	opened, closed := fs.counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 0, closed)
	assert.Len(t, p.slots, 0)
}

func TestBrowserPool_CapsSessions(t *testing.T) {
	fs := &fakeSessions{}
	p := newTestPool(2, fs)

	_, err := p.acquire(context.Background())
	require.NoError(t, err)
	_, err = p.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	opened, _ := fs.counts()
	assert.Equal(t, 2, opened)
}

func TestBrowserPool_WaiterWakesAfterFailedSession(t *testing.T) {
	fs := &fakeSessions{}
	p := newTestPool(1, fs)

	held, err := p.acquire(context.Background())
	require.NoError(t, err)

	type acquired struct {
		page *rod.Page
		err  error
	}
	done := make(chan acquired, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		page, err := p.acquire(ctx)
		done <- acquired{page, err}
	}()

	select {
	case <-done:
		t.Fatal("waiter got a session while the only one was checked out")
	case <-time.After(50 * time.Millisecond):
	}

	p.release(held, false)

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.NotSame(t, held, got.page)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after the session was dropped")
	}

	opened, closed := fs.counts()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 1, closed)
}

func TestBrowserPool_OpenFailureFreesSlot(t *testing.T) {
	fs := &fakeSessions{failNext: true}
	p := newTestPool(1, fs)

	_, err := p.acquire(context.Background())
	require.Error(t, err)
	assert.Len(t, p.slots, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	page, err := p.acquire(ctx)
	require.NoError(t, err)
	assert.NotNil(t, page)
}

func TestBrowserPool_Close(t *testing.T) {
	fs := &fakeSessions{}
	p := newTestPool(2, fs)
	ctx := context.Background()

	idle, err := p.acquire(ctx)
	require.NoError(t, err)
	busy, err := p.acquire(ctx)
	require.NoError(t, err)
	p.release(idle, true)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, closed := fs.counts()
	assert.Equal(t, 1, closed)

	// a session returned after Close is dropped
	p.release(busy, true)
	_, closed = fs.counts()
	assert.Equal(t, 2, closed)

	_, err = p.acquire(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeRender, apperrors.TypeOf(err))
	assert.Len(t, p.slots, 0)
}

// Requires a local Chrome or Chromium; skipped otherwise
func TestBrowserPool_FetchRendersScript(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("No browser binary found, skipping test")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div id="price"></div>
<script>
window.addEventListener("load", function () {
  setTimeout(function () { document.getElementById("price").textContent = "$12.50"; }, 50);
});
</script></body></html>`))
	}))
	defer server.Close()

	p := NewBrowserPool(BrowserConfig{
		Bin:               bin,
		Headless:          true,
		Sessions:          1,
		SettleDelay:       500 * time.Millisecond,
		NavigationTimeout: 20 * time.Second,
	})
	defer p.Close()

	body, err := p.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	html, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(html), "$12.50")
	assert.Len(t, p.slots, 0)
}
