package collector

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{RenderDelay: time.Second, Policy: listing.DefaultPolicy()}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{URL: DefaultURL, RenderDelay: -time.Second, Policy: listing.DefaultPolicy()}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{URL: DefaultURL, Policy: listing.Policy{}}, nil, nil)
	assert.Error(t, err)

	c, err := New(DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.cfg.URL)
	assert.Equal(t, 5*time.Second, c.cfg.RenderDelay)
}

func TestWriteSnapshotKeepsCards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "page.html")
	require.NoError(t, WriteSnapshot(path, searchPage))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(searchPage))
	assert.NotContains(t, string(raw), "\n  ")

	res, err := Extract(string(raw), listing.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Cards)
	assert.Len(t, res.Records, 3)
}

// detachedBrowser is a Browser whose context is not backed by Chrome, so every
// chromedp action on it fails.
func detachedBrowser(t *testing.T) *Browser {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	profileDir := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.Mkdir(profileDir, 0o755))
	return &Browser{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: func() {},
		profileDir:  profileDir,
		log:         zap.NewNop(),
	}
}

func TestScrapeClosesBrowserOnFailure(t *testing.T) {
	c, err := New(DefaultConfig(), nil, io.Discard)
	require.NoError(t, err)

	b := detachedBrowser(t)
	s := c.NewScraper(BrowserOptions{})
	s.launch = func(context.Context, BrowserOptions, *zap.Logger) (*Browser, error) {
		return b, nil
	}

	_, err = s.Scrape(context.Background())
	assert.ErrorIs(t, err, chromedp.ErrInvalidContext)
	assert.Error(t, b.Context().Err())
	assert.NoDirExists(t, b.profileDir)
}

func TestScrapeLaunchFailure(t *testing.T) {
	c, err := New(DefaultConfig(), nil, io.Discard)
	require.NoError(t, err)

	boom := errors.New("chrome not found")
	s := c.NewScraper(BrowserOptions{})
	s.launch = func(context.Context, BrowserOptions, *zap.Logger) (*Browser, error) {
		return nil, boom
	}

	ds, err := s.Scrape(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, ds)
}

func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	b, err := NewBrowser(context.Background(), BrowserOptions{}, zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func TestCollectRenderedPage(t *testing.T) {
	b := newTestBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	var out bytes.Buffer
	snapshot := filepath.Join(t.TempDir(), "page.html")
	cfg := Config{
		URL:          srv.URL,
		RenderDelay:  10 * time.Millisecond,
		Policy:       listing.DefaultPolicy(),
		SnapshotPath: snapshot,
	}
	c, err := New(cfg, zaptest.NewLogger(t), &out)
	require.NoError(t, err)

	ds, err := c.Collect(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, []string{"Data Scientist", "ACCOUNTANT", "Data Scientist"}, ds.Titles())
	assert.Equal(t, "Acme Corp", ds[0].Company)
	assert.True(t, strings.HasPrefix(out.String(), "Found 5 job cards\n"))
	assert.Equal(t, 2, strings.Count(out.String(), "Error parsing a job card: "))
	assert.FileExists(t, snapshot)
}

func TestCollectPageWithoutCards(t *testing.T) {
	b := newTestBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>No jobs today</p></body></html>`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	c, err := New(Config{URL: srv.URL, Policy: listing.DefaultPolicy()}, zaptest.NewLogger(t), &out)
	require.NoError(t, err)

	ds, err := c.Collect(context.Background(), b)
	require.NoError(t, err)
	assert.NotNil(t, ds)
	assert.Empty(t, ds)
	assert.Equal(t, "Found 0 job cards\n", out.String())
}

func TestCollectHonorsCancellation(t *testing.T) {
	b := newTestBrowser(t)

	c, err := New(Config{URL: "about:blank", RenderDelay: time.Minute, Policy: listing.DefaultPolicy()}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = c.Collect(ctx, b)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScrapeClosesBrowserOnSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, Policy: listing.DefaultPolicy()}, zaptest.NewLogger(t), io.Discard)
	require.NoError(t, err)

	var launched *Browser
	s := c.NewScraper(BrowserOptions{})
	s.launch = func(ctx context.Context, opts BrowserOptions, logger *zap.Logger) (*Browser, error) {
		b, err := NewBrowser(ctx, opts, logger)
		if err != nil {
			t.Skipf("chrome unavailable: %v", err)
		}
		launched = b
		return b, nil
	}

	ds, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds, 3)
	require.NotNil(t, launched)
	assert.Error(t, launched.Context().Err())
	assert.NoDirExists(t, launched.profileDir)
}
