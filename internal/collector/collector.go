// Package collector renders the job-search page in headless Chrome and turns
// its job cards into listing records.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

const (
	DefaultURL         = "https://www.karkidi.com/job-search"
	DefaultRenderDelay = 5 * time.Second
)

var ErrEmptyPage = errors.New("collector: rendered page is empty")

// Config is everything a collection run needs besides the browser.
type Config struct {
	URL         string
	RenderDelay time.Duration
	Policy      listing.Policy
	// SnapshotPath, when set, receives a minified copy of the rendered page.
	SnapshotPath string
}

// DefaultConfig targets the karkidi job search with the stock card policy.
func DefaultConfig() Config {
	return Config{
		URL:         DefaultURL,
		RenderDelay: DefaultRenderDelay,
		Policy:      listing.DefaultPolicy(),
	}
}

type Collector struct {
	cfg Config
	log *zap.Logger
	out io.Writer
}

// New returns a collector. Progress lines go to out, diagnostics to logger.
func New(cfg Config, logger *zap.Logger, out io.Writer) (*Collector, error) {
	if cfg.URL == "" {
		return nil, errors.New("collector: url is required")
	}
	if cfg.RenderDelay < 0 {
		return nil, fmt.Errorf("collector: negative render delay %s", cfg.RenderDelay)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Collector{cfg: cfg, log: logger, out: out}, nil
}

// Collect loads the page in b, waits for it to render and extracts every card.
// Cards missing a required field are reported and skipped.
func (c *Collector) Collect(ctx context.Context, b *Browser) (listing.Dataset, error) {
	page, err := c.render(ctx, b)
	if err != nil {
		return nil, err
	}

	if c.cfg.SnapshotPath != "" {
		if err := WriteSnapshot(c.cfg.SnapshotPath, page); err != nil {
			c.log.Warn("could not write page snapshot", zap.Error(err))
		} else {
			c.log.Info("page snapshot written", zap.String("path", c.cfg.SnapshotPath))
		}
	}

	res, err := Extract(page, c.cfg.Policy)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.out, "Found %d job cards\n", res.Cards)
	for _, skipErr := range res.Skipped {
		fmt.Fprintf(c.out, "Error parsing a job card: %v\n", skipErr)
		c.log.Debug("job card skipped", zap.Error(skipErr))
	}
	c.log.Info("collection finished",
		zap.Int("cards", res.Cards),
		zap.Int("records", len(res.Records)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res.Records, nil
}

func (c *Collector) render(ctx context.Context, b *Browser) (string, error) {
	// chromedp actions must run on the browser context; tie it to ctx as well
	runCtx, cancel := context.WithCancel(b.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var page string
	err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(context.Context) error {
			c.log.Debug("navigating", zap.String("url", c.cfg.URL))
			return nil
		}),
		chromedp.Navigate(c.cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(context.Context) error {
			c.log.Debug("waiting for page to render", zap.Duration("delay", c.cfg.RenderDelay))
			return nil
		}),
		chromedp.Sleep(c.cfg.RenderDelay),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("load %s: %w", c.cfg.URL, ctxErr)
		}
		return "", fmt.Errorf("load %s: %w", c.cfg.URL, err)
	}
	if page == "" {
		return "", fmt.Errorf("load %s: %w", c.cfg.URL, ErrEmptyPage)
	}
	return page, nil
}

// Scraper collects the page once per call, each time in a browser of its own.
type Scraper struct {
	c      *Collector
	opts   BrowserOptions
	launch func(context.Context, BrowserOptions, *zap.Logger) (*Browser, error)
}

func (c *Collector) NewScraper(opts BrowserOptions) *Scraper {
	return &Scraper{c: c, opts: opts, launch: NewBrowser}
}

// Scrape launches Chrome, collects the page and shuts Chrome down before
// returning, whether or not collection succeeded.
func (s *Scraper) Scrape(ctx context.Context) (listing.Dataset, error) {
	b, err := s.launch(ctx, s.opts, s.c.log)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return s.c.Collect(ctx, b)
}
