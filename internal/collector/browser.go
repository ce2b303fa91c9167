package collector

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserOptions configure the headless Chrome session.
type BrowserOptions struct {
	// ExecPath overrides the Chrome binary chromedp looks up on PATH.
	ExecPath  string
	UserAgent string
}

// Browser is a scoped headless Chrome session. Whoever opens it closes it.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	profileDir  string
	log         *zap.Logger
	closeOnce   sync.Once
}

// NewBrowser launches Chrome headless and sandboxless with a throwaway profile
// directory. The process is started here so launch failures surface to the caller.
func NewBrowser(ctx context.Context, opts BrowserOptions, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	profileDir, err := os.MkdirTemp("", "karkidi-chrome-")
	if err != nil {
		return nil, fmt.Errorf("create chrome profile dir: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(profileDir),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	sugar := logger.Sugar()
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	b := &Browser{
		ctx:         browserCtx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		profileDir:  profileDir,
		log:         logger,
	}

	logger.Debug("launching headless chrome", zap.String("profile", profileDir))
	if err := chromedp.Run(browserCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	return b, nil
}

// Context is the chromedp context actions must run against.
func (b *Browser) Context() context.Context {
	return b.ctx
}

// Close shuts Chrome down and removes the profile directory. Safe to call more than once.
func (b *Browser) Close() {
	b.closeOnce.Do(func() {
		if err := chromedp.Cancel(b.ctx); err != nil {
			b.log.Debug("chrome did not shut down cleanly", zap.Error(err))
		}
		b.cancel()
		b.cancelAlloc()
		if err := os.RemoveAll(b.profileDir); err != nil {
			b.log.Warn("could not remove chrome profile dir", zap.String("dir", b.profileDir), zap.Error(err))
		}
		b.log.Debug("browser session closed")
	})
}
