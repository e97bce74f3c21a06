// Package cdp drives Chromium over the DevTools protocol with chromedp.
package cdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// Launcher owns one Chromium process. Each session is a new browser context
// with a single tab, so cookies and storage never leak between tests.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	sessions *browser.Registry
}

var _ browser.Launcher = (*Launcher)(nil)

// allocatorOptions builds the exec allocator options from cfg.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.BinPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BinPath))
	}
	for _, arg := range browser.LaunchArgs(cfg.Args) {
		name, value := browser.SplitFlag(arg)
		if name == "" {
			continue
		}
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	return opts
}

// New starts Chromium and verifies the connection with a blank navigation.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Launcher, error) {
	logger = logger.Named("cdp")

	// The browser outlives the caller's context; Shutdown ends it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(browser.Detach(ctx), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	l := &Launcher{
		cfg:           cfg,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sessions:      browser.NewRegistry(),
	}

	logger.Info("Launching browser.", zap.Bool("headless", cfg.Headless), zap.Duration("timeout", cfg.LaunchTimeout))
	if err := bounded(ctx, cfg.LaunchTimeout, func() error {
		return chromedp.Run(browserCtx, chromedp.Navigate("about:blank"))
	}); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}
	logger.Info("Browser launched.")
	return l, nil
}

// bounded runs fn in the background and gives up after timeout or when ctx
// is done. chromedp ties the browser to the context of the first Run, so
// that Run cannot carry the deadline itself.
func bounded(ctx context.Context, timeout time.Duration, fn func() error) error {
	errc := make(chan error, 1)
	go func() { errc <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-errc:
		return err
	case <-timer.C:
		return fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewSession opens an isolated browser context with one tab.
func (l *Launcher) NewSession(ctx context.Context) (browser.Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(l.browserCtx, chromedp.WithNewBrowserContext())

	id := uuid.New().String()
	s := &session{
		id:     id,
		cancel: tabCancel,
		page:   newPage(newTabRunner(tabCtx, l.cfg.SlowMo())),
		logger: l.logger.With(zap.String("session_id", id)),
	}

	if err := bounded(ctx, l.cfg.LaunchTimeout, func() error {
		return chromedp.Run(tabCtx, sessionSetup(l.cfg.Viewport))
	}); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}

	s.onClose = func() { l.sessions.Release(id) }
	l.sessions.Track(s)
	s.logger.Debug("Session opened.")
	return s, nil
}

// sessionSetup sizes a fresh tab and turns off the HTTP cache so every test
// fetches the storefront as a first-time visitor would.
func sessionSetup(vp config.ViewportConfig) chromedp.Tasks {
	return chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(vp.Width), int64(vp.Height), 1, false),
		network.Enable(),
		network.SetCacheDisabled(true),
	}
}

// Shutdown closes the open sessions and then the browser process.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.logger.Info("Shutting down browser.", zap.Int("open_sessions", l.sessions.Len()))
	l.sessions.CloseAll(ctx, l.logger)

	err := chromedp.Cancel(l.browserCtx)
	l.browserCancel()
	l.allocCancel()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type session struct {
	id      string
	page    *page
	cancel  context.CancelFunc
	logger  *zap.Logger
	onClose func()

	closeOnce sync.Once
}

func (s *session) ID() string         { return s.id }
func (s *session) Page() browser.Page { return s.page }

// Close disposes of the tab and its browser context. It is safe to call twice.
func (s *session) Close(context.Context) error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.")
	})
	return nil
}
