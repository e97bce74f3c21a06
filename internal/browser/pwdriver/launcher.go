// Package pwdriver drives Chromium through the Playwright driver.
package pwdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

const playwrightInstallTimeout = 5 * time.Minute

// Launcher handles the Playwright driver and browser process. Startup is
// deferred until the first session is requested.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	pw      *playwright.Playwright
	browser playwright.Browser

	sessions *browser.Registry

	initOnce sync.Once
	initErr  error
}

var _ browser.Launcher = (*Launcher)(nil)

// New creates a launcher. Nothing is started yet.
func New(_ context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Launcher, error) {
	l := &Launcher{
		cfg:      cfg,
		logger:   logger.Named("playwright"),
		sessions: browser.NewRegistry(),
	}
	l.logger.Info("Browser launcher created (initialization deferred).")
	return l, nil
}

func (l *Launcher) initialize(ctx context.Context) error {
	l.initOnce.Do(func() {
		l.logger.Info("Initializing Playwright and launching browser...")

		if err := l.ensureInstallation(ctx); err != nil {
			l.initErr = err
			return
		}

		pw, err := playwright.Run()
		if err != nil {
			l.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}

		b, err := pw.Chromium.Launch(launchOptions(l.cfg))
		if err != nil {
			_ = pw.Stop()
			l.initErr = fmt.Errorf("failed to launch browser instance: %w", err)
			return
		}
		l.pw = pw
		l.browser = b
		l.logger.Info("Browser launched.", zap.String("browser_version", b.Version()))
	})
	return l.initErr
}

func (l *Launcher) ensureInstallation(ctx context.Context) error {
	l.logger.Info("Verifying Playwright browser installation...")
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			errc <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

func launchOptions(cfg config.BrowserConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     browser.LaunchArgs(cfg.Args),
		Timeout:  playwright.Float(float64(cfg.LaunchTimeout.Milliseconds())),
	}
	if slow := cfg.SlowMo(); slow > 0 {
		opts.SlowMo = playwright.Float(float64(slow.Milliseconds()))
	}
	if cfg.BinPath != "" {
		opts.ExecutablePath = playwright.String(cfg.BinPath)
	}
	return opts
}

// NewSession opens a fresh browser context with one page.
func (l *Launcher) NewSession(ctx context.Context) (browser.Session, error) {
	if err := l.initialize(ctx); err != nil {
		return nil, err
	}
	bctx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: l.cfg.Viewport.Width, Height: l.cfg.Viewport.Height},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}
	pp, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	id := uuid.New().String()
	s := &session{
		id:     id,
		bctx:   bctx,
		page:   newPage(pp),
		logger: l.logger.With(zap.String("session_id", id)),
	}
	s.onClose = func() { l.sessions.Release(id) }
	l.sessions.Track(s)
	s.logger.Debug("Session opened.")
	return s, nil
}

// Shutdown closes all sessions, the browser and the driver.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.logger.Info("Shutting down browser.")
	if l.pw == nil {
		l.logger.Info("Launcher not initialized, skipping full shutdown sequence.")
		return nil
	}
	l.sessions.CloseAll(ctx, l.logger)

	var shutdownErr error
	if err := l.browser.Close(); err != nil {
		l.logger.Error("Failed to close browser instance.", zap.Error(err))
		shutdownErr = fmt.Errorf("failed to close browser: %w", err)
	}
	if err := l.pw.Stop(); err != nil {
		l.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
		if shutdownErr == nil {
			shutdownErr = fmt.Errorf("failed to stop playwright driver: %w", err)
		}
	}
	return shutdownErr
}

type session struct {
	id      string
	bctx    playwright.BrowserContext
	page    *page
	logger  *zap.Logger
	onClose func()

	closeOnce sync.Once
	closeErr  error
}

func (s *session) ID() string         { return s.id }
func (s *session) Page() browser.Page { return s.page }

func (s *session) Close(context.Context) error {
	s.closeOnce.Do(func() {
		if err := s.bctx.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser context: %w", err)
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.", zap.Error(s.closeErr))
	})
	return s.closeErr
}
