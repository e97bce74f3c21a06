// Package rodriver drives Chromium with go-rod.
package rodriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// Launcher owns a rod-managed Chromium process. Sessions are incognito
// browser contexts.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	sessions *browser.Registry
}

var _ browser.Launcher = (*Launcher)(nil)

func newProcess(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height))
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	for _, arg := range browser.LaunchArgs(cfg.Args) {
		name, value := browser.SplitFlag(arg)
		switch {
		case name == "":
			continue
		case name == string(flags.NoSandbox):
			l = l.NoSandbox(true)
		case value == "":
			l = l.Set(flags.Flag(name))
		default:
			l = l.Set(flags.Flag(name), value)
		}
	}
	return l
}

// New launches Chromium and connects to it.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Launcher, error) {
	logger = logger.Named("rod")
	proc := newProcess(cfg)

	launchCtx, cancel := context.WithTimeout(ctx, cfg.LaunchTimeout)
	defer cancel()

	logger.Info("Launching browser.", zap.Bool("headless", cfg.Headless), zap.Duration("timeout", cfg.LaunchTimeout))
	controlURL, err := proc.Context(launchCtx).Launch()
	if err != nil {
		proc.Kill()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if slow := cfg.SlowMo(); slow > 0 {
		b = b.SlowMotion(slow)
	}
	if err := b.Context(launchCtx).Connect(); err != nil {
		proc.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	logger.Info("Browser launched.", zap.String("control_url", controlURL))

	return &Launcher{
		cfg:      cfg,
		logger:   logger,
		launcher: proc,
		browser:  b,
		sessions: browser.NewRegistry(),
	}, nil
}

// NewSession opens an incognito context with one page.
func (l *Launcher) NewSession(ctx context.Context) (browser.Session, error) {
	incognito, err := l.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}
	rp, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	vp := l.cfg.Viewport
	if err := rp.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: vp.Width, Height: vp.Height, DeviceScaleFactor: 1}); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	id := uuid.New().String()
	s := &session{
		id:        id,
		incognito: incognito,
		rp:        rp,
		page:      newPage(rp.Context(browser.Detach(ctx))),
		logger:    l.logger.With(zap.String("session_id", id)),
	}
	s.onClose = func() { l.sessions.Release(id) }
	l.sessions.Track(s)
	s.logger.Debug("Session opened.")
	return s, nil
}

// Shutdown closes the open sessions, the browser and its process.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.logger.Info("Shutting down browser.", zap.Int("open_sessions", l.sessions.Len()))
	l.sessions.CloseAll(ctx, l.logger)

	err := l.browser.Close()
	l.launcher.Kill()
	l.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type session struct {
	id        string
	incognito *rod.Browser
	rp        *rod.Page
	page      *page
	logger    *zap.Logger
	onClose   func()

	closeOnce sync.Once
	closeErr  error
}

func (s *session) ID() string         { return s.id }
func (s *session) Page() browser.Page { return s.page }

// Close disposes of the incognito context, which closes its page.
func (s *session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if err := s.incognito.Context(ctx).Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser context: %w", err)
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.", zap.Error(s.closeErr))
	})
	return s.closeErr
}
