// Package harness owns the per-test browser session lifecycle shared by the
// BDD runner and the Go e2e tests.
package harness

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sauce-e2e/internal/actions"
	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

// closeTimeout bounds closing a session after its test has finished.
const closeTimeout = 10 * time.Second

// World is everything one test case needs: its own isolated session, the
// action facade bound to that session's page, and the page objects.
type World struct {
	Session browser.Session
	Actions *actions.Actions
	Login   *pages.LoginPage
	Logger  *zap.Logger
}

// Harness opens and closes Worlds over a shared Launcher.
type Harness struct {
	launcher browser.Launcher
	actCfg   actions.Config
	baseURL  string
	keepOpen bool
	limiter  *rate.Limiter
	logger   *zap.Logger
	opts     []actions.Option
}

// New builds a harness. opts are applied to every Actions it creates.
func New(launcher browser.Launcher, cfg *config.Config, logger *zap.Logger, opts ...actions.Option) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{
		launcher: launcher,
		actCfg:   actions.ConfigFrom(cfg),
		baseURL:  cfg.Suite.BaseURL,
		keepOpen: cfg.Browser.KeepOpen,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Suite.SessionsPerSecond), 1),
		logger:   logger.Named("harness"),
		opts:     opts,
	}
}

// Open starts a new isolated session. Session starts are throttled so a
// parallel run does not spawn every browser context at once.
func (h *Harness) Open(ctx context.Context, name string) (*World, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to open session for %q: %w", name, err)
	}
	session, err := h.launcher.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session for %q: %w", name, err)
	}

	logger := h.logger.With(zap.String("session_id", session.ID()), zap.String("test", name))
	acts := actions.New(session.Page(), h.actCfg, logger, h.opts...)
	logger.Debug("Session opened.")

	return &World{
		Session: session,
		Actions: acts,
		Login:   pages.NewLoginPage(acts, h.baseURL),
		Logger:  logger,
	}, nil
}

// Close releases w's session. With keep-open configured the session is
// left running for manual inspection.
func (h *Harness) Close(ctx context.Context, w *World) error {
	if w == nil {
		return nil
	}
	if h.keepOpen {
		w.Logger.Info("Keeping session open for inspection.")
		return nil
	}
	ctx, cancel := context.WithTimeout(browser.Detach(ctx), closeTimeout)
	defer cancel()
	if err := w.Session.Close(ctx); err != nil {
		w.Logger.Debug("Session close reported an error.", zap.Error(err))
		return err
	}
	w.Logger.Debug("Session closed.")
	return nil
}

// Shutdown stops the browser unless keep-open is configured.
func (h *Harness) Shutdown(ctx context.Context) error {
	if h.keepOpen {
		h.logger.Info("KEEP_BROWSER_OPEN set, leaving the browser running for manual inspection.")
		return nil
	}
	return h.launcher.Shutdown(ctx)
}
