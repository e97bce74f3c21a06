// Package actions wraps raw page interactions with retry, timeouts, visual
// highlighting, structured logging and failure screenshots.
package actions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/retry"
)

// diagnosticsTimeout bounds the screenshot and error highlight taken after a
// failed action. They run on a detached context so a canceled test still
// leaves an artifact behind.
const diagnosticsTimeout = 10 * time.Second

// ActionError is returned by Click and Fill once every attempt has failed.
type ActionError struct {
	Action string
	Label  string
	Cause  error
}

func (e *ActionError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("[%s] failed: %v", e.Action, e.Cause)
	}
	return fmt.Sprintf("[%s] failed (%s): %v", e.Action, e.Label, e.Cause)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// Actions is the resilient interaction facade bound to one page.
type Actions struct {
	page     browser.Page
	cfg      Config
	logger   *zap.Logger
	events   *ActionLogger
	marker   Marker
	capturer *Capturer
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes an Actions at construction.
type Option func(*Actions)

// WithMarker replaces the default outline marker.
func WithMarker(m Marker) Option {
	return func(a *Actions) { a.marker = m }
}

// WithCapturer replaces the default screenshot capturer.
func WithCapturer(c *Capturer) Option {
	return func(a *Actions) { a.capturer = c }
}

// WithSleeper replaces the pause used for post-action delays and retry pacing.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Actions) { a.sleep = fn }
}

// New builds a facade over page.
func New(page browser.Page, cfg Config, logger *zap.Logger, opts ...Option) *Actions {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("actions")
	a := &Actions{
		page:     page,
		cfg:      cfg,
		logger:   logger,
		events:   NewActionLogger(logger),
		marker:   OutlineMarker{},
		capturer: NewCapturer(cfg.ScreenshotDir),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Page returns the page the facade drives.
func (a *Actions) Page() browser.Page { return a.page }

// Navigate loads url once. It never retries and never captures artifacts.
func (a *Actions) Navigate(ctx context.Context, url string, opts *NavigateOptions) error {
	s := a.cfg.resolveNavigate(opts)
	const action = "navigate"

	if s.log.logsStart() {
		a.events.Start(action, s.label)
	}
	if err := a.page.Goto(ctx, url, s.waitUntil, s.timeout); err != nil {
		return fmt.Errorf("[%s] failed to load %s: %w", action, url, err)
	}
	if s.log.logsSuccess() {
		a.events.Success(action, s.label)
	}
	if err := a.sleep(ctx, s.delayAfter); err != nil {
		return fmt.Errorf("[%s] post-action delay interrupted: %w", action, err)
	}
	return nil
}

// Click clicks target once it is visible, retrying per opts.
func (a *Actions) Click(ctx context.Context, target browser.Target, opts *ActionOptions) error {
	s := a.cfg.resolveAction(opts)
	el := target.Resolve(a.page)
	return a.perform(ctx, "click", el, s, func(ctx context.Context) error {
		return el.Click(ctx, s.timeout)
	})
}

// Fill types value into target once it is visible, retrying per opts. With
// Clear set the field is emptied first.
func (a *Actions) Fill(ctx context.Context, target browser.Target, value string, opts *ActionOptions) error {
	s := a.cfg.resolveAction(opts)
	el := target.Resolve(a.page)
	return a.perform(ctx, "fill", el, s, func(ctx context.Context) error {
		if s.clear {
			if err := el.Fill(ctx, "", s.timeout); err != nil {
				return err
			}
		}
		return el.Fill(ctx, value, s.timeout)
	})
}

// perform runs the shared retried body of Click and Fill.
func (a *Actions) perform(ctx context.Context, action string, el browser.Element, s actionSettings, act func(ctx context.Context) error) error {
	if s.log.logsStart() {
		a.events.Start(action, s.label)
	}

	err := retry.Run(ctx, func(ctx context.Context) error {
		if err := el.AssertVisible(ctx, s.timeout); err != nil {
			return err
		}
		if s.highlight {
			a.mark(ctx, el, MarkNormal)
		}
		if err := act(ctx); err != nil {
			return err
		}
		return a.sleep(ctx, s.delayAfter)
	}, s.retries, func(ctx context.Context, n int, err error) error {
		a.events.Retry(action, s.label, n, err)
		return a.sleep(ctx, a.cfg.RetryPacing)
	})
	if err == nil {
		if s.log.logsSuccess() {
			a.events.Success(action, s.label)
		}
		return nil
	}

	diagCtx, cancel := context.WithTimeout(browser.Detach(ctx), diagnosticsTimeout)
	defer cancel()

	var artifact string
	if s.screenshotOnError {
		path, captureErr := a.capturer.Capture(diagCtx, a.page, action, s.label)
		if captureErr != nil {
			a.logger.Debug("Failure screenshot not written.", zap.String("action", action), zap.Error(captureErr))
		} else {
			artifact = path
		}
	}
	a.mark(diagCtx, el, MarkError)
	a.events.Failure(action, s.label, err, artifact)

	return &ActionError{Action: action, Label: s.label, Cause: err}
}

// WaitForState waits for target to reach the requested state and then checks
// the optional enabled, editable and text expectations. It does not retry.
// The located element is returned for chaining.
func (a *Actions) WaitForState(ctx context.Context, target browser.Target, opts *WaitOptions) (browser.Element, error) {
	s := a.cfg.resolveWait(opts)
	const action = "wait"
	el := target.Resolve(a.page)
	what := target.Describe()

	if s.log.logsStart() {
		a.events.Start(action, s.label)
	}
	if err := el.WaitFor(ctx, s.state, s.timeout); err != nil {
		return nil, fmt.Errorf("[%s] %s did not become %s: %w", action, what, s.state, err)
	}
	if s.expectEnabled {
		if err := el.AssertEnabled(ctx, s.timeout); err != nil {
			return nil, fmt.Errorf("[%s] %s is not enabled: %w", action, what, err)
		}
	}
	if s.expectEditable {
		if err := el.AssertEditable(ctx, s.timeout); err != nil {
			return nil, fmt.Errorf("[%s] %s is not editable: %w", action, what, err)
		}
	}
	if s.hasText != nil {
		if err := el.AssertText(ctx, *s.hasText, s.timeout); err != nil {
			return nil, fmt.Errorf("[%s] %s text is not %s: %w", action, what, s.hasText, err)
		}
	}
	if s.highlight {
		a.mark(ctx, el, MarkNormal)
	}
	if err := a.sleep(ctx, s.delayAfter); err != nil {
		return nil, fmt.Errorf("[%s] post-action delay interrupted: %w", action, err)
	}
	if s.log.logsSuccess() {
		a.events.Success(action, s.label)
	}
	return el, nil
}

// mark highlights el. Marking is cosmetic, so failures are only logged.
func (a *Actions) mark(ctx context.Context, el browser.Element, kind MarkKind) {
	if err := a.marker.Mark(ctx, el, kind); err != nil {
		a.logger.Debug("Highlight skipped.",
			zap.String("selector", el.Selector()),
			zap.Stringer("kind", kind),
			zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
