package cdp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

const (
	evaluateTimeout   = 5 * time.Second
	screenshotTimeout = 15 * time.Second
)

// runFunc executes chromedp actions against the session's tab, bounded by
// ctx and timeout (zero means no extra bound).
type runFunc func(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error

// page adapts a chromedp tab to browser.Page.
type page struct {
	run      runFunc
	snapshot func(ctx context.Context, selector string) (probe, error)
	interval time.Duration
}

func newPage(run runFunc) *page {
	p := &page{run: run, interval: browser.DefaultPollInterval}
	p.snapshot = p.inspect
	return p
}

var _ browser.Page = (*page)(nil)

// newTabRunner binds run calls to tabCtx, the chromedp context owning the tab.
// A positive slowMo pauses before every batch of actions.
func newTabRunner(tabCtx context.Context, slowMo time.Duration) runFunc {
	return func(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
		if slowMo > 0 {
			actions = append([]chromedp.Action{chromedp.Sleep(slowMo)}, actions...)
		}
		runCtx, cancel := browser.CombineContext(tabCtx, ctx)
		defer cancel()
		if timeout > 0 {
			var cancelTimeout context.CancelFunc
			runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
			defer cancelTimeout()
		}
		return chromedp.Run(runCtx, actions...)
	}
}

func (p *page) Locate(selector string) browser.Element {
	return &element{page: p, selector: selector}
}

// Goto navigates and waits for the lifecycle event matching waitUntil.
func (p *page) Goto(ctx context.Context, url string, waitUntil browser.WaitUntil, timeout time.Duration) error {
	if err := p.run(ctx, timeout, newNavigation(url, waitUntil)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte
	var shot chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		shot = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, screenshotTimeout, shot); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *page) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, evaluateTimeout, chromedp.Location(&u))
	return u, err
}

// inspect snapshots the first node matching selector.
func (p *page) inspect(ctx context.Context, selector string) (probe, error) {
	var snap probe
	err := p.run(ctx, 0, chromedp.Evaluate(probeScript(selector), &snap))
	return snap, err
}

// element is a lazy selector handle; every call queries the live DOM.
type element struct {
	page     *page
	selector string
}

var _ browser.Element = (*element)(nil)

func (e *element) Selector() string { return e.selector }

func (e *element) waitUntil(ctx context.Context, timeout time.Duration, what string, ok func(probe) bool) error {
	return browser.Poll(ctx, timeout, e.page.interval, e.selector+" to be "+what, func(ctx context.Context) (bool, error) {
		snap, err := e.page.snapshot(ctx, e.selector)
		if err != nil {
			return false, err
		}
		return ok(snap), nil
	})
}

func (e *element) WaitFor(ctx context.Context, state browser.State, timeout time.Duration) error {
	switch state {
	case browser.StateVisible:
		return e.waitUntil(ctx, timeout, "visible", func(s probe) bool { return s.Found && s.Visible })
	case browser.StateAttached:
		return e.waitUntil(ctx, timeout, "attached", func(s probe) bool { return s.Found })
	case browser.StateHidden:
		return e.waitUntil(ctx, timeout, "hidden", func(s probe) bool { return !s.Found || !s.Visible })
	case browser.StateDetached:
		return e.waitUntil(ctx, timeout, "detached", func(s probe) bool { return !s.Found })
	}
	return fmt.Errorf("unsupported element state %q", state)
}

func (e *element) AssertVisible(ctx context.Context, timeout time.Duration) error {
	return e.WaitFor(ctx, browser.StateVisible, timeout)
}

func (e *element) AssertEnabled(ctx context.Context, timeout time.Duration) error {
	return e.waitUntil(ctx, timeout, "enabled", func(s probe) bool { return s.Found && s.Enabled })
}

func (e *element) AssertEditable(ctx context.Context, timeout time.Duration) error {
	return e.waitUntil(ctx, timeout, "editable", func(s probe) bool { return s.Found && s.Editable })
}

func (e *element) AssertText(ctx context.Context, want browser.TextMatch, timeout time.Duration) error {
	var last string
	err := e.waitUntil(ctx, timeout, "text "+want.String(), func(s probe) bool {
		last = s.Text
		return s.Found && want.Matches(s.Text)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w (last text %q)", err, last)
	}
	return err
}

func (e *element) Click(ctx context.Context, timeout time.Duration) error {
	return e.page.run(ctx, timeout, chromedp.Click(e.selector, chromedp.ByQuery))
}

// Fill clears the field, then types value key by key.
func (e *element) Fill(ctx context.Context, value string, timeout time.Duration) error {
	var cleared bool
	tasks := chromedp.Tasks{
		chromedp.WaitVisible(e.selector, chromedp.ByQuery),
		chromedp.Evaluate(clearScript(e.selector), &cleared),
	}
	if value != "" {
		tasks = append(tasks, chromedp.SendKeys(e.selector, value, chromedp.ByQuery))
	}
	return e.page.run(ctx, timeout, tasks)
}

func (e *element) TextContent(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	err := e.page.run(ctx, timeout, chromedp.TextContent(e.selector, &text, chromedp.ByQuery))
	return text, err
}

func (e *element) Evaluate(ctx context.Context, fn string) error {
	var found bool
	if err := e.page.run(ctx, evaluateTimeout, chromedp.Evaluate(applyScript(e.selector, fn), &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", e.selector, browser.ErrNotFound)
	}
	return nil
}
