package pwdriver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

const evaluateTimeout = 5 * time.Second

// playwright-go calls are synchronous and take millisecond timeouts rather
// than a context, so every call is bounded by the tighter of timeout and the
// context deadline.
func budget(ctx context.Context, timeout time.Duration) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout < time.Millisecond {
		// Playwright reads zero as "no timeout".
		return nil, context.DeadlineExceeded
	}
	return playwright.Float(float64(timeout.Milliseconds())), nil
}

var waitUntilStates = map[browser.WaitUntil]*playwright.WaitUntilState{
	browser.WaitLoad:             playwright.WaitUntilStateLoad,
	browser.WaitDOMContentLoaded: playwright.WaitUntilStateDomcontentloaded,
	browser.WaitNetworkIdle:      playwright.WaitUntilStateNetworkidle,
}

var selectorStates = map[browser.State]*playwright.WaitForSelectorState{
	browser.StateVisible:  playwright.WaitForSelectorStateVisible,
	browser.StateAttached: playwright.WaitForSelectorStateAttached,
	browser.StateHidden:   playwright.WaitForSelectorStateHidden,
	browser.StateDetached: playwright.WaitForSelectorStateDetached,
}

type page struct {
	pp     playwright.Page
	expect playwright.PlaywrightAssertions
}

var _ browser.Page = (*page)(nil)

func newPage(pp playwright.Page) *page {
	return &page{pp: pp, expect: playwright.NewPlaywrightAssertions()}
}

func (p *page) Locate(selector string) browser.Element {
	return &element{page: p, selector: selector, loc: p.pp.Locator(selector)}
}

func (p *page) Goto(ctx context.Context, url string, waitUntil browser.WaitUntil, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	state, ok := waitUntilStates[waitUntil]
	if !ok {
		state = playwright.WaitUntilStateLoad
	}
	if _, err := p.pp.Goto(url, playwright.PageGotoOptions{Timeout: ms, WaitUntil: state}); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	png, err := p.pp.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)})
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

func (p *page) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.pp.URL(), nil
}

// element wraps a playwright Locator, which already re-resolves on every call.
type element struct {
	page     *page
	selector string
	loc      playwright.Locator
}

var _ browser.Element = (*element)(nil)

func (e *element) Selector() string { return e.selector }

func (e *element) WaitFor(ctx context.Context, state browser.State, timeout time.Duration) error {
	s, ok := selectorStates[state]
	if !ok {
		return fmt.Errorf("unsupported element state %q", state)
	}
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.loc.WaitFor(playwright.LocatorWaitForOptions{State: s, Timeout: ms})
}

func (e *element) AssertVisible(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.page.expect.Locator(e.loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: ms})
}

func (e *element) AssertEnabled(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.page.expect.Locator(e.loc).ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{Timeout: ms})
}

func (e *element) AssertEditable(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.page.expect.Locator(e.loc).ToBeEditable(playwright.LocatorAssertionsToBeEditableOptions{Timeout: ms})
}

func (e *element) AssertText(ctx context.Context, want browser.TextMatch, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	var expected interface{} = want.Exact
	if want.Pattern != nil {
		expected = want.Pattern
	}
	return e.page.expect.Locator(e.loc).ToHaveText(expected, playwright.LocatorAssertionsToHaveTextOptions{Timeout: ms})
}

func (e *element) Click(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.loc.Click(playwright.LocatorClickOptions{Timeout: ms})
}

func (e *element) Fill(ctx context.Context, value string, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return e.loc.Fill(value, playwright.LocatorFillOptions{Timeout: ms})
}

func (e *element) TextContent(ctx context.Context, timeout time.Duration) (string, error) {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return "", err
	}
	return e.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: ms})
}

func (e *element) Evaluate(ctx context.Context, fn string) error {
	ms, err := budget(ctx, evaluateTimeout)
	if err != nil {
		return err
	}
	n, err := e.loc.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", e.selector, browser.ErrNotFound)
	}
	_, err = e.loc.First().Evaluate(fn, nil, playwright.LocatorEvaluateOptions{Timeout: ms})
	return err
}
