package rodriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

const evaluateTimeout = 5 * time.Second

var lifecycleEvents = map[browser.WaitUntil]proto.PageLifecycleEventName{
	browser.WaitLoad:             proto.PageLifecycleEventNameLoad,
	browser.WaitDOMContentLoaded: proto.PageLifecycleEventNameDOMContentLoaded,
	browser.WaitNetworkIdle:      proto.PageLifecycleEventNameNetworkIdle,
}

// node is the slice of a located element the state checks need.
type node interface {
	visible() (bool, error)
	enabled() (bool, error)
	editable() (bool, error)
	text() (string, error)
}

// finder looks selector up once without waiting. ok is false when nothing
// matches.
type finder func(ctx context.Context, selector string) (n node, ok bool, err error)

type page struct {
	rp       *rod.Page
	find     finder
	interval time.Duration
}

var _ browser.Page = (*page)(nil)

func newPage(rp *rod.Page) *page {
	p := &page{rp: rp, interval: browser.DefaultPollInterval}
	p.find = p.has
	return p
}

// within runs fn with a copy of the rod page bound to ctx and timeout.
func (p *page) within(ctx context.Context, timeout time.Duration, fn func(rp *rod.Page) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(p.rp.Context(ctx))
}

func (p *page) has(ctx context.Context, selector string) (node, bool, error) {
	ok, el, err := p.rp.Context(ctx).Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return rodNode{el}, true, nil
}

func (p *page) Locate(selector string) browser.Element {
	return &element{page: p, selector: selector}
}

func (p *page) Goto(ctx context.Context, url string, waitUntil browser.WaitUntil, timeout time.Duration) error {
	event, ok := lifecycleEvents[waitUntil]
	if !ok {
		event = proto.PageLifecycleEventNameLoad
	}
	err := p.within(ctx, timeout, func(rp *rod.Page) error {
		wait := rp.WaitNavigation(event)
		if err := rp.Navigate(url); err != nil {
			return err
		}
		wait()
		return rp.GetContext().Err()
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *page) Screenshot(ctx context.Context, path string, fullPage bool) error {
	return p.within(ctx, 0, func(rp *rod.Page) error {
		png, err := rp.Screenshot(fullPage, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
		if err != nil {
			return err
		}
		return os.WriteFile(path, png, 0o644)
	})
}

func (p *page) URL(ctx context.Context) (string, error) {
	var u string
	err := p.within(ctx, evaluateTimeout, func(rp *rod.Page) error {
		info, err := rp.Info()
		if err != nil {
			return err
		}
		u = info.URL
		return nil
	})
	return u, err
}

type rodNode struct{ el *rod.Element }

func (n rodNode) visible() (bool, error) { return n.el.Visible() }

func (n rodNode) enabled() (bool, error) {
	disabled, err := n.el.Disabled()
	return !disabled, err
}

func (n rodNode) editable() (bool, error) {
	res, err := n.el.Eval(`() => !this.disabled && !this.readOnly &&
  (this.isContentEditable || ["INPUT", "TEXTAREA", "SELECT"].includes(this.tagName))`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (n rodNode) text() (string, error) {
	prop, err := n.el.Property("textContent")
	if err != nil {
		return "", err
	}
	return prop.Str(), nil
}

// element re-queries its selector on every call.
type element struct {
	page     *page
	selector string
}

var _ browser.Element = (*element)(nil)

func (e *element) Selector() string { return e.selector }

// waitNode polls until a node matches and cond accepts it. A nil cond accepts
// any matching node; with absent set, the wait succeeds when nothing matches.
func (e *element) waitNode(ctx context.Context, timeout time.Duration, what string, absent bool, cond func(node) (bool, error)) error {
	return browser.Poll(ctx, timeout, e.page.interval, e.selector+" to be "+what, func(ctx context.Context) (bool, error) {
		n, ok, err := e.page.find(ctx, e.selector)
		if err != nil {
			return false, err
		}
		if !ok {
			return absent, nil
		}
		if cond == nil {
			return true, nil
		}
		return cond(n)
	})
}

func (e *element) WaitFor(ctx context.Context, state browser.State, timeout time.Duration) error {
	switch state {
	case browser.StateVisible:
		return e.waitNode(ctx, timeout, "visible", false, node.visible)
	case browser.StateAttached:
		return e.waitNode(ctx, timeout, "attached", false, nil)
	case browser.StateHidden:
		return e.waitNode(ctx, timeout, "hidden", true, func(n node) (bool, error) {
			v, err := n.visible()
			return !v, err
		})
	case browser.StateDetached:
		return e.waitNode(ctx, timeout, "detached", true, func(node) (bool, error) { return false, nil })
	}
	return fmt.Errorf("unsupported element state %q", state)
}

func (e *element) AssertVisible(ctx context.Context, timeout time.Duration) error {
	return e.WaitFor(ctx, browser.StateVisible, timeout)
}

func (e *element) AssertEnabled(ctx context.Context, timeout time.Duration) error {
	return e.waitNode(ctx, timeout, "enabled", false, node.enabled)
}

func (e *element) AssertEditable(ctx context.Context, timeout time.Duration) error {
	return e.waitNode(ctx, timeout, "editable", false, node.editable)
}

func (e *element) AssertText(ctx context.Context, want browser.TextMatch, timeout time.Duration) error {
	var last string
	err := e.waitNode(ctx, timeout, "text "+want.String(), false, func(n node) (bool, error) {
		text, err := n.text()
		last = text
		return err == nil && want.Matches(text), err
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w (last text %q)", err, last)
	}
	return err
}

func (e *element) Click(ctx context.Context, timeout time.Duration) error {
	return e.page.within(ctx, timeout, func(rp *rod.Page) error {
		el, err := rp.Element(e.selector)
		if err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// Fill selects the current value and types over it; an empty value clears
// the field.
func (e *element) Fill(ctx context.Context, value string, timeout time.Duration) error {
	return e.page.within(ctx, timeout, func(rp *rod.Page) error {
		el, err := rp.Element(e.selector)
		if err != nil {
			return err
		}
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(value)
	})
}

func (e *element) TextContent(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	err := e.page.within(ctx, timeout, func(rp *rod.Page) error {
		el, err := rp.Element(e.selector)
		if err != nil {
			return err
		}
		text, err = rodNode{el}.text()
		return err
	})
	return text, err
}

func (e *element) Evaluate(ctx context.Context, fn string) error {
	return e.page.within(ctx, evaluateTimeout, func(rp *rod.Page) error {
		ok, el, err := rp.Has(e.selector)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", e.selector, browser.ErrNotFound)
		}
		_, err = el.Eval(fmt.Sprintf("() => (%s)(this)", fn))
		return err
	})
}
