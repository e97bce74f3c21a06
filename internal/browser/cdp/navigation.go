package cdp

import (
	"context"
	"fmt"

	cdproto "github.com/chromedp/cdproto/cdp"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

// lifecycleEvents maps a wait condition to the Page.lifecycleEvent name that
// satisfies it.
var lifecycleEvents = map[browser.WaitUntil]string{
	browser.WaitLoad:             "load",
	browser.WaitDOMContentLoaded: "DOMContentLoaded",
	browser.WaitNetworkIdle:      "networkIdle",
}

// navigation loads url and blocks until the main frame's new document emits
// event. chromedp.Navigate always waits for load, so the wait is done here.
type navigation struct {
	url   string
	event string
}

var _ chromedp.Action = (*navigation)(nil)

func newNavigation(url string, waitUntil browser.WaitUntil) *navigation {
	event, ok := lifecycleEvents[waitUntil]
	if !ok {
		event = lifecycleEvents[browser.WaitLoad]
	}
	return &navigation{url: url, event: event}
}

func (n *navigation) Do(ctx context.Context) error {
	if err := cdppage.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
		return fmt.Errorf("failed to enable lifecycle events: %w", err)
	}

	// Listen before navigating; the event can arrive before Navigate returns.
	listenCtx, stop := context.WithCancel(ctx)
	defer stop()
	watch := newLifecycleWatch(n.event)
	chromedp.ListenTarget(listenCtx, watch.observe)

	frameID, loaderID, errorText, _, err := cdppage.Navigate(n.url).Do(ctx)
	switch {
	case err != nil:
		return err
	case errorText != "":
		return fmt.Errorf("page load error %s", errorText)
	case loaderID == "":
		// Same-document navigation: no new document, no lifecycle events.
		return nil
	}
	return watch.wait(ctx, frameID, loaderID)
}

// lifecycleWatch buffers lifecycle events named name until wait consumes
// them. observe runs on chromedp's event loop and must not block.
type lifecycleWatch struct {
	name   string
	events chan *cdppage.EventLifecycleEvent
}

func newLifecycleWatch(name string) *lifecycleWatch {
	return &lifecycleWatch{name: name, events: make(chan *cdppage.EventLifecycleEvent, 32)}
}

func (w *lifecycleWatch) observe(ev any) {
	e, ok := ev.(*cdppage.EventLifecycleEvent)
	if !ok || e.Name != w.name {
		return
	}
	select {
	case w.events <- e:
	default:
	}
}

// wait returns once the event arrives for frameID's document loaderID.
// Events from other frames or the previous document are skipped.
func (w *lifecycleWatch) wait(ctx context.Context, frameID cdproto.FrameID, loaderID cdproto.LoaderID) error {
	for {
		select {
		case e := <-w.events:
			if e.FrameID == frameID && e.LoaderID == loaderID {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", w.name, ctx.Err())
		}
	}
}
