// Package browser defines the driver-neutral page and element contracts the
// resilient action layer is written against. Concrete drivers live in the
// cdp, rodriver and pwdriver subpackages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is returned when a selector matches no node at the time of the call.
var ErrNotFound = errors.New("element not found")

// State is an element lifecycle state that can be waited for.
type State string

const (
	StateVisible  State = "visible"
	StateAttached State = "attached"
	StateHidden   State = "hidden"
	StateDetached State = "detached"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateVisible, StateAttached, StateHidden, StateDetached:
		return true
	}
	return false
}

// WaitUntil is the document readiness milestone a navigation waits for.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// ParseWaitUntil converts a config string into a WaitUntil.
func ParseWaitUntil(s string) (WaitUntil, error) {
	switch w := WaitUntil(s); w {
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle:
		return w, nil
	}
	return "", fmt.Errorf("unknown wait_until %q", s)
}

// TextMatch is an expected element text: either an exact string or a pattern.
type TextMatch struct {
	Exact   string
	Pattern *regexp.Regexp
}

// ExactText matches text that equals s after trimming surrounding whitespace.
func ExactText(s string) *TextMatch { return &TextMatch{Exact: s} }

// TextPattern matches text against re.
func TextPattern(re *regexp.Regexp) *TextMatch { return &TextMatch{Pattern: re} }

// Matches reports whether text satisfies the expectation.
func (m TextMatch) Matches(text string) bool {
	if m.Pattern != nil {
		return m.Pattern.MatchString(text)
	}
	return normalizeSpace(text) == normalizeSpace(m.Exact)
}

func (m TextMatch) String() string {
	if m.Pattern != nil {
		return "/" + m.Pattern.String() + "/"
	}
	return fmt.Sprintf("%q", m.Exact)
}

// Element is a lazy handle to a node. Drivers re-resolve the underlying node
// on every call, so an Element stays usable across DOM re-renders.
//
// Every method blocks for at most timeout (or until ctx is done).
type Element interface {
	// Selector returns the query the element was located with.
	Selector() string
	WaitFor(ctx context.Context, state State, timeout time.Duration) error
	AssertVisible(ctx context.Context, timeout time.Duration) error
	AssertEnabled(ctx context.Context, timeout time.Duration) error
	AssertEditable(ctx context.Context, timeout time.Duration) error
	AssertText(ctx context.Context, want TextMatch, timeout time.Duration) error
	Click(ctx context.Context, timeout time.Duration) error
	// Fill replaces the current value of an input with value.
	Fill(ctx context.Context, value string, timeout time.Duration) error
	TextContent(ctx context.Context, timeout time.Duration) (string, error)
	// Evaluate calls fn, a JavaScript function expression taking the node as
	// its only argument. It does not wait: if no node currently matches, it
	// returns ErrNotFound.
	Evaluate(ctx context.Context, fn string) error
}

// Page is a single browser tab.
type Page interface {
	// Locate returns a lazy element for selector without touching the page.
	Locate(selector string) Element
	Goto(ctx context.Context, url string, waitUntil WaitUntil, timeout time.Duration) error
	// Screenshot writes a PNG of the page to path.
	Screenshot(ctx context.Context, path string, fullPage bool) error
	URL(ctx context.Context) (string, error)
}

// Session is an isolated browser context with one page, owned by one test.
type Session interface {
	ID() string
	Page() Page
	Close(ctx context.Context) error
}

// Launcher owns the browser process and hands out sessions.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
	// Shutdown closes the browser process. Open sessions are closed first.
	Shutdown(ctx context.Context) error
}

// Target is something that resolves to an element on a page.
type Target interface {
	Resolve(p Page) Element
	// Describe is a short human-readable form used in logs and errors.
	Describe() string
}

// Selector is a CSS selector target.
type Selector string

func (s Selector) Resolve(p Page) Element { return p.Locate(string(s)) }
func (s Selector) Describe() string       { return string(s) }

type handle struct{ el Element }

func (h handle) Resolve(Page) Element { return h.el }
func (h handle) Describe() string     { return h.el.Selector() }

// Handle wraps an already located element as a Target.
func Handle(el Element) Target { return handle{el: el} }
