package bdd

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

// fakeSite is an in-memory stand-in for the storefront login page.
type fakeSite struct {
	mu       sync.Mutex
	values   map[string]string
	loggedIn bool
	errText  string
}

var storeUsers = map[string]bool{
	"standard_user":           true,
	"performance_glitch_user": true,
	"problem_user":            true,
	"locked_out_user":         true,
}

func (s *fakeSite) submit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, pass := s.values[`[data-test="username"]`], s.values[`[data-test="password"]`]
	switch {
	case user == "":
		s.errText = "Epic sadface: Username is required"
	case pass == "":
		s.errText = "Epic sadface: Password is required"
	case !storeUsers[user] || pass != "secret_sauce":
		s.errText = "Epic sadface: Username and password do not match any user in this service"
	case user == "locked_out_user":
		s.errText = "Epic sadface: Sorry, this user has been locked out."
	default:
		s.loggedIn = true
	}
}

func (s *fakeSite) visible(selector string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch selector {
	case "#inventory_container":
		return s.loggedIn
	case `[data-test="error"]`:
		return s.errText != ""
	default:
		return !s.loggedIn
	}
}

type fakePage struct{ site *fakeSite }

func (p *fakePage) Locate(selector string) browser.Element {
	return &fakeElement{site: p.site, selector: selector}
}

func (p *fakePage) Goto(context.Context, string, browser.WaitUntil, time.Duration) error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.values = map[string]string{}
	p.site.loggedIn = false
	p.site.errText = ""
	return nil
}

func (p *fakePage) Screenshot(context.Context, string, bool) error { return nil }
func (p *fakePage) URL(context.Context) (string, error)            { return "https://www.saucedemo.com/", nil }

type fakeElement struct {
	site     *fakeSite
	selector string
}

func (e *fakeElement) hidden() error {
	return fmt.Errorf("%s is not visible", e.selector)
}

func (e *fakeElement) Selector() string { return e.selector }

func (e *fakeElement) WaitFor(_ context.Context, state browser.State, _ time.Duration) error {
	if state == browser.StateVisible && !e.site.visible(e.selector) {
		return e.hidden()
	}
	return nil
}

func (e *fakeElement) AssertVisible(ctx context.Context, timeout time.Duration) error {
	return e.WaitFor(ctx, browser.StateVisible, timeout)
}

func (e *fakeElement) AssertEnabled(context.Context, time.Duration) error  { return nil }
func (e *fakeElement) AssertEditable(context.Context, time.Duration) error { return nil }

func (e *fakeElement) AssertText(_ context.Context, want browser.TextMatch, _ time.Duration) error {
	text, _ := e.TextContent(context.Background(), 0)
	if !want.Matches(text) {
		return fmt.Errorf("text %q does not match %s", text, want)
	}
	return nil
}

func (e *fakeElement) Click(context.Context, time.Duration) error {
	if e.selector == `[data-test="login-button"]` {
		e.site.submit()
	}
	return nil
}

func (e *fakeElement) Fill(_ context.Context, value string, _ time.Duration) error {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	e.site.values[e.selector] = value
	return nil
}

func (e *fakeElement) TextContent(context.Context, time.Duration) (string, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	if e.selector == `[data-test="error"]` {
		return "\n  " + e.site.errText + "  ", nil
	}
	return "", nil
}

func (e *fakeElement) Evaluate(context.Context, string) error { return nil }

type fakeSession struct {
	id   string
	page *fakePage
}

func (s *fakeSession) ID() string                  { return s.id }
func (s *fakeSession) Page() browser.Page          { return s.page }
func (s *fakeSession) Close(context.Context) error { return nil }

// fakeLauncher hands out one fresh site per session.
type fakeLauncher struct {
	opened atomic.Int32
}

func (l *fakeLauncher) NewSession(context.Context) (browser.Session, error) {
	n := l.opened.Add(1)
	site := &fakeSite{values: map[string]string{}}
	return &fakeSession{id: fmt.Sprintf("fake-%d", n), page: &fakePage{site: site}}, nil
}

func (l *fakeLauncher) Shutdown(context.Context) error { return nil }
