package actions

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

type mockElement struct {
	mock.Mock
	selector string
}

func newMockElement(selector string) *mockElement {
	return &mockElement{selector: selector}
}

func (m *mockElement) Selector() string { return m.selector }

func (m *mockElement) WaitFor(ctx context.Context, state browser.State, timeout time.Duration) error {
	return m.Called(ctx, state, timeout).Error(0)
}

func (m *mockElement) AssertVisible(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *mockElement) AssertEnabled(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *mockElement) AssertEditable(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *mockElement) AssertText(ctx context.Context, want browser.TextMatch, timeout time.Duration) error {
	return m.Called(ctx, want, timeout).Error(0)
}

func (m *mockElement) Click(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *mockElement) Fill(ctx context.Context, value string, timeout time.Duration) error {
	return m.Called(ctx, value, timeout).Error(0)
}

func (m *mockElement) TextContent(ctx context.Context, timeout time.Duration) (string, error) {
	args := m.Called(ctx, timeout)
	return args.String(0), args.Error(1)
}

func (m *mockElement) Evaluate(ctx context.Context, fn string) error {
	return m.Called(ctx, fn).Error(0)
}

type mockPage struct {
	mock.Mock
	elements map[string]*mockElement
}

func newMockPage(els ...*mockElement) *mockPage {
	p := &mockPage{elements: map[string]*mockElement{}}
	for _, el := range els {
		p.elements[el.selector] = el
	}
	return p
}

func (p *mockPage) Locate(selector string) browser.Element {
	if el, ok := p.elements[selector]; ok {
		return el
	}
	el := newMockElement(selector)
	p.elements[selector] = el
	return el
}

func (p *mockPage) Goto(ctx context.Context, url string, waitUntil browser.WaitUntil, timeout time.Duration) error {
	return p.Called(ctx, url, waitUntil, timeout).Error(0)
}

func (p *mockPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	return p.Called(ctx, path, fullPage).Error(0)
}

func (p *mockPage) URL(ctx context.Context) (string, error) {
	args := p.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockMarker struct {
	mock.Mock
}

func (m *mockMarker) Mark(ctx context.Context, el browser.Element, kind MarkKind) error {
	return m.Called(ctx, el, kind).Error(0)
}

// sleepRecorder records every pause instead of sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, d)
	return ctx.Err()
}

func (r *sleepRecorder) count(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == d {
			n++
		}
	}
	return n
}
