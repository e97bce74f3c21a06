package cdp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedPage returns a page whose snapshots come from states in order; the
// last state repeats once the script is exhausted.
func scriptedPage(states ...probe) (*page, *recorder) {
	rec := &recorder{}
	p := &page{run: rec.run, interval: time.Millisecond}
	var mu sync.Mutex
	i := 0
	p.snapshot = func(ctx context.Context, _ string) (probe, error) {
		mu.Lock()
		defer mu.Unlock()
		s := states[i]
		if i < len(states)-1 {
			i++
		}
		return s, nil
	}
	return p, rec
}

type recorder struct {
	mu       sync.Mutex
	calls    int
	timeouts []time.Duration
	actions  []chromedp.Action
	err      error
}

func (r *recorder) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.timeouts = append(r.timeouts, timeout)
	r.actions = append(r.actions, actions...)
	return r.err
}

func TestElementWaitFor(t *testing.T) {
	hidden := probe{Found: true}
	shown := probe{Found: true, Visible: true, Enabled: true}
	gone := probe{}

	tests := []struct {
		name   string
		state  browser.State
		states []probe
	}{
		{"visible after render", browser.StateVisible, []probe{gone, hidden, shown}},
		{"attached while hidden", browser.StateAttached, []probe{gone, hidden}},
		{"hidden when removed", browser.StateHidden, []probe{shown, gone}},
		{"hidden when invisible", browser.StateHidden, []probe{shown, hidden}},
		{"detached", browser.StateDetached, []probe{shown, gone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := scriptedPage(tt.states...)
			err := p.Locate("#inventory_container").WaitFor(context.Background(), tt.state, time.Second)
			assert.NoError(t, err)
		})
	}

	t.Run("times out naming the selector", func(t *testing.T) {
		p, _ := scriptedPage(hidden)
		err := p.Locate("#inventory_container").WaitFor(context.Background(), browser.StateVisible, 20*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "#inventory_container to be visible")
	})

	t.Run("rejects unknown states", func(t *testing.T) {
		p, _ := scriptedPage(shown)
		assert.Error(t, p.Locate("#x").WaitFor(context.Background(), browser.State("focused"), time.Second))
	})

	t.Run("probe errors end the wait", func(t *testing.T) {
		p, _ := scriptedPage(shown)
		p.snapshot = func(context.Context, string) (probe, error) { return probe{}, errors.New("target closed") }
		assert.EqualError(t, p.Locate("#x").AssertVisible(context.Background(), time.Second), "target closed")
	})
}

func TestElementAssertions(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		p, _ := scriptedPage(probe{Found: true, Visible: true}, probe{Found: true, Visible: true, Enabled: true})
		assert.NoError(t, p.Locate(`[data-test="login-button"]`).AssertEnabled(context.Background(), time.Second))
	})

	t.Run("disabled stays disabled", func(t *testing.T) {
		p, _ := scriptedPage(probe{Found: true, Visible: true})
		err := p.Locate(`[data-test="login-button"]`).AssertEnabled(context.Background(), 20*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("editable", func(t *testing.T) {
		p, _ := scriptedPage(probe{Found: true, Visible: true, Enabled: true, Editable: true})
		assert.NoError(t, p.Locate(`[data-test="username"]`).AssertEditable(context.Background(), time.Second))
	})

	t.Run("text pattern", func(t *testing.T) {
		p, _ := scriptedPage(probe{Found: true, Text: "Epic sadface: Username is required"})
		want := browser.TextPattern(regexp.MustCompile(`Username is required`))
		assert.NoError(t, p.Locate(`[data-test="error"]`).AssertText(context.Background(), *want, time.Second))
	})

	t.Run("text mismatch reports the last text", func(t *testing.T) {
		p, _ := scriptedPage(probe{Found: true, Text: "Products"})
		err := p.Locate(".title").AssertText(context.Background(), *browser.ExactText("Your Cart"), 20*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), `last text "Products"`)
	})
}

func TestElementActions(t *testing.T) {
	t.Run("evaluate without a match is not found", func(t *testing.T) {
		p, rec := scriptedPage(probe{})
		err := p.Locate("#gone").Evaluate(context.Background(), "(node) => {}")
		assert.ErrorIs(t, err, browser.ErrNotFound)
		assert.Equal(t, []time.Duration{evaluateTimeout}, rec.timeouts)
	})

	t.Run("click forwards the timeout", func(t *testing.T) {
		p, rec := scriptedPage(probe{})
		require.NoError(t, p.Locate("#btn").Click(context.Background(), 3*time.Second))
		assert.Equal(t, []time.Duration{3 * time.Second}, rec.timeouts)
	})

	t.Run("fill surfaces driver errors", func(t *testing.T) {
		p, rec := scriptedPage(probe{})
		rec.err = errors.New("node is not an input")
		assert.EqualError(t, p.Locate("#user").Fill(context.Background(), "standard_user", time.Second), "node is not an input")
	})

	t.Run("goto wraps failures with the url", func(t *testing.T) {
		p, rec := scriptedPage(probe{})
		rec.err = errors.New("net::ERR_CONNECTION_REFUSED")
		err := p.Goto(context.Background(), "http://127.0.0.1:1/", browser.WaitLoad, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http://127.0.0.1:1/")
		assert.Contains(t, err.Error(), "ERR_CONNECTION_REFUSED")
	})
}

func TestScripts(t *testing.T) {
	sel := `[data-test="username"]`
	assert.Contains(t, probeScript(sel), `document.querySelector("[data-test=\"username\"]")`)
	assert.Contains(t, clearScript(sel), `dispatchEvent(new Event("input"`)

	applied := applyScript(sel, "(node) => node.focus()")
	assert.Contains(t, applied, "((node) => node.focus())(node);")
	assert.Contains(t, applied, "if (!node) return false;")
}

func TestBounded(t *testing.T) {
	t.Run("returns the result", func(t *testing.T) {
		err := bounded(context.Background(), time.Second, func() error { return errors.New("boom") })
		assert.EqualError(t, err, "boom")
	})

	t.Run("gives up after the timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		err := bounded(context.Background(), 10*time.Millisecond, func() error {
			<-release
			return nil
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		release := make(chan struct{})
		defer close(release)
		err := bounded(ctx, time.Minute, func() error {
			<-release
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
