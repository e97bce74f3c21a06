package rodriver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNode struct {
	isVisible  bool
	isEnabled  bool
	isEditable bool
	content    string
	err        error
}

func (n fakeNode) visible() (bool, error)  { return n.isVisible, n.err }
func (n fakeNode) enabled() (bool, error)  { return n.isEnabled, n.err }
func (n fakeNode) editable() (bool, error) { return n.isEditable, n.err }
func (n fakeNode) text() (string, error)   { return n.content, n.err }

// sequence yields nodes in order; a nil entry means nothing matches. The last
// entry repeats.
func sequence(nodes ...*fakeNode) *page {
	var mu sync.Mutex
	i := 0
	p := &page{interval: time.Millisecond}
	p.find = func(context.Context, string) (node, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		n := nodes[i]
		if i < len(nodes)-1 {
			i++
		}
		if n == nil {
			return nil, false, nil
		}
		return *n, true, nil
	}
	return p
}

func TestWaitFor(t *testing.T) {
	shown := &fakeNode{isVisible: true, isEnabled: true}
	hidden := &fakeNode{}

	tests := []struct {
		name  string
		state browser.State
		nodes []*fakeNode
	}{
		{"visible after mount", browser.StateVisible, []*fakeNode{nil, hidden, shown}},
		{"attached", browser.StateAttached, []*fakeNode{nil, hidden}},
		{"hidden when missing", browser.StateHidden, []*fakeNode{shown, nil}},
		{"hidden when invisible", browser.StateHidden, []*fakeNode{shown, hidden}},
		{"detached", browser.StateDetached, []*fakeNode{shown, shown, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sequence(tt.nodes...)
			assert.NoError(t, p.Locate("#inventory_container").WaitFor(context.Background(), tt.state, time.Second))
		})
	}

	t.Run("detached times out while present", func(t *testing.T) {
		p := sequence(shown)
		err := p.Locate(`[data-test="error"]`).WaitFor(context.Background(), browser.StateDetached, 20*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), `[data-test="error"] to be detached`)
	})

	t.Run("node errors abort", func(t *testing.T) {
		p := sequence(&fakeNode{err: errors.New("object not found")})
		assert.EqualError(t, p.Locate("#x").AssertVisible(context.Background(), time.Second), "object not found")
	})
}

func TestAssertions(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		p := sequence(&fakeNode{isVisible: true}, &fakeNode{isVisible: true, isEnabled: true})
		assert.NoError(t, p.Locate("#login-button").AssertEnabled(context.Background(), time.Second))
	})

	t.Run("editable times out", func(t *testing.T) {
		p := sequence(&fakeNode{isVisible: true, isEnabled: true})
		err := p.Locate("#user-name").AssertEditable(context.Background(), 20*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("exact text ignores surrounding whitespace", func(t *testing.T) {
		p := sequence(&fakeNode{content: "  Epic sadface: Password is required \n"})
		err := p.Locate(`[data-test="error"]`).AssertText(context.Background(), *browser.ExactText("Epic sadface: Password is required"), time.Second)
		assert.NoError(t, err)
	})

	t.Run("text mismatch reports the last text", func(t *testing.T) {
		p := sequence(&fakeNode{content: "Products"})
		err := p.Locate(".title").AssertText(context.Background(), *browser.ExactText("Checkout"), 20*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `last text "Products"`)
	})
}

func TestNewProcessFlags(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser
	cfg.Headless = true
	cfg.Args = []string{"--lang=es-ES", "--mute-audio"}

	l := newProcess(cfg)
	args := l.FormatArgs()

	assert.Contains(t, args, "--headless")
	assert.Contains(t, args, "--no-sandbox")
	assert.Contains(t, args, "--lang=es-ES")
	assert.Contains(t, args, "--mute-audio")
	assert.Contains(t, args, "--window-size=1280,720")
	assert.Contains(t, args, "--disable-dev-shm-usage")
}
