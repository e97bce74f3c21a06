package launcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/pwdriver"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

func TestNewUnknownDriver(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.Driver = "webkit"

	l, err := New(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, l)
	assert.EqualError(t, err, `unknown browser driver "webkit"`)
}

// The Playwright launcher defers startup, so selecting it needs no browser.
func TestNewPlaywrightIsLazy(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.Driver = config.DriverPlaywright

	l, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &pwdriver.Launcher{}, l)
	assert.NoError(t, l.Shutdown(context.Background()))
}
