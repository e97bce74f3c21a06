package cdp

import (
	"testing"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

func TestSessionSetup(t *testing.T) {
	tasks := sessionSetup(config.ViewportConfig{Width: 1280, Height: 720})
	require.Len(t, tasks, 3)

	metrics, ok := tasks[0].(*emulation.SetDeviceMetricsOverrideParams)
	require.True(t, ok, "first task sizes the viewport")
	assert.EqualValues(t, 1280, metrics.Width)
	assert.EqualValues(t, 720, metrics.Height)
	assert.False(t, metrics.Mobile)

	cache, ok := tasks[2].(*network.SetCacheDisabledParams)
	require.True(t, ok)
	assert.True(t, cache.CacheDisabled)
}

func TestAllocatorOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser
	base := len(allocatorOptions(cfg))

	cfg.BinPath = "/usr/bin/chromium"
	cfg.Args = []string{"--no-sandbox", "--lang=es-ES", ""}
	assert.Greater(t, len(allocatorOptions(cfg)), base)
}
