// File: cmd/run_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// brokenLauncher starts fine but can never open a session.
type brokenLauncher struct{ shutdown bool }

func (b *brokenLauncher) NewSession(context.Context) (browser.Session, error) {
	return nil, errors.New("browser crashed")
}

func (b *brokenLauncher) Shutdown(context.Context) error {
	b.shutdown = true
	return nil
}

func runConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Suite.ReportsDir = t.TempDir()
	cfg.Suite.SessionsPerSecond = 1000
	cfg.Suite.Tags = "@smoke"
	cfg.Suite.Format = "progress"
	return cfg
}

func TestRunSuite_LauncherFails(t *testing.T) {
	cfg := runConfig(t)
	factory := func(context.Context, *config.Config, *zap.Logger) (browser.Launcher, error) {
		return nil, errors.New("no chrome")
	}

	err := runSuite(context.Background(), zap.NewNop(), cfg, factory, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start browser: no chrome")

	// The reporters are still closed, leaving valid empty reports.
	raw, err := os.ReadFile(filepath.Join(cfg.Suite.ReportsDir, "summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"total": 0`)
}

func TestRunSuite_ScenariosFail(t *testing.T) {
	cfg := runConfig(t)
	l := &brokenLauncher{}
	factory := func(context.Context, *config.Config, *zap.Logger) (browser.Launcher, error) {
		return l, nil
	}

	err := runSuite(context.Background(), zap.NewNop(), cfg, factory, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrSuiteFailed)
	assert.True(t, l.shutdown, "browser is shut down after the run")

	for _, name := range []string{"junit.xml", "summary.json"} {
		assert.FileExists(t, filepath.Join(cfg.Suite.ReportsDir, name))
	}
}

func TestRunSuite_BadDataDir(t *testing.T) {
	cfg := runConfig(t)
	cfg.Suite.DataDir = t.TempDir()

	err := runSuite(context.Background(), zap.NewNop(), cfg, nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load test data")
}
