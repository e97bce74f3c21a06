// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/sauce-e2e/internal/bdd"
	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/data"
	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/observability"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

// ErrSuiteFailed is returned by run when at least one scenario did not pass.
var ErrSuiteFailed = errors.New("suite failed")

const (
	shutdownTimeout = 15 * time.Second
	reportQueueSize = 32
)

// launcherFactory starts the browser for a run. Tests inject a fake.
type launcherFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (browser.Launcher, error)

// newRunCmd creates and configures the `run` command.
func newRunCmd(v *viper.Viper, newLauncher launcherFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the login feature suite",
		Long: `Runs the Gherkin login features against the storefront, one isolated browser
session per scenario, and writes junit.xml and summary.json to the reports directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runSuite(ctx, logger, cfg, newLauncher, cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.String("tags", "", `tag expression selecting scenarios, e.g. "@smoke && ~@slow"`)
	flags.Int("concurrency", 1, "number of scenarios run in parallel")
	flags.String("format", "pretty", "godog output format (pretty, progress, junit, cucumber)")
	flags.String("features", "", "directory of .feature files (default: the built-in features)")
	flags.String("driver", config.DriverChromedp, "browser driver: chromedp, rod or playwright")
	flags.String("reports-dir", "reports", "directory for junit.xml and summary.json")

	// Flags override config file and environment values.
	bindings := map[string]string{
		"suite.tags":         "tags",
		"suite.concurrency":  "concurrency",
		"suite.format":       "format",
		"suite.features_dir": "features",
		"browser.driver":     "driver",
		"suite.reports_dir":  "reports-dir",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return runCmd
}

// runSuite contains the core, testable logic of the run command.
func runSuite(ctx context.Context, logger *zap.Logger, cfg *config.Config, newLauncher launcherFactory, out io.Writer) error {
	provider, err := data.FromDir(cfg.Suite.DataDir)
	if err != nil {
		return fmt.Errorf("failed to load test data: %w", err)
	}

	junitPath := filepath.Join(cfg.Suite.ReportsDir, "junit.xml")
	summaryPath := filepath.Join(cfg.Suite.ReportsDir, "summary.json")
	junit, err := reporting.New("junit", junitPath)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	summary, err := reporting.New("json", summaryPath)
	if err != nil {
		_ = junit.Close()
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	results := reporting.NewAsync(reporting.Multi(junit, summary), reportQueueSize)

	l, err := newLauncher(ctx, cfg, logger)
	if err != nil {
		_ = results.Close()
		_ = results.Drain()
		return fmt.Errorf("failed to start browser: %w", err)
	}
	h := harness.New(l, cfg, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	}()

	suite := bdd.NewSuite(h, provider, results, cfg.Suite.ScenarioTimeout, logger)
	logger.Info("Starting suite",
		zap.String("driver", cfg.Browser.Driver),
		zap.String("tags", cfg.Suite.Tags),
		zap.Int("concurrency", cfg.Suite.Concurrency))

	var status int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(results.Drain)
	g.Go(func() error {
		defer results.Close()
		status = suite.Run(gctx, bdd.RunOptions{
			Dir:         cfg.Suite.FeaturesDir,
			Tags:        cfg.Suite.Tags,
			Format:      cfg.Suite.Format,
			Concurrency: cfg.Suite.Concurrency,
			Output:      out,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	logger.Info("Reports written", zap.String("junit", junitPath), zap.String("summary", summaryPath))

	if err := ctx.Err(); err != nil {
		return err
	}
	if status != 0 {
		return fmt.Errorf("%w: godog exited with status %d", ErrSuiteFailed, status)
	}
	return nil
}
