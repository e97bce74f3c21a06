// Package bdd runs the Gherkin login features with godog. Every scenario gets
// its own browser session, opened in a Before hook and closed in an After
// hook.
package bdd

import (
	"context"
	"embed"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/data"
	"github.com/xkilldash9x/sauce-e2e/internal/harness"
	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

//go:embed features/*.feature
var embedded embed.FS

// Features returns the feature files compiled into the binary.
func Features() fs.FS { return embedded }

type scenarioKey struct{}

// scenarioState is carried in the step context from Before to After.
type scenarioState struct {
	world   *harness.World
	started time.Time
	cancel  context.CancelFunc
}

func worldFrom(ctx context.Context) (*harness.World, error) {
	st, ok := ctx.Value(scenarioKey{}).(*scenarioState)
	if !ok || st.world == nil {
		return nil, errors.New("no browser session for this scenario")
	}
	return st.world, nil
}

// Suite wires the step definitions to a harness and a data provider.
type Suite struct {
	harness  *harness.Harness
	data     *data.Provider
	reporter reporting.Reporter
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewSuite builds a suite. reporter may be nil.
func NewSuite(h *harness.Harness, provider *data.Provider, reporter reporting.Reporter, scenarioTimeout time.Duration, logger *zap.Logger) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suite{
		harness:  h,
		data:     provider,
		reporter: reporter,
		logger:   logger.Named("bdd"),
		timeout:  scenarioTimeout,
		now:      time.Now,
	}
}

// InitializeScenario is the godog scenario initializer.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(s.beforeScenario)
	sc.After(s.afterScenario)
	s.registerSteps(sc)
}

func (s *Suite) beforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	st := &scenarioState{started: s.now()}
	if s.timeout > 0 {
		ctx, st.cancel = context.WithTimeout(ctx, s.timeout)
	}
	ctx = context.WithValue(ctx, scenarioKey{}, st)

	w, err := s.harness.Open(ctx, sc.Name)
	if err != nil {
		return ctx, err
	}
	st.world = w
	return ctx, nil
}

func (s *Suite) afterScenario(ctx context.Context, sc *godog.Scenario, runErr error) (context.Context, error) {
	st, ok := ctx.Value(scenarioKey{}).(*scenarioState)
	if !ok {
		return ctx, nil
	}
	if st.cancel != nil {
		defer st.cancel()
	}

	if st.world != nil {
		if err := s.harness.Close(ctx, st.world); err != nil {
			s.logger.Warn("Failed to close scenario session.", zap.String("scenario", sc.Name), zap.Error(err))
		}
	}

	result := reporting.ScenarioResult{
		Feature:  featureName(sc.Uri),
		Name:     sc.Name,
		Status:   statusOf(runErr),
		Duration: s.now().Sub(st.started),
	}
	for _, tag := range sc.Tags {
		result.Tags = append(result.Tags, tag.Name)
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	s.logger.Info("Scenario finished.",
		zap.String("scenario", sc.Name),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration))

	if s.reporter != nil {
		if err := s.reporter.Write(result); err != nil {
			s.logger.Warn("Failed to record scenario result.", zap.Error(err))
		}
	}
	return ctx, nil
}

func statusOf(err error) reporting.Status {
	switch {
	case err == nil:
		return reporting.StatusPassed
	case errors.Is(err, godog.ErrPending):
		return reporting.StatusPending
	case errors.Is(err, godog.ErrUndefined):
		return reporting.StatusUndefined
	case errors.Is(err, godog.ErrSkip):
		return reporting.StatusSkipped
	}
	return reporting.StatusFailed
}

// featureName turns "features/login.feature" into "login".
func featureName(uri string) string {
	return strings.TrimSuffix(path.Base(uri), ".feature")
}

// RunOptions selects what to run and how to print progress.
type RunOptions struct {
	// Dir is a directory of .feature files. Empty means the embedded features.
	Dir         string
	Tags        string
	Format      string
	Concurrency int
	Output      io.Writer
}

// Run executes the features and returns godog's exit status: 0 when every
// scenario passed.
func (s *Suite) Run(ctx context.Context, opts RunOptions) int {
	fsys, paths := Features(), []string{"features"}
	if opts.Dir != "" {
		fsys, paths = os.DirFS(opts.Dir), []string{"."}
	}
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	noColors := opts.Output != nil
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	suite := godog.TestSuite{
		Name:                "sauce-e2e",
		ScenarioInitializer: s.InitializeScenario,
		Options: &godog.Options{
			Format:         opts.Format,
			Paths:          paths,
			FS:             fsys,
			Tags:           opts.Tags,
			Concurrency:    opts.Concurrency,
			Output:         opts.Output,
			Strict:         true,
			NoColors:       noColors,
			DefaultContext: ctx,
		},
	}
	status := suite.Run()
	s.logger.Debug("Suite finished.", zap.Int("status", status), zap.Strings("paths", paths))
	return status
}
