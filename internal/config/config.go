// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported browser drivers.
const (
	DriverChromedp   = "chromedp"
	DriverRod        = "rod"
	DriverPlaywright = "playwright"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Actions    ActionsConfig    `mapstructure:"actions" yaml:"actions"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Suite      SuiteConfig      `mapstructure:"suite" yaml:"suite"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the browser process is launched.
type BrowserConfig struct {
	Driver        string         `mapstructure:"driver" yaml:"driver"`
	Headless      bool           `mapstructure:"headless" yaml:"headless"`
	SlowMoMs      int            `mapstructure:"slow_mo_ms" yaml:"slow_mo_ms"`
	KeepOpen      bool           `mapstructure:"keep_open" yaml:"keep_open"`
	BinPath       string         `mapstructure:"bin_path" yaml:"bin_path"`
	Args          []string       `mapstructure:"args" yaml:"args"`
	Viewport      ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// ViewportConfig is the initial page size for every session.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// SlowMo returns the configured per-operation slow-motion delay.
func (b BrowserConfig) SlowMo() time.Duration {
	return time.Duration(b.SlowMoMs) * time.Millisecond
}

// ActionsConfig holds the defaults for the resilient UI actions.
type ActionsConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries           int           `mapstructure:"retries" yaml:"retries"`
	DelayAfterMs      int           `mapstructure:"delay_after_ms" yaml:"delay_after_ms"`
	RetryPacing       time.Duration `mapstructure:"retry_pacing" yaml:"retry_pacing"`
	Highlight         bool          `mapstructure:"highlight" yaml:"highlight"`
	ScreenshotOnError bool          `mapstructure:"screenshot_on_error" yaml:"screenshot_on_error"`
	ScreenshotDir     string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// DelayAfter returns the post-action pause.
func (a ActionsConfig) DelayAfter() time.Duration {
	return time.Duration(a.DelayAfterMs) * time.Millisecond
}

// NavigationConfig holds the defaults for page navigation.
type NavigationConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	WaitUntil string        `mapstructure:"wait_until" yaml:"wait_until"`
}

// SuiteConfig configures the test suite runner.
type SuiteConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	DataDir           string        `mapstructure:"data_dir" yaml:"data_dir"`
	FeaturesDir       string        `mapstructure:"features_dir" yaml:"features_dir"`
	Tags              string        `mapstructure:"tags" yaml:"tags"`
	Format            string        `mapstructure:"format" yaml:"format"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	SessionsPerSecond float64       `mapstructure:"sessions_per_second" yaml:"sessions_per_second"`
	ScenarioTimeout   time.Duration `mapstructure:"scenario_timeout" yaml:"scenario_timeout"`
	ReportsDir        string        `mapstructure:"reports_dir" yaml:"reports_dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sauce-e2e")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "magenta")
	v.SetDefault("logger.colors.info", "cyan")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo_ms", 0)
	v.SetDefault("browser.keep_open", false)
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 720)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Actions --
	v.SetDefault("actions.timeout", "10s")
	v.SetDefault("actions.retries", 1)
	v.SetDefault("actions.delay_after_ms", 0)
	v.SetDefault("actions.retry_pacing", "200ms")
	v.SetDefault("actions.highlight", true)
	v.SetDefault("actions.screenshot_on_error", true)
	v.SetDefault("actions.screenshot_dir", "reports/screenshots")

	// -- Navigation --
	v.SetDefault("navigation.timeout", "30s")
	v.SetDefault("navigation.wait_until", "domcontentloaded")

	// -- Suite --
	v.SetDefault("suite.base_url", "https://www.saucedemo.com/")
	v.SetDefault("suite.data_dir", "")
	v.SetDefault("suite.features_dir", "")
	v.SetDefault("suite.tags", "")
	v.SetDefault("suite.format", "pretty")
	v.SetDefault("suite.concurrency", 1)
	v.SetDefault("suite.sessions_per_second", 2.0)
	v.SetDefault("suite.scenario_timeout", "60s")
	v.SetDefault("suite.reports_dir", "reports")
}

// EnvLookup matches the signature of os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// NewConfigFromViper creates a new configuration instance from a viper object.
// The unprefixed legacy variables (HEADLESS, SLOWMO_MS, KEEP_BROWSER_OPEN,
// ACTION_DELAY_MS) are read from the process environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	return newConfig(v, os.LookupEnv)
}

func newConfig(v *viper.Viper, lookup EnvLookup) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	ApplyLegacyEnv(&cfg, lookup)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ApplyLegacyEnv overlays the unprefixed environment variables used by the
// original runner scripts. Unparseable numbers fall back to zero.
func ApplyLegacyEnv(cfg *Config, lookup EnvLookup) {
	if raw, ok := lookup("HEADLESS"); ok {
		cfg.Browser.Headless = raw != "false"
	}
	if raw, ok := lookup("SLOWMO_MS"); ok {
		cfg.Browser.SlowMoMs = atoiOrZero(raw)
	}
	if raw, ok := lookup("KEEP_BROWSER_OPEN"); ok {
		cfg.Browser.KeepOpen = raw == "1"
	}
	if raw, ok := lookup("ACTION_DELAY_MS"); ok {
		cfg.Actions.DelayAfterMs = atoiOrZero(raw)
	}
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// expandPaths resolves a leading ~ in every filesystem path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Browser.BinPath,
		&c.Actions.ScreenshotDir,
		&c.Suite.DataDir,
		&c.Suite.FeaturesDir,
		&c.Suite.ReportsDir,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Actions.Validate(); err != nil {
		return fmt.Errorf("actions configuration invalid: %w", err)
	}
	if err := c.Navigation.Validate(); err != nil {
		return fmt.Errorf("navigation configuration invalid: %w", err)
	}
	if err := c.Suite.Validate(); err != nil {
		return fmt.Errorf("suite configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	switch b.Driver {
	case DriverChromedp, DriverRod, DriverPlaywright:
	default:
		return fmt.Errorf("driver must be one of %q, %q or %q, got %q", DriverChromedp, DriverRod, DriverPlaywright, b.Driver)
	}
	if b.SlowMoMs < 0 {
		return fmt.Errorf("slow_mo_ms must not be negative")
	}
	if b.Viewport.Width <= 0 || b.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width and height must be positive integers")
	}
	if b.LaunchTimeout <= 0 {
		return fmt.Errorf("launch_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the action defaults.
func (a *ActionsConfig) Validate() error {
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if a.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if a.DelayAfterMs < 0 {
		return fmt.Errorf("delay_after_ms must not be negative")
	}
	if a.RetryPacing < 0 {
		return fmt.Errorf("retry_pacing must not be negative")
	}
	if a.ScreenshotOnError && a.ScreenshotDir == "" {
		return fmt.Errorf("screenshot_dir is required when screenshot_on_error is enabled")
	}
	return nil
}

// Validate checks the navigation defaults.
func (n *NavigationConfig) Validate() error {
	if n.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	switch n.WaitUntil {
	case "load", "domcontentloaded", "networkidle":
	default:
		return fmt.Errorf("wait_until must be one of load, domcontentloaded or networkidle, got %q", n.WaitUntil)
	}
	return nil
}

// Validate checks the suite settings.
func (s *SuiteConfig) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if s.SessionsPerSecond <= 0 {
		return fmt.Errorf("sessions_per_second must be positive")
	}
	if s.ScenarioTimeout <= 0 {
		return fmt.Errorf("scenario_timeout must be a positive duration")
	}
	return nil
}
