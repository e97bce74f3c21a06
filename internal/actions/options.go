package actions

import (
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// LogMode selects which lifecycle events of an action are logged.
// Retry warnings and failures are always logged.
type LogMode string

const (
	LogNone    LogMode = "none"
	LogStart   LogMode = "start"
	LogSuccess LogMode = "success"
	LogAll     LogMode = "all"
)

func (m LogMode) logsStart() bool   { return m == LogStart || m == LogAll }
func (m LogMode) logsSuccess() bool { return m == LogSuccess || m == LogAll }

// Config holds the facade-wide defaults. It is fixed at construction.
type Config struct {
	Timeout           time.Duration
	Retries           int
	Highlight         bool
	ScreenshotOnError bool
	DelayAfter        time.Duration
	RetryPacing       time.Duration
	NavigationTimeout time.Duration
	WaitUntil         browser.WaitUntil
	ScreenshotDir     string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		Retries:           1,
		Highlight:         true,
		ScreenshotOnError: true,
		RetryPacing:       200 * time.Millisecond,
		NavigationTimeout: 30 * time.Second,
		WaitUntil:         browser.WaitDOMContentLoaded,
		ScreenshotDir:     "reports/screenshots",
	}
}

// ConfigFrom maps the application configuration onto facade defaults.
func ConfigFrom(cfg *config.Config) Config {
	wait, err := browser.ParseWaitUntil(cfg.Navigation.WaitUntil)
	if err != nil {
		wait = browser.WaitDOMContentLoaded
	}
	return Config{
		Timeout:           cfg.Actions.Timeout,
		Retries:           cfg.Actions.Retries,
		Highlight:         cfg.Actions.Highlight,
		ScreenshotOnError: cfg.Actions.ScreenshotOnError,
		DelayAfter:        cfg.Actions.DelayAfter(),
		RetryPacing:       cfg.Actions.RetryPacing,
		NavigationTimeout: cfg.Navigation.Timeout,
		WaitUntil:         wait,
		ScreenshotDir:     cfg.Actions.ScreenshotDir,
	}
}

// ActionOptions tune a single Click or Fill. Nil pointers and zero values
// fall back to the facade Config.
type ActionOptions struct {
	Timeout           time.Duration
	Retries           *int
	Highlight         *bool
	Clear             bool
	DelayAfter        *time.Duration
	ScreenshotOnError *bool
	LogLabel          string
	Log               LogMode
}

// WaitOptions tune a single WaitForState.
type WaitOptions struct {
	Timeout        time.Duration
	State          browser.State
	ExpectEnabled  bool
	ExpectEditable bool
	HasText        *browser.TextMatch
	Highlight      *bool
	DelayAfter     *time.Duration
	LogLabel       string
	Log            LogMode
}

// NavigateOptions tune a single Navigate.
type NavigateOptions struct {
	Timeout    time.Duration
	WaitUntil  browser.WaitUntil
	DelayAfter *time.Duration
	LogLabel   string
	Log        LogMode
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Duration returns a pointer to v.
func Duration(v time.Duration) *time.Duration { return &v }

// actionSettings is ActionOptions with every default applied.
type actionSettings struct {
	timeout           time.Duration
	retries           int
	highlight         bool
	clear             bool
	delayAfter        time.Duration
	screenshotOnError bool
	label             string
	log               LogMode
}

func (c Config) resolveAction(o *ActionOptions) actionSettings {
	s := actionSettings{
		timeout:           c.Timeout,
		retries:           c.Retries,
		highlight:         c.Highlight,
		delayAfter:        c.DelayAfter,
		screenshotOnError: c.ScreenshotOnError,
		log:               LogNone,
	}
	if o == nil {
		return s
	}
	if o.Timeout > 0 {
		s.timeout = o.Timeout
	}
	if o.Retries != nil {
		s.retries = *o.Retries
	}
	if o.Highlight != nil {
		s.highlight = *o.Highlight
	}
	if o.DelayAfter != nil {
		s.delayAfter = *o.DelayAfter
	}
	if o.ScreenshotOnError != nil {
		s.screenshotOnError = *o.ScreenshotOnError
	}
	if o.Log != "" {
		s.log = o.Log
	}
	s.clear = o.Clear
	s.label = o.LogLabel
	return s
}

type waitSettings struct {
	timeout        time.Duration
	state          browser.State
	expectEnabled  bool
	expectEditable bool
	hasText        *browser.TextMatch
	highlight      bool
	delayAfter     time.Duration
	label          string
	log            LogMode
}

func (c Config) resolveWait(o *WaitOptions) waitSettings {
	s := waitSettings{
		timeout:    c.Timeout,
		state:      browser.StateVisible,
		highlight:  c.Highlight,
		delayAfter: c.DelayAfter,
		log:        LogNone,
	}
	if o == nil {
		return s
	}
	if o.Timeout > 0 {
		s.timeout = o.Timeout
	}
	if o.State != "" {
		s.state = o.State
	}
	if o.Highlight != nil {
		s.highlight = *o.Highlight
	}
	if o.DelayAfter != nil {
		s.delayAfter = *o.DelayAfter
	}
	if o.Log != "" {
		s.log = o.Log
	}
	s.expectEnabled = o.ExpectEnabled
	s.expectEditable = o.ExpectEditable
	s.hasText = o.HasText
	s.label = o.LogLabel
	return s
}

type navigateSettings struct {
	timeout    time.Duration
	waitUntil  browser.WaitUntil
	delayAfter time.Duration
	label      string
	log        LogMode
}

func (c Config) resolveNavigate(o *NavigateOptions) navigateSettings {
	s := navigateSettings{
		timeout:    c.NavigationTimeout,
		waitUntil:  c.WaitUntil,
		delayAfter: c.DelayAfter,
		log:        LogNone,
	}
	if o == nil {
		return s
	}
	if o.Timeout > 0 {
		s.timeout = o.Timeout
	}
	if o.WaitUntil != "" {
		s.waitUntil = o.WaitUntil
	}
	if o.DelayAfter != nil {
		s.delayAfter = *o.DelayAfter
	}
	if o.Log != "" {
		s.log = o.Log
	}
	s.label = o.LogLabel
	return s
}
