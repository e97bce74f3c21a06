package actions

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/observability"
)

// ActionLogger emits one line per action lifecycle event. It never panics
// and never returns an error; a nil receiver or nil zap logger is a no-op.
type ActionLogger struct {
	log *zap.Logger
}

// NewActionLogger wraps logger for action events.
func NewActionLogger(logger *zap.Logger) *ActionLogger {
	return &ActionLogger{log: logger}
}

func headline(action, label, event string) string {
	if label == "" {
		return fmt.Sprintf("[%s] %s", action, event)
	}
	return fmt.Sprintf("[%s] %s (%s)", action, event, label)
}

func fields(action, label string) []zap.Field {
	return []zap.Field{zap.String("action", action), zap.String("label", label)}
}

// Start logs that an action began.
func (l *ActionLogger) Start(action, label string) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info(headline(action, label, "start"), append(fields(action, label), observability.Tint("cyan"))...)
}

// Success logs that an action completed.
func (l *ActionLogger) Success(action, label string) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info(headline(action, label, "ok"), append(fields(action, label), observability.Tint("green"))...)
}

// Retry logs a failed attempt that is about to be retried.
func (l *ActionLogger) Retry(action, label string, retry int, err error) {
	if l == nil || l.log == nil {
		return
	}
	msg := fmt.Sprintf("%s: %v", headline(action, label, "retry"), err)
	l.log.Warn(msg, append(fields(action, label), zap.Int("retry", retry), zap.Error(err), observability.Tint("yellow"))...)
}

// Failure logs an action that exhausted its attempts. artifact is the
// screenshot path, or empty when none was written.
func (l *ActionLogger) Failure(action, label string, err error, artifact string) {
	if l == nil || l.log == nil {
		return
	}
	msg := fmt.Sprintf("%s: %v", headline(action, label, "failed"), err)
	fs := append(fields(action, label), zap.Error(err), observability.Tint("red"))
	if artifact != "" {
		msg += "\n  screenshot: " + artifact
		fs = append(fs, zap.String("screenshot", artifact))
	}
	l.log.Error(msg, fs...)
}
