// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const colorReset = "\x1b[0m"

// palette maps the color names accepted in config to ANSI codes.
var palette = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// tintKey names the field Tint attaches. Encoders consume it; it never
// reaches the output.
const tintKey = "_tint"

// Tint asks the console encoder to render the entry's message in color.
// JSON output drops the field and keeps the message plain.
func Tint(color string) zap.Field {
	return zap.String(tintKey, color)
}

// tintEncoder strips Tint fields and, when colorize is set, wraps the
// message in the requested color.
type tintEncoder struct {
	zapcore.Encoder
	colorize bool
}

func (e tintEncoder) Clone() zapcore.Encoder {
	return tintEncoder{Encoder: e.Encoder.Clone(), colorize: e.colorize}
}

func (e tintEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	kept := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Key != tintKey {
			kept = append(kept, f)
			continue
		}
		if code, ok := palette[f.String]; ok && e.colorize {
			ent.Message = code + ent.Message + colorReset
		}
	}
	return e.Encoder.EncodeEntry(ent, kept)
}

// Initialize builds the global logger once: a console or JSON core on
// consoleWriter, plus a rotating JSON file core when cfg.LogFile is set.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		logger := build(cfg, consoleWriter)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

func build(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		_ = level.UnmarshalText([]byte(cfg.Level))
	}

	cores := []zapcore.Core{zapcore.NewCore(newEncoder(cfg.Format, cfg.Colors), consoleWriter, level)}
	if cfg.LogFile != "" {
		// The file travels with the reports, so it is always JSON.
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(newEncoder("json", cfg.Colors), zapcore.AddSync(rotating), level))
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(zapcore.NewTee(cores...), opts...).Named(cfg.ServiceName)
}

// InitializeLogger initializes the global logger on a locked stdout.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stdout))
}

// ResetForTest clears the global logger so the next Initialize takes effect.
// Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// levelEncoder paints the upper-case level name with the configured color.
func levelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	codes := map[zapcore.Level]string{
		zapcore.DebugLevel:  palette[colors.Debug],
		zapcore.InfoLevel:   palette[colors.Info],
		zapcore.WarnLevel:   palette[colors.Warn],
		zapcore.ErrorLevel:  palette[colors.Error],
		zapcore.DPanicLevel: palette[colors.DPanic],
		zapcore.PanicLevel:  palette[colors.Panic],
		zapcore.FatalLevel:  palette[colors.Fatal],
	}
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := level.CapitalString()
		if code := codes[level]; code != "" {
			name = code + name + colorReset
		}
		enc.AppendString(name)
	}
}

// newEncoder returns the colorized single-line encoder for "console" and a
// JSON encoder for any other format.
func newEncoder(format string, colors config.ColorConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if format != "console" {
		ec.EncodeLevel = zapcore.LowercaseLevelEncoder
		return tintEncoder{Encoder: zapcore.NewJSONEncoder(ec)}
	}

	ec.EncodeLevel = levelEncoder(colors)
	// "sauce-e2e.actions." reads better than a bare name in a terminal.
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return tintEncoder{Encoder: zapcore.NewConsoleEncoder(ec), colorize: true}
}

// GetLogger returns the global logger, or a development logger named
// "fallback" when Initialize has not run yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Global logger requested before initialization; using fallback.")
	return l.Named("fallback")
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	err := logger.Sync()
	if err == nil || ignorableSyncError(err) {
		return
	}
	fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
}

// ignorableSyncError reports errors from syncing a terminal or pipe, which
// several platforms refuse.
func ignorableSyncError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"sync /dev/stdout", "invalid argument", "operation not supported"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
