// Package logging provides the structured logging interface used across the
// pipeline and its zap-backed implementation.  Every component that needs to
// log depends on the Logger interface defined here; go.uber.org/zap is not
// imported anywhere else.
//
// Initialisation order in cmd/*/main.go:
//
//  1. Parse configuration.
//  2. Call NewLogger(cfg.Monitoring.Log) and store the result with SetDefault.
//  3. Initialise all other components, injecting the Logger instance.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	pkgerrors "github.com/turtacn/LegisGraph/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Structured log fields
// ─────────────────────────────────────────────────────────────────────────────

// Field is a typed key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Canonical field keys shared by the pipeline stages.
const (
	FieldDocID     = "doc_id"
	FieldStage     = "stage"
	FieldRunID     = "run_id"
	FieldErrorCode = "error_code"
	FieldDuration  = "duration"
)

// String constructs a Field with a string value.
func String(key, val string) Field { return Field{Key: key, Value: val} }

// Int constructs a Field with an int value.
func Int(key string, val int) Field { return Field{Key: key, Value: val} }

// Int64 constructs a Field with an int64 value.
func Int64(key string, val int64) Field { return Field{Key: key, Value: val} }

// Float64 constructs a Field with a float64 value.
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }

// Bool constructs a Field with a bool value.
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }

// Err constructs a Field that captures an error under the key "error".
// If err is nil the field value is the string "<nil>".
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any constructs a Field with an arbitrary value.
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }

// Duration constructs a Field with a time.Duration value.
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// DocID tags an entry with the legislative document being processed.
func DocID(id string) Field { return Field{Key: FieldDocID, Value: id} }

// Stage tags an entry with the pipeline stage (parse, extract, graph, …).
func Stage(name string) Field { return Field{Key: FieldStage, Value: name} }

// ─────────────────────────────────────────────────────────────────────────────
// Logger interface
// ─────────────────────────────────────────────────────────────────────────────

// Logger is the structured logging contract.  All components receive a Logger
// via constructor injection.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal logs a message at FATAL level and then calls os.Exit(1).
	// Reserve for startup failures in cmd/*.
	Fatal(msg string, fields ...Field)

	// With returns a child Logger that includes the supplied fields in every
	// subsequent entry.  The parent Logger is not mutated.
	With(fields ...Field) Logger

	// WithError returns a child Logger carrying err and, for AppErrors, the
	// error code.
	WithError(err error) Logger

	// Named returns a child Logger whose name is appended to the parent's
	// name with a period separator (e.g., "pipeline" → "pipeline.annual").
	Named(name string) Logger

	// Sync flushes any buffered entries.
	Sync() error
}

// ─────────────────────────────────────────────────────────────────────────────
// LogConfig
// ─────────────────────────────────────────────────────────────────────────────

// Accepted level names.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogConfig carries all parameters required to construct a Logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	// Defaults to info when empty or unrecognised.
	Level string `mapstructure:"level" yaml:"level" json:"level"`

	// Format is "json" or "console".  Defaults to json.
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// OutputPaths lists files or the special values stdout/stderr.
	// Defaults to ["stdout"] when nil.
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths" json:"output_paths"`

	// ErrorOutputPaths receives zap's internal errors.  Defaults to ["stderr"].
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths" json:"error_output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// zapLogger
// ─────────────────────────────────────────────────────────────────────────────

type zapLogger struct {
	z *zap.Logger
}

// toZapFields converts our Field values into zap.Field values without
// reflection for the common concrete types.
func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case float64:
			out = append(out, zap.Float64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case []string:
			out = append(out, zap.Strings(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZapFields(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, toZapFields(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZapFields(fields)...)}
}

func (l *zapLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	fields := []Field{Err(err)}
	if code := pkgerrors.GetCode(err); code != pkgerrors.CodeUnknown {
		fields = append(fields, String(FieldErrorCode, code.String()))
	}
	return l.With(fields...)
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// ParseLevel converts a level name to a zapcore.Level.  Unknown values yield
// InfoLevel and false.
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return zapcore.DebugLevel, true
	case LevelInfo:
		return zapcore.InfoLevel, true
	case LevelWarn, "warning":
		return zapcore.WarnLevel, true
	case LevelError:
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// NewLogger constructs a zap-backed Logger according to cfg.  Defaults:
// level info, format json, output stdout, error output stderr.
func NewLogger(cfg LogConfig) (Logger, error) {
	l, _, err := NewLoggerWithLevel(cfg)
	return l, err
}

// AtomicLevel changes the level of a running logger and of every logger
// derived from it.
type AtomicLevel struct {
	lvl zap.AtomicLevel
}

// Set applies the named level.  Unknown names are ignored and reported
// false.
func (a *AtomicLevel) Set(name string) bool {
	l, ok := ParseLevel(name)
	if ok {
		a.lvl.SetLevel(l)
	}
	return ok
}

func (a *AtomicLevel) String() string { return a.lvl.String() }

// NewLoggerWithLevel is NewLogger that also hands back the level, for config
// hot reload.
func NewLoggerWithLevel(cfg LogConfig) (Logger, *AtomicLevel, error) {
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	level, _ := ParseLevel(cfg.Level)

	var encCfg zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atom := zap.NewAtomicLevelAt(level)
	zapCfg := zap.Config{
		Level:            atom,
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, nil, fmt.Errorf("logging: failed to build zap logger: %w", err)
	}
	return &zapLogger{z: z}, &AtomicLevel{lvl: atom}, nil
}

// NewLoggerFromCore constructs a Logger from an existing zapcore.Core.  Tests
// use it with a JSON core over a buffer.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core, zap.AddCallerSkip(1))}
}

// ─────────────────────────────────────────────────────────────────────────────
// nopLogger
// ─────────────────────────────────────────────────────────────────────────────

type nopLogger struct{}

func (nopLogger) Debug(_ string, _ ...Field)   {}
func (nopLogger) Info(_ string, _ ...Field)    {}
func (nopLogger) Warn(_ string, _ ...Field)    {}
func (nopLogger) Error(_ string, _ ...Field)   {}
func (nopLogger) Fatal(_ string, _ ...Field)   {}
func (n nopLogger) With(_ ...Field) Logger     { return n }
func (n nopLogger) WithError(_ error) Logger   { return n }
func (n nopLogger) Named(_ string) Logger      { return n }
func (nopLogger) Sync() error                  { return nil }

// NewNopLogger returns a Logger that discards all entries.
func NewNopLogger() Logger { return nopLogger{} }

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// LogStage records the outcome of one pipeline stage for one document: Debug
// on success, Warn for data errors, Error otherwise.
func LogStage(l Logger, stage, docID string, start time.Time, err error) {
	fields := []Field{Stage(stage), DocID(docID), Duration(FieldDuration, time.Since(start))}
	switch {
	case err == nil:
		l.Debug("stage completed", fields...)
	case pkgerrors.IsDataError(err):
		l.WithError(err).Warn("stage rejected input", fields...)
	default:
		l.WithError(err).Error("stage failed", fields...)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Process default Logger
// ─────────────────────────────────────────────────────────────────────────────

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = nopLogger{}
)

// SetDefault replaces the process-wide default Logger.  Nil is ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide default Logger.  Constructor injection is
// preferred; Default exists for init-time code paths.
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	return l
}

//Personal.AI order the ending
