// Package logging provides structured logging with multiple levels and output formats.
//
// The public surface (Level, Format, Fields, Logger) is small on purpose; the
// encoding and level filtering are handled by zap.
//
// # Usage
//
//	logger := logging.New(logging.Options{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	    Output: os.Stderr,
//	})
//
//	logger.Info("Command executed", logging.Fields{
//	    "command":     "ls -la",
//	    "return_code": 0,
//	})
package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging level
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// zapLevel maps a Level onto zap. LevelNone sits above Fatal so nothing passes.
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1
	}
}

// ParseLevel parses a string into a Level
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "NONE", "OFF":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Format represents the output format
type Format int

const (
	// FormatText outputs human-readable text
	FormatText Format = iota
	// FormatJSON outputs machine-readable JSON
	FormatJSON
)

// ParseFormat parses "json" or "text" (the default)
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured log fields
type Fields map[string]interface{}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger provides structured logging capabilities
type Logger struct {
	mu     sync.Mutex
	level  zap.AtomicLevel
	format Format
	output io.Writer
	zl     *zap.Logger
}

// DefaultLogger is a package-level logger for convenience.
// It stays silent until the CLI configures it.
var DefaultLogger = New(Options{
	Level:  LevelNone,
	Format: FormatText,
	Output: os.Stderr,
})

// New creates a new Logger with the given options
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	l := &Logger{
		level:  zap.NewAtomicLevelAt(opts.Level.zapLevel()),
		format: opts.Format,
		output: opts.Output,
	}
	l.rebuild()
	return l
}

// rebuild recreates the zap core after a format or output change. Callers hold mu
// or own the logger exclusively.
func (l *Logger) rebuild() {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	var enc zapcore.Encoder
	if l.format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.ConsoleSeparator = " "
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(l.output)), l.level)
	l.zl = zap.New(core)
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// SetFormat changes the output format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.rebuild()
}

// SetOutput changes the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(zapcore.DebugLevel, msg, nil, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(zapcore.InfoLevel, msg, nil, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(zapcore.WarnLevel, msg, nil, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.log(zapcore.ErrorLevel, msg, err, fields...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl.Sync()
}

func (l *Logger) log(level zapcore.Level, msg string, err error, fields ...Fields) {
	if !l.level.Enabled(level) {
		return
	}

	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()

	ce := zl.Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(err, fields...)...)
}

// toZapFields merges all field maps (later maps win) into sorted zap fields
func toZapFields(err error, fields ...Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys)+1)
	if err != nil {
		out = append(out, zap.Error(err))
	}
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

// WithFields creates a child logger with preset fields
func (l *Logger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{
		logger: l,
		fields: fields,
	}
}

// FieldLogger is a logger with preset fields
type FieldLogger struct {
	logger *Logger
	fields Fields
}

// Debug logs a debug message with preset fields
func (fl *FieldLogger) Debug(msg string, fields ...Fields) {
	fl.logger.Debug(msg, fl.mergeFields(fields...)...)
}

// Info logs an info message with preset fields
func (fl *FieldLogger) Info(msg string, fields ...Fields) {
	fl.logger.Info(msg, fl.mergeFields(fields...)...)
}

// Warn logs a warning message with preset fields
func (fl *FieldLogger) Warn(msg string, fields ...Fields) {
	fl.logger.Warn(msg, fl.mergeFields(fields...)...)
}

// Error logs an error message with preset fields
func (fl *FieldLogger) Error(msg string, err error, fields ...Fields) {
	fl.logger.Error(msg, err, fl.mergeFields(fields...)...)
}

func (fl *FieldLogger) mergeFields(fields ...Fields) []Fields {
	result := make([]Fields, 0, len(fields)+1)
	result = append(result, fl.fields)
	result = append(result, fields...)
	return result
}

// Package-level convenience functions using DefaultLogger

// Debug logs a debug message using the default logger
func Debug(msg string, fields ...Fields) {
	DefaultLogger.Debug(msg, fields...)
}

// Info logs an info message using the default logger
func Info(msg string, fields ...Fields) {
	DefaultLogger.Info(msg, fields...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, fields ...Fields) {
	DefaultLogger.Warn(msg, fields...)
}

// Error logs an error message using the default logger
func Error(msg string, err error, fields ...Fields) {
	DefaultLogger.Error(msg, err, fields...)
}

// SetLevel sets the level of the default logger
func SetLevel(level Level) {
	DefaultLogger.SetLevel(level)
}

// SetFormat sets the format of the default logger
func SetFormat(format Format) {
	DefaultLogger.SetFormat(format)
}

// SetOutput sets the writer of the default logger
func SetOutput(w io.Writer) {
	DefaultLogger.SetOutput(w)
}
