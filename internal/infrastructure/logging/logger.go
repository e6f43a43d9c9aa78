package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the application.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Config describes where and how log lines are written
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // console or json
	File      string // optional log file, written in JSON
	MaxSizeKB int    // size cap for File before it is rolled over
	Output    io.Writer
}

// DefaultConfig returns console logging at info level on stderr
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "console",
		MaxSizeKB: 100,
		Output:    os.Stderr,
	}
}

// ZerologLogger implements Logger on top of zerolog
type ZerologLogger struct {
	logger atomic.Pointer[zerolog.Logger]
	file   io.Closer
}

// NewDefaultLogger creates a console logger with default settings
func NewDefaultLogger() Logger {
	logger, err := New(DefaultConfig())
	if err != nil {
		// DefaultConfig has no file sink, so this cannot happen
		panic(err)
	}
	return logger
}

// New builds a logger from cfg. When cfg.File is set, lines are also written
// to a size-capped file and Close must be called on shutdown.
func New(cfg Config) (*ZerologLogger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer = out
	if strings.EqualFold(cfg.Format, "console") {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	l := &ZerologLogger{}
	if cfg.File != "" {
		file, err := NewCappedFile(cfg.File, int64(cfg.MaxSizeKB)*1024)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		l.file = file
		writer = zerolog.MultiLevelWriter(writer, file)
	}

	zl := zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	l.logger.Store(&zl)
	return l, nil
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLevel changes the minimum level at runtime
func (l *ZerologLogger) SetLevel(level string) {
	next := l.logger.Load().Level(ParseLevel(level))
	l.logger.Store(&next)
}

// Close releases the file sink, if any
func (l *ZerologLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *ZerologLogger) Debug(msg string, fields ...interface{}) {
	withFields(l.logger.Load().Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields ...interface{}) {
	withFields(l.logger.Load().Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields ...interface{}) {
	withFields(l.logger.Load().Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields ...interface{}) {
	withFields(l.logger.Load().Error(), fields).Msg(msg)
}

// withFields attaches key/value pairs. Non-string keys and a trailing
// value without a key are kept under positional names.
func withFields(event *zerolog.Event, fields []interface{}) *zerolog.Event {
	if event == nil {
		return nil
	}
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			event = event.Interface(fmt.Sprintf("field_%d", i/2), fields[i])
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		if !ok {
			event = event.Interface(key, fields[i])
			key += "_value"
		}
		switch v := fields[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}

// ClassifiedError is implemented by the store error type
type ClassifiedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err with its classification when it carries one
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{"operation", operation}
	msg := fmt.Sprintf("Unexpected error: %s", err.Error())

	if classified, ok := err.(ClassifiedError); ok {
		fields = append(fields,
			"error_code", classified.GetCode(),
			"retryable", classified.IsRetryable(),
			"timestamp", classified.GetTimestamp(),
		)
		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}
		msg = fmt.Sprintf("Store error: %s", err.Error())
	} else {
		fields = append(fields, "error_type", fmt.Sprintf("%T", err))
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(msg, fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
