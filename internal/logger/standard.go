package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

// StandardLogger provides a baseline logger implementation backed by a single writer.
type StandardLogger struct {
	mu           sync.Mutex
	level        Level
	output       io.Writer
	formatter    Formatter
	fields       []Field
	reportCaller bool
}

// NewStandardLogger constructs a StandardLogger instance configured by the provided options.
func NewStandardLogger(options ...Option) *StandardLogger {
	log := &StandardLogger{
		level:     LevelInfo,
		output:    os.Stdout,
		formatter: &TextFormatter{TimestampFormat: time.RFC3339},
	}

	for _, opt := range options {
		if opt != nil {
			opt(log)
		}
	}

	if log.output == nil {
		log.output = os.Stdout
	}
	if log.formatter == nil {
		log.formatter = &TextFormatter{TimestampFormat: time.RFC3339}
	}

	return log
}

// Option configures a StandardLogger during construction.
type Option func(*StandardLogger)

// WithLevel sets the minimum Level that will be emitted by the logger.
func WithLevel(level Level) Option {
	return func(l *StandardLogger) {
		l.level = level
	}
}

// WithOutput redirects log output to the provided writer.
func WithOutput(w io.Writer) Option {
	return func(l *StandardLogger) {
		l.output = w
	}
}

// WithFormatter overrides the formatter used to render log entries.
func WithFormatter(formatter Formatter) Option {
	return func(l *StandardLogger) {
		l.formatter = formatter
	}
}

// WithFields registers default fields for all subsequent log entries.
func WithFields(fields ...Field) Option {
	return func(l *StandardLogger) {
		l.fields = append(l.fields, fields...)
	}
}

// WithCaller enables caller reporting for each log entry.
func WithCaller() Option {
	return func(l *StandardLogger) {
		l.reportCaller = true
	}
}

// Debug emits a debug level log entry.
func (l *StandardLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info emits an info level log entry.
func (l *StandardLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn emits a warn level log entry.
func (l *StandardLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error emits an error level log entry.
func (l *StandardLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// DebugContext emits a debug level structured log entry.
func (l *StandardLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.logContext(ctx, LevelDebug, msg, fields...)
}

// InfoContext emits an info level structured log entry.
func (l *StandardLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.logContext(ctx, LevelInfo, msg, fields...)
}

// WarnContext emits a warn level structured log entry.
func (l *StandardLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.logContext(ctx, LevelWarn, msg, fields...)
}

// ErrorContext emits an error level structured log entry.
func (l *StandardLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.logContext(ctx, LevelError, msg, fields...)
}

// With derives a new logger enriched with the provided fields.
func (l *StandardLogger) With(fields ...Field) Logger {
	l.mu.Lock()
	baseFields := append([]Field{}, l.fields...)
	level := l.level
	output := l.output
	formatter := l.formatter
	reportCaller := l.reportCaller
	l.mu.Unlock()

	child := &StandardLogger{
		level:        level,
		output:       output,
		formatter:    formatter,
		reportCaller: reportCaller,
		fields:       append(baseFields, fields...),
	}
	return child
}

// SetLevel adjusts the minimum log level emitted.
func (l *StandardLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current minimum log level.
func (l *StandardLogger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *StandardLogger) log(level Level, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	l.emit(level, fmt.Sprintf(format, args...), nil)
}

// logContext appends the trace of ctx between the logger's constant fields
// and the call's own fields.
func (l *StandardLogger) logContext(ctx context.Context, level Level, msg string, fields ...Field) {
	if !l.enabled(level) {
		return
	}
	l.emit(level, msg, append(traceFieldsFromContext(ctx), fields...))
}

func (l *StandardLogger) enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *StandardLogger) emit(level Level, msg string, fields []Field) {
	entry := &Entry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
	}
	if l.reportCaller {
		// emit -> log/logContext -> exported method -> user
		entry.Caller = callerAt(4)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Fields = make([]Field, 0, len(l.fields)+len(fields))
	entry.Fields = append(entry.Fields, l.fields...)
	entry.Fields = append(entry.Fields, fields...)
	l.write(entry)
}

func (l *StandardLogger) write(entry *Entry) {
	if l.formatter == nil {
		fmt.Fprintf(os.Stderr, "logger formatter is not configured\n")
		return
	}

	bytes, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to format log entry: %v\n", err)
		return
	}

	if _, err := l.output.Write(bytes); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
	}
}

func callerAt(skip int) *Caller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return nil
	}

	call := &Caller{
		File: file,
		Line: line,
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		call.Function = fn.Name()
	}
	return call
}
