package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColoredLogger renders log messages using colours when supported by the output writer.
type ColoredLogger struct {
	*StandardLogger
}

// NewColoredLogger returns a logger configured for colourful terminal output
// when possible. Timestamps are shortened to the time of day.
func NewColoredLogger(options ...Option) *ColoredLogger {
	std := NewStandardLogger(options...)

	std.formatter = &ColoredFormatter{
		timestampFormat: "15:04:05",
		enableColors:    supportsColor(std.output),
	}

	return &ColoredLogger{StandardLogger: std}
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgBlue),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
}

// ColoredFormatter renders log entries with coloured levels when enabled.
type ColoredFormatter struct {
	timestampFormat string
	enableColors    bool
}

// Format converts the Entry into a coloured textual representation.
func (f *ColoredFormatter) Format(entry *Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.timestampFormat)
	if !f.enableColors {
		return formatEntry(entry, timestamp, entry.Level.String(), nil, nil), nil
	}

	level := entry.Level.String()
	if c := levelColors[entry.Level]; c != nil {
		level = c.Sprint(level)
	}

	faint := color.New(color.Faint)
	magenta := color.New(color.FgMagenta)
	fields := func(field Field) string {
		return faint.Sprint(fmt.Sprintf("%s=%v", field.Key, field.Value))
	}

	trace := func(prefix string) string { return magenta.Sprint(prefix) }

	return formatEntry(entry, timestamp, level, fields, trace), nil
}

func supportsColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
