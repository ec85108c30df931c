package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Formatter converts log entries to their textual or structured representation.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Entry represents a single log record.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  []Field
	Caller  *Caller
}

// Caller carries caller information when caller reporting is enabled.
type Caller struct {
	File     string
	Line     int
	Function string
}

// Keys of the trace fields the text formatters lift out of the field list.
const (
	runIDKey   = "run_id"
	versionKey = "version"

	shortRunIDLength = 8
)

// TextFormatter renders entries as single lines:
//
//	15:04:05 [INFO] [1.20.1 3f2a9c1e] message key=value
type TextFormatter struct {
	TimestampFormat  string
	DisableTimestamp bool
}

// Format converts the Entry into a textual representation.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	timestamp := ""
	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = time.RFC3339
		}
		timestamp = entry.Time.Format(format)
	}
	return formatEntry(entry, timestamp, entry.Level.String(), nil, nil), nil
}

// JSONFormatter renders log entries as one JSON object per line.
type JSONFormatter struct {
	TimestampFormat string
}

// Format converts the Entry into JSON.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+4)

	format := f.TimestampFormat
	if format == "" {
		format = time.RFC3339
	}
	data["time"] = entry.Time.Format(format)
	data["level"] = entry.Level.String()
	data["msg"] = entry.Message

	for _, field := range entry.Fields {
		data[field.Key] = jsonValue(field.Value)
	}
	if entry.Caller != nil {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// jsonValue keeps error values readable; encoding/json renders them as {}.
func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

type fieldFormatter func(Field) string

type traceFormatter func(string) string

func defaultFieldFormatter(field Field) string {
	return fmt.Sprintf("%s=%v", field.Key, field.Value)
}

// formatEntry lays out a text line. Trace fields become a bracketed prefix
// instead of trailing key=value pairs.
func formatEntry(entry *Entry, timestamp, levelText string, fields fieldFormatter, trace traceFormatter) []byte {
	if fields == nil {
		fields = defaultFieldFormatter
	}

	var buf bytes.Buffer

	if timestamp != "" {
		buf.WriteString(timestamp)
		buf.WriteString(" ")
	}

	buf.WriteString("[")
	buf.WriteString(levelText)
	buf.WriteString("] ")

	rest, prefix := splitTrace(entry.Fields)
	if prefix != "" {
		if trace != nil {
			prefix = trace(prefix)
		}
		buf.WriteString(prefix)
		buf.WriteString(" ")
	}

	buf.WriteString(entry.Message)

	for _, field := range rest {
		buf.WriteString(" ")
		buf.WriteString(fields(field))
	}

	if entry.Caller != nil {
		fmt.Fprintf(&buf, " caller=%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	buf.WriteString("\n")
	return buf.Bytes()
}

// splitTrace removes run_id and version from fields and renders them as
// "[version runid]" with the run id shortened.
func splitTrace(fields []Field) ([]Field, string) {
	var runID, version string
	rest := make([]Field, 0, len(fields))
	for _, field := range fields {
		s, isString := field.Value.(string)
		switch {
		case field.Key == runIDKey && isString && runID == "":
			runID = s
		case field.Key == versionKey && isString && version == "":
			version = s
		default:
			rest = append(rest, field)
		}
	}

	if len(runID) > shortRunIDLength {
		runID = runID[:shortRunIDLength]
	}
	switch {
	case runID != "" && version != "":
		return rest, "[" + version + " " + runID + "]"
	case runID != "":
		return rest, "[" + runID + "]"
	case version != "":
		return rest, "[" + version + "]"
	}
	return rest, ""
}
