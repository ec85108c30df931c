package core

import "io"

// ProgressSink publishes human-facing progress under a logical channel.
type ProgressSink interface {
	SetProgress(channel string, percent int, message string)
	ClearProgress(channel string)
}

// NoopProgressSink discards all progress events.
type NoopProgressSink struct{}

func (NoopProgressSink) SetProgress(string, int, string) {}
func (NoopProgressSink) ClearProgress(string)            {}

// ProgressFunc receives the number of bytes read since the previous call.
type ProgressFunc func(delta int64)

// ProgressReader wraps a reader to report each chunk it yields.
type ProgressReader struct {
	reader   io.Reader
	progress ProgressFunc
}

// NewProgressReader constructs a progress tracking reader. A nil progress
// function makes it a plain passthrough.
func NewProgressReader(reader io.Reader, progress ProgressFunc) *ProgressReader {
	return &ProgressReader{reader: reader, progress: progress}
}

// Read implements io.Reader and relays progress.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 && pr.progress != nil {
		pr.progress(int64(n))
	}
	return n, err
}
