package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"assetfetch/internal/logger"

	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultWidth = 80

// Console coordinates logger output, progress lines and plain text writes
// on one terminal. It implements core.ProgressSink.
type Console struct {
	mu       sync.Mutex
	logger   logger.Logger
	progress logger.Progress
	output   io.Writer
	width    func() int

	// channel that currently owns the progress line, and its rendered width
	owner    string
	rendered int
}

// NewConsole builds a Console bound to the provided logger.
func NewConsole(log logger.Logger, output io.Writer) *Console {
	c := &Console{
		logger: log,
		output: output,
	}
	if c.output == nil {
		c.output = os.Stdout
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	c.progress = logger.NewSpinnerProgress(c.output)
	c.width = func() int { return terminalWidth(c.output) }

	return c
}

// Logger exposes the underlying logger.
func (c *Console) Logger() logger.Logger {
	return c.logger
}

// Success logs a success message with a consistent prefix.
func (c *Console) Success(format string, args ...interface{}) {
	c.logger.Info("✓ "+format, args...)
}

// StartProgress starts the spinner for a step with no measurable progress.
func (c *Console) StartProgress(operation string) {
	c.progress.Start(operation)
}

// StopProgress stops the spinner.
func (c *Console) StopProgress(operation string) {
	c.progress.Stop(operation)
}

// SetProgress redraws the single progress line.
func (c *Console) SetProgress(channel string, percent int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("[%3d%%] %s", clampPercent(percent), message)
	width := c.width() - 1
	if width < 10 {
		width = 10
	}
	line = runewidth.Truncate(line, width, "…")

	w := runewidth.StringWidth(line)
	pad := ""
	if c.rendered > w {
		pad = strings.Repeat(" ", c.rendered-w)
	}
	fmt.Fprintf(c.output, "\r%s%s", line, pad)

	c.owner = channel
	c.rendered = w
}

// ClearProgress blanks the progress line if channel owns it.
func (c *Console) ClearProgress(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owner != channel || c.rendered == 0 {
		return
	}
	fmt.Fprintf(c.output, "\r%s\r", strings.Repeat(" ", c.rendered))
	c.owner = ""
	c.rendered = 0
}

// WriteLine outputs formatted text without involving the logger.
func (c *Console) WriteLine(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rendered > 0 {
		fmt.Fprint(c.output, "\n")
		c.owner = ""
		c.rendered = 0
	}
	fmt.Fprintf(c.output, format+"\n", args...)
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
