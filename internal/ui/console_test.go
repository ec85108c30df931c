package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"assetfetch/internal/data"
	"assetfetch/internal/logger"
)

func newTestConsole(width int) (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	c := NewConsole(logger.NewMockLogger(), &buf)
	c.width = func() int { return width }
	return c, &buf
}

func TestConsoleSetProgressTruncatesToWidth(t *testing.T) {
	c, buf := newTestConsole(30)

	c.SetProgress("download.version", 42, "Downloading game files (1.00/200.00 MB, 3.00 MB/s)")

	out := strings.TrimPrefix(buf.String(), "\r")
	if !strings.HasPrefix(out, "[ 42%] Downloading") {
		t.Fatalf("line = %q", out)
	}
	if !strings.HasSuffix(out, "…") {
		t.Errorf("long line not truncated: %q", out)
	}
	if n := len([]rune(out)); n > 29 {
		t.Errorf("line width %d exceeds terminal", n)
	}
}

func TestConsoleShorterLineOverwritesPrevious(t *testing.T) {
	c, buf := newTestConsole(80)

	c.SetProgress("a", 10, "a long first message")
	buf.Reset()
	c.SetProgress("a", 20, "short")

	want := "\r[ 20%] short" + strings.Repeat(" ", len("a long first message")-len("short"))
	if buf.String() != want {
		t.Errorf("redraw = %q, want %q", buf.String(), want)
	}
}

func TestConsoleClearProgressOnlyForOwner(t *testing.T) {
	c, buf := newTestConsole(80)

	c.SetProgress("download.version", 150, "done")
	if !strings.Contains(buf.String(), "[100%]") {
		t.Errorf("percent not clamped: %q", buf.String())
	}

	buf.Reset()
	c.ClearProgress("other")
	if buf.Len() != 0 {
		t.Errorf("foreign channel cleared the line: %q", buf.String())
	}

	c.ClearProgress("download.version")
	if strings.TrimSpace(buf.String()) != "" || !strings.HasPrefix(buf.String(), "\r") {
		t.Errorf("clear output = %q", buf.String())
	}

	buf.Reset()
	c.ClearProgress("download.version")
	if buf.Len() != 0 {
		t.Error("second clear must be a no-op")
	}
}

func TestConsoleWriteLineBreaksProgress(t *testing.T) {
	c, buf := newTestConsole(80)

	c.SetProgress("x", 1, "working")
	c.WriteLine("hello %s", "there")

	if !strings.HasSuffix(buf.String(), "working\nhello there\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinterHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterTo(&buf, false)

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	p.PrintHistory([]data.Run{
		{ID: "1", Version: "1.20.4", Status: data.StatusDone, Mirror: "default", Files: 12, NetworkBytes: 2048, Started: started},
		{ID: "2", Version: "1.8", Status: data.StatusFailed, Mirror: "bmclapi", Started: started, Error: "boom"},
	})

	out := buf.String()
	for _, want := range []string{"VERSION", "[✓] 2024-03-01 10:00:00  1.20.4", "[✕]", "bmclapi", "    boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("history missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf, false).PrintHistory(nil)
	if !strings.Contains(buf.String(), "No acquisitions") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinterPlan(t *testing.T) {
	var buf bytes.Buffer
	NewPrinterTo(&buf, false).PrintPlan(PlanSummary{Version: "1.20", Files: 3, Size: 2048, FileCounter: true, Natives: 1})

	out := buf.String()
	for _, want := range []string{"Plan for 1.20", "Files:       3", "2.0 KiB (some sizes unknown)", "Natives:     1"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan missing %q:\n%s", want, out)
		}
	}
}
