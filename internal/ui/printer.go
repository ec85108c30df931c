package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"assetfetch/internal/data"
	"assetfetch/internal/system"

	"github.com/fatih/color"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Printer renders rich terminal UI fragments used by the CLI.
type Printer struct {
	output  io.Writer
	success *color.Color
	info    *color.Color
	warn    *color.Color
	error   *color.Color
	faint   *color.Color
}

// NewPrinter constructs a Printer on stdout with colour automatically
// enabled for TTY outputs.
func NewPrinter() *Printer {
	enabled := term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	return NewPrinterTo(os.Stdout, enabled)
}

// NewPrinterTo constructs a Printer writing to w.
func NewPrinterTo(w io.Writer, colorEnabled bool) *Printer {
	p := &Printer{
		output:  w,
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		error:   color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}

	if colorEnabled {
		for _, c := range []*color.Color{p.success, p.info, p.warn, p.error, p.faint} {
			c.EnableColor()
		}
	} else {
		for _, c := range []*color.Color{p.success, p.info, p.warn, p.error, p.faint} {
			c.DisableColor()
		}
	}

	return p
}

// PrintSeparator prints a repeated character separator.
func (p *Printer) PrintSeparator(char string, length int) {
	if length <= 0 {
		return
	}
	fmt.Fprintln(p.output, strings.Repeat(char, length))
}

// RunSummary is what the CLI shows after an acquisition finished.
type RunSummary struct {
	RunID    string
	Version  string
	Source   string
	Files    int64
	Size     int64
	Network  int64
	Natives  int
	Duration time.Duration
}

// PrintRunSummary renders the outcome of a finished acquisition.
func (p *Printer) PrintRunSummary(s RunSummary) {
	p.PrintSeparator("-", 50)
	p.success.Fprintf(p.output, "Version %s is ready\n", s.Version)
	fmt.Fprintln(p.output)

	rows := [][2]string{
		{"Run:", s.RunID},
		{"Source:", s.Source},
		{"Files:", fmt.Sprintf("%d", s.Files)},
		{"Size:", system.FormatBytes(uint64(nonNegative(s.Size)))},
		{"Downloaded:", system.FormatBytes(uint64(nonNegative(s.Network)))},
		{"Natives:", fmt.Sprintf("%d", s.Natives)},
		{"Took:", s.Duration.Round(time.Millisecond).String()},
	}
	for _, row := range rows {
		fmt.Fprintf(p.output, "%s %s\n", p.info.Sprint(padRight(row[0], 12)), p.warn.Sprint(row[1]))
	}

	p.PrintSeparator("-", 50)
}

// PlanSummary describes a download plan that has not been executed.
type PlanSummary struct {
	Version     string
	Files       int64
	Size        int64
	FileCounter bool
	Natives     int
}

// PrintPlan renders a dry-run plan.
func (p *Printer) PrintPlan(s PlanSummary) {
	p.PrintSeparator("-", 50)
	p.info.Fprintf(p.output, "Plan for %s\n", s.Version)

	size := system.FormatBytes(uint64(nonNegative(s.Size)))
	if s.FileCounter {
		size += p.faint.Sprint(" (some sizes unknown)")
	}
	fmt.Fprintf(p.output, "%s %d\n", padRight("Files:", 12), s.Files)
	fmt.Fprintf(p.output, "%s %s\n", padRight("Size:", 12), size)
	fmt.Fprintf(p.output, "%s %d\n", padRight("Natives:", 12), s.Natives)
	p.PrintSeparator("-", 50)
}

// statusMark renders a status mark for a journal entry.
func (p *Printer) statusMark(status string) string {
	switch status {
	case data.StatusDone:
		return p.success.Sprint("✓")
	case data.StatusFailed:
		return p.error.Sprint("✕")
	case data.StatusCancelled:
		return p.warn.Sprint("!")
	default:
		return "-"
	}
}

// PrintHistory renders journal entries as an aligned table, newest first.
func (p *Printer) PrintHistory(runs []data.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.output, "No acquisitions recorded yet")
		return
	}

	versionWidth := runewidth.StringWidth("VERSION")
	for _, run := range runs {
		if w := runewidth.StringWidth(run.Version); w > versionWidth {
			versionWidth = w
		}
	}

	fmt.Fprintf(p.output, "    %s  %s  %s  %s  %s\n",
		padRight("STARTED", 19), padRight("VERSION", versionWidth), padRight("FILES", 7), padRight("DOWNLOADED", 10), "SOURCE")
	for _, run := range runs {
		line := fmt.Sprintf("%s  %s  %s  %s  %s",
			run.Started.Local().Format("2006-01-02 15:04:05"),
			padRight(run.Version, versionWidth),
			padRight(fmt.Sprintf("%d", run.Files), 7),
			padRight(system.FormatBytes(uint64(nonNegative(run.NetworkBytes))), 10),
			run.Mirror)
		fmt.Fprintf(p.output, "[%s] %s\n", p.statusMark(run.Status), line)
		if run.Error != "" {
			fmt.Fprintf(p.output, "    %s\n", p.faint.Sprint(run.Error))
		}
	}
}

// PrintSources lists the download sources, marking the active one.
func (p *Printer) PrintSources(names []string, active string) {
	for _, name := range names {
		mark := " "
		if name == active {
			mark = p.success.Sprint("*")
		}
		fmt.Fprintf(p.output, "%s %s\n", mark, name)
	}
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
