// Package menu implements the interactive terminal front end.
package menu

import (
	"fmt"
	"io"

	"assetfetch/internal/config"
	"assetfetch/internal/logger"
	"assetfetch/internal/ui"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

// Menu coordinates the interactive workflow.
type Menu struct {
	config   *config.Config
	console  *ui.Console
	logger   logger.Logger
	printer  *ui.Printer
	handlers Handlers

	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewMenu creates a new menu manager instance.
func NewMenu(cfg *config.Config, console *ui.Console, handlers Handlers) *Menu {
	var log logger.Logger = logger.NewStandardLogger()
	if console != nil && console.Logger() != nil {
		log = console.Logger()
	}

	return &Menu{
		config:   cfg,
		console:  console,
		logger:   log,
		printer:  ui.NewPrinter(),
		handlers: handlers,
	}
}

// ShowMainMenu displays the interactive menu until the user quits.
func (m *Menu) ShowMainMenu() error {
	for {
		options := m.buildMenuOptions()

		selected, err := m.promptUserSelection("Please select an operation", options)
		if err != nil {
			if isInterrupt(err) {
				m.logger.Info("User cancelled operation")
				return nil
			}
			return errors.Wrap(err, "failed to process user input")
		}
		if options[selected].Handler == nil {
			return nil
		}

		if err := options[selected].Handler(); err != nil {
			m.logger.Error("Operation failed: %v", err)
			m.waitForUserInput("\nPress Enter to continue...")
		}
	}
}

// PickSource asks the user for a download source and stores it in the
// configuration. The selected name is returned.
func (m *Menu) PickSource() (string, error) {
	names := m.config.SourceNames()
	options := sourceOptions(m.config, names)

	selected, err := m.promptUserSelection("Select a download source", options)
	if err != nil {
		return "", errors.Wrap(err, "failed to select download source")
	}

	m.config.DownloadSource = names[selected]
	m.logger.Info("Download source set to %s", names[selected])
	return names[selected], nil
}

func (m *Menu) buildMenuOptions() []MenuOption {
	return []MenuOption{
		{
			Label:       "1. Download a version",
			Description: "fetch and verify every file of a game version",
			Handler:     m.handleAcquire,
			Color:       "green",
			Enabled:     m.handlers.Acquire != nil,
		},
		{
			Label:       "2. Download source",
			Description: fmt.Sprintf("currently %s", m.config.DownloadSource),
			Handler:     func() error { _, err := m.PickSource(); return err },
			Color:       "cyan",
			Enabled:     len(m.config.Mirrors) > 0,
		},
		{
			Label:       "3. History",
			Description: "recent acquisitions",
			Handler:     m.handlers.History,
			Color:       "yellow",
			Enabled:     m.handlers.History != nil,
		},
		{
			Label:   "4. Exit",
			Color:   "red",
			Enabled: true,
		},
	}
}

func (m *Menu) handleAcquire() error {
	version, err := m.promptVersion()
	if err != nil {
		return errors.Wrap(err, "failed to read version")
	}
	return m.handlers.Acquire(version)
}

func sourceOptions(cfg *config.Config, names []string) []MenuOption {
	options := make([]MenuOption, 0, len(names))
	for i, name := range names {
		description := "canonical upstream hosts"
		if mirror, ok := cfg.Mirrors[name]; ok {
			description = mirror.Metadata
		}
		color := ""
		if name == cfg.DownloadSource {
			color = "green"
		}
		options = append(options, MenuOption{
			Label:       fmt.Sprintf("%d. %s", i+1, name),
			Description: description,
			Color:       color,
			Enabled:     true,
		})
	}
	return options
}

func isInterrupt(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}
