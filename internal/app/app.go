// Package app wires configuration, the acquisition engine and the terminal
// front end together.
package app

import (
	"context"
	"io"
	"os"
	"strings"

	"assetfetch/internal/config"
	"assetfetch/internal/data"
	"assetfetch/internal/downloader"
	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
	"assetfetch/internal/manifest"
	"assetfetch/internal/menu"
	"assetfetch/internal/natives"
	"assetfetch/internal/runtime"
	"assetfetch/internal/system"
	"assetfetch/internal/ui"
)

const defaultHistoryLimit = 20

// App holds the long-lived collaborators of one CLI invocation.
type App struct {
	config  *config.Config
	layout  config.Layout
	logger  logger.Logger
	console *ui.Console
	printer *ui.Printer

	fetcher  *core.MirroredFetcher
	versions *manifest.VersionLister
	journal  data.Repository
}

// Option customises an App.
type Option func(*App)

// WithPrinter replaces the stdout printer.
func WithPrinter(p *ui.Printer) Option {
	return func(a *App) { a.printer = p }
}

// WithJournal replaces the SQLite journal opened from configuration.
func WithJournal(repo data.Repository) Option {
	return func(a *App) { a.journal = repo }
}

// New validates cfg and builds the application. output receives progress
// lines; nil selects stdout.
func New(cfg *config.Config, log logger.Logger, output io.Writer, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.ConfigError(apperrors.CodeConfigGeneric, "invalid configuration", err).
			WithModule("app").
			WithOperation("app.New")
	}
	layout, err := cfg.Layout()
	if err != nil {
		return nil, apperrors.ConfigError(apperrors.CodeConfigGeneric, "failed to resolve home directory", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if output == nil {
		output = os.Stdout
	}

	a := &App{
		config:  cfg,
		layout:  layout,
		logger:  log,
		console: ui.NewConsole(log, output),
		printer: ui.NewPrinter(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	client := core.NewClient(cfg.HTTP.Timeout, core.WithUserAgent(cfg.HTTP.UserAgent))
	a.fetcher = core.NewMirroredFetcher(client, core.NewResolver(activeMirror(cfg)), log)
	a.versions = manifest.NewVersionLister(a.fetcher, cfg.VersionListURL)

	return a, nil
}

// NewLogger builds the logger described by the log section of the configuration.
func NewLogger(cfg config.LogConfig, output io.Writer) logger.Logger {
	opts := []logger.Option{logger.WithLevel(logger.ParseLevel(cfg.Level))}
	if output != nil {
		opts = append(opts, logger.WithOutput(output))
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		opts = append(opts, logger.WithFormatter(&logger.JSONFormatter{}))
		return logger.NewStandardLogger(opts...)
	}
	return logger.NewColoredLogger(opts...)
}

func activeMirror(cfg *config.Config) *core.Mirror {
	m := cfg.ActiveMirror()
	if m == nil {
		return nil
	}
	return &core.Mirror{
		Name:      cfg.DownloadSource,
		Libraries: m.Libraries,
		Metadata:  m.Metadata,
		Assets:    m.Assets,
	}
}

// Close releases the journal.
func (a *App) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// Config exposes the effective configuration.
func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) openJournal(ctx context.Context) error {
	if a.journal != nil {
		return nil
	}
	repo, err := data.OpenSQLite(a.config.JournalPath(a.layout))
	if err != nil {
		return err
	}
	if err := repo.Bootstrap(ctx); err != nil {
		repo.Close()
		return err
	}
	a.journal = repo
	return nil
}

func (a *App) acquirer() *downloader.Acquirer {
	opts := []downloader.Option{
		downloader.WithLogger(a.logger),
		downloader.WithProgressSink(a.console),
		downloader.WithVersionSource(a.versions),
		downloader.WithRuntimeInstaller(runtime.NewDirectoryInstaller(a.config.Runtimes, a.logger)),
		downloader.WithExtractor(natives.NewExtractor("")),
		downloader.WithSpaceCheck(system.CheckSpace),
		downloader.WithSourceName(a.config.DownloadSource),
		downloader.WithHashChecks(a.config.HashChecksEnabled()),
		downloader.WithManifestVerification(a.config.ManifestVerificationEnabled()),
		downloader.WithPollInterval(a.config.Progress.PollInterval),
	}
	if a.journal != nil {
		opts = append(opts, downloader.WithJournal(a.journal))
	}
	return downloader.New(a.fetcher, a.layout, opts...)
}

// Menu builds the interactive menu bound to this application.
func (a *App) Menu(ctx context.Context) *menu.Menu {
	return menu.NewMenu(a.config, a.console, menu.Handlers{
		Acquire: func(version string) error {
			_, err := a.Acquire(ctx, version)
			return err
		},
		History: func() error {
			return a.History(ctx, defaultHistoryLimit)
		},
	})
}
