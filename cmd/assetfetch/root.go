package main

import (
	"context"
	"os"
	"strings"

	"assetfetch/internal/app"
	"assetfetch/internal/config"
	apperrors "assetfetch/internal/errors"
	errlog "assetfetch/internal/errors/logging"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	source     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "assetfetch",
		Short:         "Download and verify everything a game version needs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				return a.Menu(ctx).ShowMainMenu()
			})
		},
	}

	defaultPath, _ := config.DefaultPath()
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "Path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.source, "source", "", "Download source (default or a configured mirror)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newMirrorsCmd(opts))

	return cmd
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.LoadOptional(opts.configPath)
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(opts.source); s != "" {
		cfg.DownloadSource = s
	}
	if l := strings.TrimSpace(opts.logLevel); l != "" {
		cfg.Log.Level = l
	}
	return cfg, nil
}

// withApp builds the application for one command, runs fn and reports its error.
func withApp(ctx context.Context, opts *globalOptions, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return runWithConfig(ctx, cfg, fn)
}

func runWithConfig(ctx context.Context, cfg *config.Config, fn func(context.Context, *app.App) error) error {
	log := app.NewLogger(cfg.Log, os.Stdout)

	a, err := app.New(cfg, log, os.Stdout)
	if err != nil {
		errlog.Error(ctx, log, "Failed to initialise", err)
		return reportedError{err}
	}
	defer a.Close()

	err = fn(ctx, a)
	switch {
	case err == nil:
	case apperrors.IsCancelled(err):
		log.Warn("Cancelled")
	default:
		errlog.Error(ctx, log, "Command failed", err)
	}
	if err != nil {
		return reportedError{err}
	}
	return nil
}

// reportedError marks an error that has already been logged.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }
