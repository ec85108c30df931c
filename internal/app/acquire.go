package app

import (
	"context"

	"assetfetch/internal/downloader"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/manifest"
	"assetfetch/internal/ui"
)

// resolved is the outcome of the version resolution step.
type resolved struct {
	ref *manifest.VersionRef
	id  string
}

// resolveVersion maps a user supplied version, possibly an alias, onto a
// listed entry. Unlisted versions fall back to an installed manifest.
func (a *App) resolveVersion(ctx context.Context, arg string, out *resolved) error {
	list, err := a.versions.List(ctx)
	if err != nil {
		if arg == "release" || arg == "snapshot" {
			return apperrors.NetworkError(apperrors.CodeNetworkGeneric, "cannot resolve "+arg+" without the version list", err)
		}
		a.logger.Warn("Version list unavailable, using the installed manifest of %s: %v", arg, err)
		out.ref, out.id = nil, arg
		return nil
	}

	out.id = list.Alias(arg)
	out.ref = list.Find(out.id)
	if out.ref == nil {
		a.logger.Info("Version %s is not listed, using the installed manifest", out.id)
	} else if out.id != arg {
		a.logger.Info("Resolved %s to %s", arg, out.id)
	}
	return nil
}

// Acquire downloads and verifies every file of version and prints a summary.
func (a *App) Acquire(ctx context.Context, version string) (downloader.Result, error) {
	var (
		target resolved
		result downloader.Result
	)

	pipeline := NewPipeline(a.console, a.logger,
		Step{
			Name:      "Open journal",
			Operation: "app.openJournal",
			Category:  apperrors.ErrCategoryDatabase,
			Fn: func(ctx context.Context) error {
				if err := a.openJournal(ctx); err != nil {
					a.logger.Warn("Journal unavailable, this run will not be recorded: %v", err)
				}
				return nil
			},
		},
		Step{
			Name:      "Resolve version",
			Operation: "app.resolveVersion",
			Category:  apperrors.ErrCategoryNetwork,
			Spinner:   true,
			Fn: func(ctx context.Context) error {
				return a.resolveVersion(ctx, version, &target)
			},
		},
		Step{
			Name:      "Download game files",
			Operation: "downloader.Acquire",
			Category:  apperrors.ErrCategoryNetwork,
			Fn: func(ctx context.Context) error {
				return a.runAcquisition(ctx, target, &result)
			},
		},
	)

	if err := pipeline.Execute(ctx); err != nil {
		return downloader.Result{}, err
	}

	a.printer.PrintRunSummary(ui.RunSummary{
		RunID:    result.RunID,
		Version:  result.Version,
		Source:   a.config.DownloadSource,
		Files:    result.Stats.Files,
		Size:     result.TotalSize,
		Network:  result.Stats.Network,
		Natives:  result.Natives,
		Duration: result.Duration,
	})
	return result, nil
}

// runAcquisition drives the engine through its listener interface so the
// outcome is only reported once the progress line has been cleared.
func (a *App) runAcquisition(ctx context.Context, target resolved, out *downloader.Result) error {
	var failure error
	done := a.acquirer().Start(ctx, target.ref, target.id, downloader.Listener{
		OnDone:   func(r downloader.Result) { *out = r },
		OnFailed: func(err error) { failure = err },
	})
	<-done

	if failure != nil {
		return failure
	}
	if out.RunID == "" {
		return apperrors.Cancelled(ctx.Err())
	}
	return nil
}

// Plan resolves version and prints the download plan without fetching game files.
func (a *App) Plan(ctx context.Context, version string) (*downloader.Plan, error) {
	var (
		target resolved
		plan   *downloader.Plan
	)

	pipeline := NewPipeline(a.console, a.logger,
		Step{
			Name:      "Resolve version",
			Operation: "app.resolveVersion",
			Category:  apperrors.ErrCategoryNetwork,
			Spinner:   true,
			Fn: func(ctx context.Context) error {
				return a.resolveVersion(ctx, version, &target)
			},
		},
		Step{
			Name:      "Build download plan",
			Operation: "downloader.Plan",
			Category:  apperrors.ErrCategoryNetwork,
			Spinner:   true,
			Fn: func(ctx context.Context) (err error) {
				plan, err = a.acquirer().Plan(ctx, target.ref, target.id)
				return err
			},
		},
	)
	if err := pipeline.Execute(ctx); err != nil {
		return nil, err
	}

	a.printer.PrintPlan(ui.PlanSummary{
		Version:     target.id,
		Files:       plan.TotalFiles(),
		Size:        plan.TotalSize(),
		FileCounter: plan.UseFileCounter(),
		Natives:     len(plan.Natives),
	})
	return plan, nil
}

// History prints the most recent journal entries.
func (a *App) History(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if err := a.openJournal(ctx); err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to open journal", err).
			WithOperation("app.History")
	}
	runs, err := a.journal.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	a.printer.PrintHistory(runs)
	return nil
}

// Sources prints the configured download sources.
func (a *App) Sources() {
	a.printer.PrintSources(a.config.SourceNames(), a.config.DownloadSource)
}
