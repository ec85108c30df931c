// Package downloader resolves a version manifest into a verified set of
// local files and downloads whatever is missing.
package downloader

import (
	"context"
	"time"

	"assetfetch/internal/config"
	"assetfetch/internal/data"
	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
	"assetfetch/internal/manifest"
	"assetfetch/internal/runtime"
	"assetfetch/internal/system"

	"github.com/google/uuid"
)

const defaultPollInterval = 33 * time.Millisecond

// Fetcher is the mirror-aware network surface of an acquisition.
type Fetcher interface {
	TaskFetcher
	SizeProber
	DownloadFile(ctx context.Context, class core.DownloadClass, url, path string) error
	IsMirrored() bool
}

// Journal records finished acquisitions.
type Journal interface {
	RecordRun(ctx context.Context, run data.Run) error
}

// SpaceChecker measures free space on the volume holding path.
type SpaceChecker func(path string, required uint64) (system.SpaceReport, error)

// Listener receives the outcome of an acquisition started with Start.
// Neither callback fires when the acquisition is cancelled.
type Listener struct {
	OnDone   func(Result)
	OnFailed func(error)
}

// Result summarises a successful acquisition.
type Result struct {
	RunID      string
	Version    string
	TotalFiles int64
	TotalSize  int64
	Stats      Stats
	Natives    int
	Duration   time.Duration
}

// Acquirer is the entry point of the acquisition engine.
type Acquirer struct {
	fetcher        Fetcher
	fs             core.FileSystem
	layout         config.Layout
	logger         logger.Logger
	sink           core.ProgressSink
	versions       VersionSource
	runtime        runtime.Installer
	extractor      Extractor
	journal        Journal
	spaceCheck     SpaceChecker
	sources        Sources
	sourceName     string
	checkHashes    bool
	verifyManifest bool
	pollInterval   time.Duration

	planner *Planner
}

// Option customises an Acquirer.
type Option func(*Acquirer)

// WithFileSystem overrides the filesystem implementation.
func WithFileSystem(fs core.FileSystem) Option {
	return func(a *Acquirer) { a.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Acquirer) { a.logger = log }
}

// WithProgressSink sets where progress is published.
func WithProgressSink(sink core.ProgressSink) Option {
	return func(a *Acquirer) { a.sink = sink }
}

// WithVersionSource sets how parent versions are looked up.
func WithVersionSource(src VersionSource) Option {
	return func(a *Acquirer) { a.versions = src }
}

// WithRuntimeInstaller sets the runtime precondition.
func WithRuntimeInstaller(installer runtime.Installer) Option {
	return func(a *Acquirer) { a.runtime = installer }
}

// WithExtractor sets the native archive extractor.
func WithExtractor(ex Extractor) Option {
	return func(a *Acquirer) { a.extractor = ex }
}

// WithJournal records every run.
func WithJournal(j Journal) Option {
	return func(a *Acquirer) { a.journal = j }
}

// WithSpaceCheck enables the free-space preflight.
func WithSpaceCheck(check SpaceChecker) Option {
	return func(a *Acquirer) { a.spaceCheck = check }
}

// WithSources overrides the canonical upstream locations.
func WithSources(s Sources) Option {
	return func(a *Acquirer) { a.sources = s }
}

// WithSourceName labels journal rows with the download source in use.
func WithSourceName(name string) Option {
	return func(a *Acquirer) { a.sourceName = name }
}

// WithHashChecks toggles hashes on library, asset, jar and logging tasks.
func WithHashChecks(enabled bool) Option {
	return func(a *Acquirer) { a.checkHashes = enabled }
}

// WithManifestVerification toggles hash verification of version manifests.
func WithManifestVerification(enabled bool) Option {
	return func(a *Acquirer) { a.verifyManifest = enabled }
}

// WithPollInterval sets the progress polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(a *Acquirer) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// New returns an Acquirer materialising files below layout.
func New(fetcher Fetcher, layout config.Layout, opts ...Option) *Acquirer {
	a := &Acquirer{
		fetcher:        fetcher,
		fs:             core.OSFileSystem{},
		layout:         layout,
		logger:         logger.Nop(),
		sink:           core.NoopProgressSink{},
		runtime:        runtime.Accept{},
		checkHashes:    true,
		verifyManifest: true,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fs == nil {
		a.fs = core.OSFileSystem{}
	}
	if a.logger == nil {
		a.logger = logger.Nop()
	}
	if a.sink == nil {
		a.sink = core.NoopProgressSink{}
	}
	if a.runtime == nil {
		a.runtime = runtime.Accept{}
	}
	a.planner = NewPlanner(fetcher, a.fs, layout, a.sources, a.checkHashes, a.logger)
	return a
}

// Plan resolves versionID and returns the download plan without executing it.
// Metadata files are fetched as a side effect.
func (a *Acquirer) Plan(ctx context.Context, ref *manifest.VersionRef, versionID string) (*Plan, error) {
	plan := NewPlan(a.layout.VersionJar(versionID))
	if err := a.processMetadata(ctx, plan, ref, versionID, 0); err != nil {
		return nil, normalize(ctx, err)
	}
	return plan, nil
}

// Acquire materialises every file versionID needs and blocks until done.
// ref is the listed entry for the version, or nil to use the local manifest.
// When a download fails the error is returned at once; downloads that were
// already running may still be finishing.
func (a *Acquirer) Acquire(ctx context.Context, ref *manifest.VersionRef, versionID string) (Result, error) {
	result, _, err := a.acquire(ctx, ref, versionID)
	return result, err
}

// acquire runs one acquisition. The returned channel is closed once no worker
// of the run is left.
func (a *Acquirer) acquire(ctx context.Context, ref *manifest.VersionRef, versionID string) (Result, <-chan struct{}, error) {
	settled := make(chan struct{})
	close(settled)
	var workers <-chan struct{} = settled

	runID := uuid.NewString()
	ctx = logger.ContextWithTrace(ctx, logger.TraceContext{RunID: runID, Version: versionID})
	started := time.Now()

	var (
		plan  *Plan
		stats Stats
	)
	result, err := func() (Result, error) {
		a.sink.SetProgress(ProgressChannel, 0, "Starting download")

		var err error
		if plan, err = a.Plan(ctx, ref, versionID); err != nil {
			return Result{}, err
		}
		a.logger.InfoContext(ctx, "download plan ready",
			logger.Int64("files", plan.TotalFiles()),
			logger.Int64("bytes", plan.TotalSize()),
			logger.Int("natives", len(plan.Natives)))
		a.preflight(ctx, plan)

		if len(plan.Tasks) > 0 {
			exec := NewExecutor(a.fetcher, a.fs, a.checkHashes, a.logger)
			exec.Start(ctx, plan.Tasks)
			workers = exec.Done()
			err = a.supervise(ctx, plan, exec)
			stats = exec.Counters().Snapshot()
			if err != nil {
				return Result{}, normalize(ctx, err)
			}
		}

		if err := a.postProcess(ctx, plan, versionID); err != nil {
			return Result{}, normalize(ctx, err)
		}
		return Result{
			RunID:      runID,
			Version:    versionID,
			TotalFiles: plan.TotalFiles(),
			TotalSize:  plan.TotalSize(),
			Stats:      stats,
			Natives:    len(plan.Natives),
			Duration:   time.Since(started),
		}, nil
	}()

	a.record(ctx, runID, versionID, started, stats, err)
	if err != nil {
		return Result{}, workers, err
	}
	a.logger.InfoContext(ctx, "acquisition finished",
		logger.Int64("files", result.Stats.Files),
		logger.Int64("network_bytes", result.Stats.Network),
		logger.Duration("duration", result.Duration))
	return result, workers, nil
}

// Start runs Acquire in the background and reports to listener. The returned
// channel is closed once the acquisition has ended, the progress channel has
// been cleared and every worker has exited.
func (a *Acquirer) Start(ctx context.Context, ref *manifest.VersionRef, versionID string, listener Listener) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		result, workers, err := a.acquire(ctx, ref, versionID)
		defer func() { <-workers }()
		defer a.sink.ClearProgress(ProgressChannel)

		switch {
		case apperrors.IsCancelled(err):
		case err != nil:
			if listener.OnFailed != nil {
				listener.OnFailed(err)
			}
		default:
			if listener.OnDone != nil {
				listener.OnDone(result)
			}
		}
	}()
	return done
}

// preflight warns when the plan's known size does not fit on the volume.
func (a *Acquirer) preflight(ctx context.Context, plan *Plan) {
	if a.spaceCheck == nil || plan.UseFileCounter() || plan.TotalSize() <= 0 {
		return
	}
	report, err := a.spaceCheck(a.layout.Root, uint64(plan.TotalSize()))
	if err != nil {
		a.logger.DebugContext(ctx, "free space check unavailable", logger.Error(err))
		return
	}
	if !report.Sufficient() {
		a.logger.WarnContext(ctx, "download may not fit on disk", logger.String("space", report.String()))
	}
}

func (a *Acquirer) record(ctx context.Context, runID, versionID string, started time.Time, stats Stats, err error) {
	if a.journal == nil {
		return
	}

	run := data.Run{
		ID:           runID,
		Version:      versionID,
		Status:       data.StatusDone,
		Mirror:       a.sourceName,
		Files:        stats.Files,
		Bytes:        stats.Processed,
		NetworkBytes: stats.Network,
		Started:      started,
		Finished:     time.Now(),
	}
	switch {
	case apperrors.IsCancelled(err):
		run.Status = data.StatusCancelled
	case err != nil:
		run.Status = data.StatusFailed
		run.Error = err.Error()
	}

	// The run context may already be cancelled; the journal write must still land.
	if jerr := a.journal.RecordRun(context.WithoutCancel(ctx), run); jerr != nil {
		a.logger.WarnContext(ctx, "failed to record run", logger.Error(jerr))
	}
}

// normalize reports any failure observed after cancellation as a cancellation.
func normalize(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil && !apperrors.IsCancelled(err) {
		return apperrors.Cancelled(ctx.Err())
	}
	return err
}
