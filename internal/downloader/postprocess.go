package downloader

import (
	"context"
	"fmt"

	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
)

// Extractor unpacks the native libraries of an archive into a directory.
type Extractor interface {
	Extract(archive, dir string) (int, error)
}

// postProcess runs once the pool drained without error.
func (a *Acquirer) postProcess(ctx context.Context, plan *Plan, versionID string) error {
	if err := a.ensureJarCopy(ctx, plan); err != nil {
		return err
	}
	return a.extractNatives(ctx, plan, versionID)
}

// ensureJarCopy places the inherited runtime image at the requested version's
// jar path. An existing target is never overwritten.
func (a *Acquirer) ensureJarCopy(ctx context.Context, plan *Plan) error {
	if plan.SourceJar == "" || plan.SourceJar == plan.TargetJar || core.Exists(a.fs, plan.TargetJar) {
		return nil
	}

	a.logger.InfoContext(ctx, "copying runtime image",
		logger.String("source", plan.SourceJar),
		logger.String("target", plan.TargetJar))
	if err := core.CopyFile(a.fs, plan.SourceJar, plan.TargetJar); err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to copy runtime image", err).
			WithModule("downloader").
			WithOperation("ensureJarCopy").
			WithFields(apperrors.Metadata{"source": plan.SourceJar, "target": plan.TargetJar})
	}
	return nil
}

func (a *Acquirer) extractNatives(ctx context.Context, plan *Plan, versionID string) error {
	total := len(plan.Natives)
	if total == 0 || a.extractor == nil {
		return nil
	}

	a.sink.SetProgress(ProgressChannel, 0, fmt.Sprintf("Extracting native libraries (0/%d)", total))
	dir := a.layout.NativesDir(versionID)

	for i, archive := range plan.Natives {
		if err := ctx.Err(); err != nil {
			return apperrors.Cancelled(err)
		}
		// Native archives are optional downloads and may be missing.
		if !core.Exists(a.fs, archive) {
			a.logger.WarnContext(ctx, "native archive missing, skipping", logger.String("archive", archive))
		} else {
			n, err := a.extractor.Extract(archive, dir)
			if err != nil {
				return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to extract native libraries", err).
					WithModule("downloader").
					WithOperation("extractNatives").
					WithFields(apperrors.Metadata{"archive": archive, "dir": dir})
			}
			a.logger.DebugContext(ctx, "extracted native archive",
				logger.String("archive", archive), logger.Int("files", n))
		}

		done := i + 1
		a.sink.SetProgress(ProgressChannel, done*100/total, fmt.Sprintf("Extracting native libraries (%d/%d)", done, total))
	}
	return nil
}
