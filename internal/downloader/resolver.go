package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
	"assetfetch/internal/manifest"
)

// maxInheritanceDepth bounds the inheritsFrom chain.
const maxInheritanceDepth = 32

// VersionSource finds listed versions by id. A nil ref means the version is
// not listed and only a local manifest can describe it.
type VersionSource interface {
	Lookup(ctx context.Context, id string) (*manifest.VersionRef, error)
}

// processMetadata loads the manifest for versionID, schedules everything it
// declares and then walks up its inheritance chain.
func (a *Acquirer) processMetadata(ctx context.Context, plan *Plan, ref *manifest.VersionRef, versionID string, depth int) error {
	if depth > maxInheritanceDepth {
		return apperrors.MalformedSource(fmt.Sprintf("inheritance chain deeper than %d", maxInheritanceDepth), versionID).
			WithModule("downloader").
			WithOperation("processMetadata")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Cancelled(err)
	}
	if err := validName("version id", versionID); err != nil {
		return err
	}
	if ref != nil && ref.ID != versionID {
		if err := validName("version id", ref.ID); err != nil {
			return err
		}
	}

	jsonPath := a.layout.VersionJSON(versionID)
	if ref != nil {
		var err error
		if jsonPath, err = a.downloadVersionJSON(ctx, ref); err != nil {
			return err
		}
	}

	version, err := manifest.ReadVersion(jsonPath)
	if err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "unable to read version manifest for "+versionID, err).
			WithModule("downloader").
			WithOperation("processMetadata").
			WithField("path", jsonPath)
	}

	if err := a.runtime.EnsureRuntime(ctx, version.RequiredRuntime()); err != nil {
		if apperrors.IsRuntimeInstall(err) || apperrors.IsCancelled(err) {
			return err
		}
		return apperrors.RuntimeInstall("failed to prepare runtime for "+versionID, err)
	}

	assets, err := a.downloadAssetIndex(ctx, version)
	if err != nil {
		return err
	}
	if err := a.planner.ScheduleAssets(ctx, plan, assets); err != nil {
		return err
	}
	if err := a.planner.ScheduleClientJar(ctx, plan, version.ClientDownload(), versionID); err != nil {
		return err
	}
	if err := a.planner.ScheduleLibraries(ctx, plan, version.Libraries); err != nil {
		return err
	}
	if err := a.planner.ScheduleLogging(ctx, plan, version.LoggingFile()); err != nil {
		return err
	}

	a.logger.DebugContext(ctx, "processed version manifest",
		logger.String("id", versionID),
		logger.Int64("tasks", plan.TotalFiles()),
		logger.Int("depth", depth))

	if !version.HasParent() {
		return nil
	}

	parent := strings.TrimSpace(version.InheritsFrom)
	parentRef, err := a.lookupVersion(ctx, parent)
	if err != nil {
		return err
	}
	return a.processMetadata(ctx, plan, parentRef, parent, depth+1)
}

// lookupVersion consults the version list. A list that cannot be fetched is
// not fatal; the parent is then read from disk like any unlisted version.
func (a *Acquirer) lookupVersion(ctx context.Context, id string) (*manifest.VersionRef, error) {
	if a.versions == nil {
		return nil, nil
	}
	ref, err := a.versions.Lookup(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Cancelled(ctx.Err())
		}
		a.logger.WarnContext(ctx, "version list unavailable, using local manifest",
			logger.String("id", id), logger.Error(err))
		return nil, nil
	}
	return ref, nil
}

// downloadVersionJSON makes sure the manifest described by ref is on disk.
func (a *Acquirer) downloadVersionJSON(ctx context.Context, ref *manifest.VersionRef) (string, error) {
	target := a.layout.VersionJSON(ref.ID)
	if ref.SHA1 == "" && isReadableFile(a.fs, target) {
		return target, nil
	}

	expected := ""
	if a.verifyManifest {
		expected = ref.SHA1
	}
	err := core.EnsureHash(a.fs, target, expected, func() error {
		a.sink.SetProgress(ProgressChannel, 0, "Downloading metadata "+filepath.Base(target))
		return a.fetcher.DownloadFile(ctx, core.ClassMetadata, ref.URL, target)
	})
	if apperrors.IsIntegrity(err) && a.fetcher.IsMirrored() {
		return "", apperrors.MirrorTampered(ref.URL, err).
			WithModule("downloader").
			WithOperation("downloadVersionJSON")
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

// downloadAssetIndex fetches and decodes the asset index of version, if it has one.
func (a *Acquirer) downloadAssetIndex(ctx context.Context, version *manifest.Version) (*manifest.AssetIndex, error) {
	ref := version.AssetIndex
	if ref == nil || version.Assets == "" {
		return nil, nil
	}

	if err := validName("asset index name", version.Assets); err != nil {
		return nil, err
	}
	target := a.layout.AssetIndex(version.Assets)
	err := core.EnsureHash(a.fs, target, ref.SHA1, func() error {
		a.sink.SetProgress(ProgressChannel, 0, "Downloading metadata "+filepath.Base(target))
		return a.fetcher.DownloadFile(ctx, core.ClassMetadata, ref.URL, target)
	})
	if err != nil {
		return nil, err
	}

	idx, err := manifest.ReadAssetIndex(target)
	if err != nil {
		return nil, apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to read asset index", err).
			WithModule("downloader").
			WithOperation("downloadAssetIndex").
			WithField("path", target)
	}
	return idx, nil
}

func isReadableFile(fs core.FileSystem, path string) bool {
	info, err := fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := fs.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
