package downloader

import (
	"context"
	"path/filepath"
	"strings"

	"assetfetch/internal/config"
	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
	"assetfetch/internal/manifest"
)

// Canonical upstream locations.
const (
	DefaultAssetsURL    = "https://resources.download.minecraft.net/"
	DefaultLibrariesURL = "https://libraries.minecraft.net/"
	DefaultNativesURL   = "https://repo1.maven.org/maven2/"
)

const (
	bundledLibraryPrefix = "org.lwjgl"
	nativeLibraryPrefix  = "net.java.dev.jna:jna:"
	nativeArchiveExt     = ".aar"
)

// Sources overrides the canonical upstream locations the planner builds URLs from.
type Sources struct {
	Assets    string
	Libraries string
	Natives   string
}

func (s Sources) withDefaults() Sources {
	if s.Assets == "" {
		s.Assets = DefaultAssetsURL
	}
	if s.Libraries == "" {
		s.Libraries = DefaultLibrariesURL
	}
	if s.Natives == "" {
		s.Natives = DefaultNativesURL
	}
	s.Assets = withTrailingSlash(s.Assets)
	s.Libraries = withTrailingSlash(s.Libraries)
	s.Natives = withTrailingSlash(s.Natives)
	return s
}

// SizeProber asks the remote side for a resource's length.
type SizeProber interface {
	ContentLength(ctx context.Context, class core.DownloadClass, url string) (int64, error)
}

// Planner turns manifest obligations into download tasks.
type Planner struct {
	prober      SizeProber
	fs          core.FileSystem
	layout      config.Layout
	sources     Sources
	checkHashes bool
	logger      logger.Logger
}

// NewPlanner returns a planner writing below layout.
func NewPlanner(prober SizeProber, fs core.FileSystem, layout config.Layout, sources Sources, checkHashes bool, log logger.Logger) *Planner {
	if fs == nil {
		fs = core.OSFileSystem{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{
		prober:      prober,
		fs:          fs,
		layout:      layout,
		sources:     sources.withDefaults(),
		checkHashes: checkHashes,
		logger:      log,
	}
}

// ScheduleAssets adds one task per object of idx.
func (p *Planner) ScheduleAssets(ctx context.Context, plan *Plan, idx *manifest.AssetIndex) error {
	if idx == nil || len(idx.Objects) == 0 {
		return nil
	}

	base := p.layout.AssetsDir()
	if idx.MapToResources {
		base = p.layout.ResourcesDir()
	}

	for _, name := range idx.Names() {
		obj := idx.Objects[name]
		if obj == nil {
			continue
		}
		// The hash names the object on disk and upstream.
		if !isSHA1Hex(obj.Hash) {
			return apperrors.MalformedSource("asset hash is not a sha1", name)
		}

		hashedPath := obj.Hash[:2] + "/" + obj.Hash
		var target string
		if idx.Flat() {
			var err error
			if target, err = within(base, name); err != nil {
				return err
			}
		} else {
			target = filepath.Join(base, "objects", obj.Hash[:2], obj.Hash)
		}

		err := p.schedule(ctx, plan, &core.Task{
			Path:  target,
			URL:   p.sources.Assets + hashedPath,
			Class: core.ClassAsset,
			Hash:  p.gateHash(obj.Hash),
			Size:  obj.Size,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ScheduleClientJar adds the runtime image of versionID and records it as the source jar.
func (p *Planner) ScheduleClientJar(ctx context.Context, plan *Plan, client *manifest.Download, versionID string) error {
	if client == nil {
		return nil
	}
	jar := p.layout.VersionJar(versionID)
	err := p.schedule(ctx, plan, &core.Task{
		Path:  jar,
		URL:   client.URL,
		Class: core.ClassLibrary,
		Hash:  p.gateHash(client.SHA1),
		Size:  client.Size,
	})
	if err != nil {
		return err
	}
	plan.SourceJar = jar
	return nil
}

// ScheduleLibraries adds one task per downloadable library.
func (p *Planner) ScheduleLibraries(ctx context.Context, plan *Plan, libs []manifest.Library) error {
	for i := range libs {
		lib := &libs[i]

		if strings.HasPrefix(lib.Name, bundledLibraryPrefix) {
			continue
		}
		if strings.HasPrefix(lib.Name, nativeLibraryPrefix) {
			if err := p.scheduleNativeArchive(ctx, plan, lib); err != nil {
				return err
			}
		}

		artifactPath, err := manifest.ArtifactPath(lib)
		if err != nil {
			return err
		}

		var (
			hash, url    string
			size         int64
			skipIfFailed bool
		)
		if lib.Downloads != nil {
			if lib.Downloads.Artifact == nil {
				p.logger.Info("Skipped library %s due to lack of artifact", lib.Name)
				continue
			}
			hash = lib.Downloads.Artifact.SHA1
			url = lib.Downloads.Artifact.URL
			size = lib.Downloads.Artifact.Size
		}
		if url == "" {
			url = p.repositoryFor(lib) + artifactPath
			skipIfFailed = true
		}

		target, err := within(p.layout.LibrariesDir(), artifactPath)
		if err != nil {
			return err
		}
		err = p.schedule(ctx, plan, &core.Task{
			Path:         target,
			URL:          url,
			Class:        core.ClassLibrary,
			Hash:         p.gateHash(hash),
			Size:         size,
			SkipIfFailed: skipIfFailed,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ScheduleLogging adds the logging configuration unless a local security
// patch already replaces it.
func (p *Planner) ScheduleLogging(ctx context.Context, plan *Plan, file *manifest.LoggingFile) error {
	if file == nil || file.ID == "" {
		return nil
	}
	if core.Exists(p.fs, p.layout.SecurityPatch(file.ID)) {
		p.logger.Debug("Logging config %s is covered by a local security patch", file.ID)
		return nil
	}
	target, err := within(p.layout.GameDir(), file.ID)
	if err != nil {
		return err
	}
	return p.schedule(ctx, plan, &core.Task{
		Path:  target,
		URL:   file.URL,
		Class: core.ClassLibrary,
		Hash:  p.gateHash(file.SHA1),
		Size:  file.Size,
	})
}

// scheduleNativeArchive adds the Android archive carrying lib's native code.
func (p *Planner) scheduleNativeArchive(ctx context.Context, plan *Plan, lib *manifest.Library) error {
	artifactPath, err := manifest.ArtifactPath(lib)
	if err != nil {
		return err
	}
	archivePath := manifest.TrimExtension(artifactPath) + nativeArchiveExt
	target, err := within(p.layout.LibrariesDir(), archivePath)
	if err != nil {
		return err
	}
	plan.Natives = append(plan.Natives, target)
	return p.schedule(ctx, plan, &core.Task{
		Path:         target,
		URL:          p.sources.Natives + archivePath,
		Class:        core.ClassLibrary,
		SkipIfFailed: true,
	})
}

// schedule appends task, probing its size while the plan still counts bytes.
func (p *Planner) schedule(ctx context.Context, plan *Plan, task *core.Task) error {
	if task.Size <= 0 && !plan.UseFileCounter() {
		size, err := p.prober.ContentLength(ctx, task.Class, task.URL)
		if err != nil {
			if ctx.Err() != nil {
				return apperrors.Cancelled(ctx.Err())
			}
			if apperrors.IsMalformedSource(err) {
				return err
			}
		}
		if err != nil || size <= 0 {
			if plan.switchToFileCounter() {
				p.logger.Info("Failed to determine size of %s, switching to file counter", task.Name())
			}
			size = 0
		}
		task.Size = size
	}
	if task.Size < 0 {
		task.Size = 0
	}
	plan.add(task)
	return nil
}

func (p *Planner) gateHash(hash string) string {
	if !p.checkHashes {
		return ""
	}
	return hash
}

func (p *Planner) repositoryFor(lib *manifest.Library) string {
	if lib.URL == "" {
		return p.sources.Libraries
	}
	return withTrailingSlash(strings.ReplaceAll(lib.URL, "http://", "https://"))
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

// validName rejects ids that would not stay a single path element, such as
// version ids and asset index names.
func validName(kind, id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return apperrors.MalformedSource("invalid "+kind, id)
	}
	return nil
}

// within joins a manifest-supplied relative name onto base, refusing names
// that leave base.
func within(base, name string) (string, error) {
	target := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.MalformedSource("path escapes its directory", name)
	}
	return target, nil
}
