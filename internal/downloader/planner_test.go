package downloader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"assetfetch/internal/config"
	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/manifest"
)

// stubProber answers size probes from a map and counts calls.
type stubProber struct {
	sizes map[string]int64
	calls []string
}

func (s *stubProber) ContentLength(_ context.Context, _ core.DownloadClass, url string) (int64, error) {
	s.calls = append(s.calls, url)
	if n, ok := s.sizes[url]; ok {
		return n, nil
	}
	return -1, apperrors.NotFound(url, nil)
}

func newTestPlanner(t *testing.T, prober SizeProber, checkHashes bool) (*Planner, config.Layout) {
	t.Helper()
	layout := config.Layout{Root: t.TempDir()}
	return NewPlanner(prober, nil, layout, Sources{}, checkHashes, nil), layout
}

func TestPlannerSwitchesToFileCounterOnce(t *testing.T) {
	prober := &stubProber{sizes: map[string]int64{"https://x/later.jar": 5}}
	p, _ := newTestPlanner(t, prober, true)
	plan := NewPlan("")
	ctx := context.Background()

	libs := []manifest.Library{
		{Name: "a:known:1", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{URL: "https://x/known.jar", Size: 10}}},
		{Name: "a:unknown:1", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{URL: "https://x/unknown.jar"}}},
		{Name: "a:later:1", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{URL: "https://x/later.jar"}}},
	}
	if err := p.ScheduleLibraries(ctx, plan, libs); err != nil {
		t.Fatalf("ScheduleLibraries: %v", err)
	}

	if !plan.UseFileCounter() {
		t.Fatal("plan should count files after a failed probe")
	}
	if len(prober.calls) != 1 || prober.calls[0] != "https://x/unknown.jar" {
		t.Fatalf("probe calls = %v, want only the first unknown size", prober.calls)
	}
	if plan.TotalFiles() != 3 || plan.TotalSize() != 10 {
		t.Errorf("totals = %d files, %d bytes", plan.TotalFiles(), plan.TotalSize())
	}

	// Later tasks with known sizes do not bring byte mode back.
	if err := p.ScheduleClientJar(ctx, plan, &manifest.Download{URL: "https://x/client.jar", Size: 100}, "v"); err != nil {
		t.Fatal(err)
	}
	if !plan.UseFileCounter() {
		t.Fatal("file counter mode must be permanent")
	}
	_, msg := progressMessage(plan, Stats{Files: 2, Processed: 50}, 1.5)
	if !strings.HasPrefix(msg, "Downloading game files (2/4") {
		t.Errorf("message = %q, want file-count format", msg)
	}
}

func TestPlannerUsesProbedSize(t *testing.T) {
	prober := &stubProber{sizes: map[string]int64{"https://x/lib.jar": 42}}
	p, _ := newTestPlanner(t, prober, true)
	plan := NewPlan("")

	err := p.ScheduleLibraries(context.Background(), plan, []manifest.Library{
		{Name: "a:lib:1", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{URL: "https://x/lib.jar"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan.UseFileCounter() || plan.TotalSize() != 42 || plan.Tasks[0].Size != 42 {
		t.Fatalf("plan = %+v size %d", plan.Tasks[0], plan.TotalSize())
	}

	percent, msg := progressMessage(plan, Stats{Processed: 21 * 1024 * 1024}, 0)
	if percent != 100 {
		t.Errorf("percent = %d, want clamped 100", percent)
	}
	if !strings.Contains(msg, " MB, ") {
		t.Errorf("message = %q, want byte format", msg)
	}
}

func TestPlannerLibraryRules(t *testing.T) {
	prober := &stubProber{}
	p, layout := newTestPlanner(t, prober, true)
	plan := NewPlan("")

	libs := []manifest.Library{
		{Name: "org.lwjgl:lwjgl:3.3.1"},
		{Name: "com.mojang:natives-only:1.0", Downloads: &manifest.LibraryDownloads{}},
		{Name: "net.fabricmc:loader:0.14", URL: "http://maven.fabricmc.net"},
		{Name: "com.google:guava:31"},
		{Name: "com.mojang:brigadier:1.0", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{
			Path: "com/mojang/brigadier/1.0/brigadier-1.0.jar", URL: "https://libraries.minecraft.net/com/mojang/brigadier/1.0/brigadier-1.0.jar", SHA1: "abc", Size: 7,
		}}},
	}
	if err := p.ScheduleLibraries(context.Background(), plan, libs); err != nil {
		t.Fatalf("ScheduleLibraries: %v", err)
	}

	if len(plan.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(plan.Tasks))
	}

	fabric := plan.Tasks[0]
	if fabric.URL != "https://maven.fabricmc.net/net/fabricmc/loader/0.14/loader-0.14.jar" || !fabric.SkipIfFailed {
		t.Errorf("fabric task = %+v", fabric)
	}
	guava := plan.Tasks[1]
	if guava.URL != DefaultLibrariesURL+"com/google/guava/31/guava-31.jar" || !guava.SkipIfFailed {
		t.Errorf("guava task = %+v", guava)
	}
	brig := plan.Tasks[2]
	if brig.SkipIfFailed || brig.Hash != "abc" || brig.Class != core.ClassLibrary {
		t.Errorf("brigadier task = %+v", brig)
	}
	if want := filepath.Join(layout.LibrariesDir(), "com", "mojang", "brigadier", "1.0", "brigadier-1.0.jar"); brig.Path != want {
		t.Errorf("path = %s, want %s", brig.Path, want)
	}
}

func TestPlannerDownloadsWithoutArtifactYieldNoTasks(t *testing.T) {
	p, _ := newTestPlanner(t, &stubProber{}, true)
	plan := NewPlan("")

	err := p.ScheduleLibraries(context.Background(), plan, []manifest.Library{
		{Name: "org.example:natives:1", Downloads: &manifest.LibraryDownloads{}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 0 || plan.TotalFiles() != 0 {
		t.Fatalf("tasks = %d", len(plan.Tasks))
	}
}

func TestPlannerNativeArchive(t *testing.T) {
	p, layout := newTestPlanner(t, &stubProber{}, true)
	plan := NewPlan("")

	err := p.ScheduleLibraries(context.Background(), plan, []manifest.Library{
		{Name: "net.java.dev.jna:jna:5.13.0", Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{
			Path: "net/java/dev/jna/jna/5.13.0/jna-5.13.0.jar", URL: "https://libraries.minecraft.net/net/java/dev/jna/jna/5.13.0/jna-5.13.0.jar", SHA1: "abc", Size: 3,
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("tasks = %d, want archive and jar", len(plan.Tasks))
	}
	aar := plan.Tasks[0]
	wantPath := filepath.Join(layout.LibrariesDir(), "net", "java", "dev", "jna", "jna", "5.13.0", "jna-5.13.0.aar")
	if aar.Path != wantPath || aar.URL != DefaultNativesURL+"net/java/dev/jna/jna/5.13.0/jna-5.13.0.aar" {
		t.Errorf("archive task = %+v", aar)
	}
	if !aar.SkipIfFailed || aar.Hash != "" {
		t.Errorf("archive task must be optional and unhashed: %+v", aar)
	}
	if len(plan.Natives) != 1 || plan.Natives[0] != wantPath {
		t.Errorf("natives = %v", plan.Natives)
	}
}

func TestPlannerAssets(t *testing.T) {
	hash := "ab" + strings.Repeat("0", 38)
	idx := &manifest.AssetIndex{Objects: map[string]*manifest.AssetObject{
		"minecraft/sounds/a.ogg": {Hash: hash, Size: 9},
	}}

	tests := []struct {
		name     string
		virtual  bool
		resource bool
		want     func(config.Layout) string
	}{
		{"hashed", false, false, func(l config.Layout) string { return filepath.Join(l.AssetsDir(), "objects", "ab", hash) }},
		{"virtual", true, false, func(l config.Layout) string { return filepath.Join(l.AssetsDir(), "minecraft", "sounds", "a.ogg") }},
		{"map to resources", false, true, func(l config.Layout) string { return filepath.Join(l.ResourcesDir(), "minecraft", "sounds", "a.ogg") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, layout := newTestPlanner(t, &stubProber{}, false)
			plan := NewPlan("")
			idx.Virtual, idx.MapToResources = tt.virtual, tt.resource

			if err := p.ScheduleAssets(context.Background(), plan, idx); err != nil {
				t.Fatal(err)
			}
			task := plan.Tasks[0]
			if task.Path != tt.want(layout) {
				t.Errorf("path = %s, want %s", task.Path, tt.want(layout))
			}
			if task.URL != DefaultAssetsURL+"ab/"+hash || task.Class != core.ClassAsset {
				t.Errorf("task = %+v", task)
			}
			if task.Hash != "" {
				t.Error("hash must be dropped when hash checks are disabled")
			}
		})
	}
}

func TestPlannerRejectsEscapingAssetNames(t *testing.T) {
	p, _ := newTestPlanner(t, &stubProber{}, true)
	idx := &manifest.AssetIndex{Virtual: true, Objects: map[string]*manifest.AssetObject{
		"../../etc/passwd": {Hash: "ab" + strings.Repeat("0", 38), Size: 1},
	}}
	err := p.ScheduleAssets(context.Background(), NewPlan(""), idx)
	if !apperrors.IsMalformedSource(err) {
		t.Fatalf("error = %v, want malformed source", err)
	}
}

func TestPlannerLoggingConfig(t *testing.T) {
	p, layout := newTestPlanner(t, &stubProber{}, true)
	file := &manifest.LoggingFile{ID: "client-1.12.xml", URL: "https://x/client-1.12.xml", SHA1: "abc", Size: 4}

	plan := NewPlan("")
	if err := p.ScheduleLogging(context.Background(), plan, file); err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].Path != filepath.Join(layout.GameDir(), "client-1.12.xml") {
		t.Fatalf("tasks = %+v", plan.Tasks)
	}

	patch := layout.SecurityPatch(file.ID)
	writeTestFile(t, patch, "patched")
	plan = NewPlan("")
	if err := p.ScheduleLogging(context.Background(), plan, file); err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 0 {
		t.Fatal("logging config covered by a security patch must be skipped")
	}
}

type cancelledProber struct{}

func (cancelledProber) ContentLength(ctx context.Context, _ core.DownloadClass, _ string) (int64, error) {
	return -1, errors.New("connection reset")
}

func TestPlannerProbeCancellation(t *testing.T) {
	p, _ := newTestPlanner(t, cancelledProber{}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ScheduleClientJar(ctx, NewPlan(""), &manifest.Download{URL: "https://x/c.jar"}, "v")
	if !apperrors.IsCancelled(err) {
		t.Fatalf("error = %v, want cancelled", err)
	}
}

func TestPlannerRejectsInvalidAssetHashes(t *testing.T) {
	for _, hash := range []string{"../../../../../tmp/pwned", "ab", strings.Repeat("g", 40)} {
		t.Run(hash, func(t *testing.T) {
			p, _ := newTestPlanner(t, &stubProber{}, true)
			idx := &manifest.AssetIndex{Objects: map[string]*manifest.AssetObject{
				"minecraft/sounds/a.ogg": {Hash: hash, Size: 1},
			}}
			plan := NewPlan("")
			err := p.ScheduleAssets(context.Background(), plan, idx)
			if !apperrors.IsMalformedSource(err) {
				t.Fatalf("error = %v, want malformed source", err)
			}
			if len(plan.Tasks) != 0 {
				t.Errorf("tasks = %+v", plan.Tasks)
			}
		})
	}
}

func TestPlannerConfinesLibraryPaths(t *testing.T) {
	tests := []struct {
		name string
		lib  manifest.Library
	}{
		{"artifact path", manifest.Library{
			Name:      "com.example:evil:1",
			Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{Path: "../../../../tmp/evil.jar", URL: "https://x/evil.jar", Size: 1}},
		}},
		{"deep artifact path", manifest.Library{
			Name:      "com.example:evil:1",
			Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{Path: "../" + strings.Repeat("../", 20) + "etc/evil.jar", URL: "https://x/evil.jar", Size: 1}},
		}},
		{"native archive", manifest.Library{
			Name:      "net.java.dev.jna:jna:5",
			Downloads: &manifest.LibraryDownloads{Artifact: &manifest.Artifact{Path: "../../jna.jar", URL: "https://x/jna.jar", Size: 1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPlanner(t, &stubProber{}, true)
			plan := NewPlan("")
			err := p.ScheduleLibraries(context.Background(), plan, []manifest.Library{tt.lib})
			if !apperrors.IsMalformedSource(err) {
				t.Fatalf("error = %v, want malformed source", err)
			}
			if len(plan.Tasks) != 0 || len(plan.Natives) != 0 {
				t.Errorf("plan = %+v", plan)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	for _, id := range []string{"1.20.1", "fabric-loader-0.15.0-1.20.1", "1.20.1 OptiFine"} {
		if err := validName("version id", id); err != nil {
			t.Errorf("validName(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", ".", "..", "../1.20", "a/b", `a\b`} {
		if err := validName("version id", id); !apperrors.IsMalformedSource(err) {
			t.Errorf("validName(%q) = %v, want malformed source", id, err)
		}
	}
}
