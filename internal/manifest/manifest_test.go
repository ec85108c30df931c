package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
)

const sampleVersion = `{
  "id": "1.20.1",
  "inheritsFrom": "",
  "assets": "5",
  "assetIndex": {"id": "5", "sha1": "abc", "size": 10, "url": "https://piston-meta.mojang.com/v1/packages/abc/5.json"},
  "downloads": {"client": {"sha1": "def", "size": 20, "url": "https://piston-data.mojang.com/v1/objects/def/client.jar"}},
  "libraries": [
    {"name": "com.mojang:brigadier:1.1.8", "downloads": {"artifact": {"path": "com/mojang/brigadier/1.1.8/brigadier-1.1.8.jar", "sha1": "aaa", "size": 3, "url": "https://libraries.minecraft.net/com/mojang/brigadier/1.1.8/brigadier-1.1.8.jar"}}},
    {"name": "net.fabricmc:fabric-loader:0.14.21", "url": "https://maven.fabricmc.net/"}
  ],
  "logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "file": {"id": "client-1.12.xml", "sha1": "bbb", "size": 4, "url": "https://piston-data.mojang.com/v1/objects/bbb/client-1.12.xml"}, "type": "log4j2-xml"}},
  "javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17}
}`

func TestDecodeVersion(t *testing.T) {
	v, err := Decode([]byte(sampleVersion))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.ID != "1.20.1" || v.HasParent() {
		t.Errorf("id=%q parent=%v", v.ID, v.HasParent())
	}
	if c := v.ClientDownload(); c == nil || c.SHA1 != "def" || c.Size != 20 {
		t.Errorf("client download = %+v", c)
	}
	if f := v.LoggingFile(); f == nil || f.ID != "client-1.12.xml" {
		t.Errorf("logging file = %+v", f)
	}
	if v.RequiredRuntime() != 17 {
		t.Errorf("runtime = %d", v.RequiredRuntime())
	}
	if len(v.Libraries) != 2 || v.Libraries[1].Downloads != nil {
		t.Errorf("libraries = %+v", v.Libraries)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name string
		lib  Library
		want string
	}{
		{"coordinate", Library{Name: "org.ow2.asm:asm:9.5"}, "org/ow2/asm/asm/9.5/asm-9.5.jar"},
		{"classifier", Library{Name: "net.java.dev.jna:jna:5.13.0:natives"}, "net/java/dev/jna/jna/5.13.0/jna-5.13.0-natives.jar"},
		{"explicit path", Library{Name: "a:b:1", Downloads: &LibraryDownloads{Artifact: &Artifact{Path: "custom/b.jar"}}}, "custom/b.jar"},
		{"artifact without path", Library{Name: "a.b:c:2", Downloads: &LibraryDownloads{Artifact: &Artifact{}}}, "a/b/c/2/c-2.jar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArtifactPath(&tt.lib)
			if err != nil {
				t.Fatalf("ArtifactPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoordinatePathRejectsMalformed(t *testing.T) {
	for _, c := range []string{"", "a:b", "a::1", "a:b:c:d:e"} {
		if _, err := CoordinatePath(c); !apperrors.IsMalformedSource(err) {
			t.Errorf("CoordinatePath(%q) error = %v", c, err)
		}
	}
}

func TestTrimExtension(t *testing.T) {
	if got := TrimExtension("net/java/dev/jna/jna/5.13.0/jna-5.13.0.jar"); got != "net/java/dev/jna/jna/5.13.0/jna-5.13.0" {
		t.Errorf("got %q", got)
	}
	if got := TrimExtension("noext"); got != "noext" {
		t.Errorf("got %q", got)
	}
}

func TestReadAssetIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	data := `{"virtual": true, "objects": {"sounds/b.ogg": {"hash": "bb00", "size": 2}, "icons/a.png": {"hash": "aa00", "size": 1}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := ReadAssetIndex(path)
	if err != nil {
		t.Fatalf("ReadAssetIndex: %v", err)
	}
	if !idx.Flat() {
		t.Error("virtual index should be flat")
	}
	names := idx.Names()
	if len(names) != 2 || names[0] != "icons/a.png" || names[1] != "sounds/b.ogg" {
		t.Errorf("names = %v", names)
	}
}

type stubTextFetcher struct {
	calls int
	body  string
	class core.DownloadClass
}

func (s *stubTextFetcher) Text(_ context.Context, class core.DownloadClass, _ string) (string, error) {
	s.calls++
	s.class = class
	return s.body, nil
}

func TestVersionListerCachesList(t *testing.T) {
	fetcher := &stubTextFetcher{body: `{"latest": {"release": "1.20.1", "snapshot": "23w31a"},
		"versions": [{"id": "1.20.1", "url": "https://example.com/1.20.1.json", "sha1": "abc"}]}`}
	lister := NewVersionLister(fetcher, "https://example.com/list.json")

	ref, err := lister.Lookup(context.Background(), "1.20.1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ref == nil || ref.SHA1 != "abc" {
		t.Fatalf("ref = %+v", ref)
	}

	missing, err := lister.Lookup(context.Background(), "fabric-loader-0.14")
	if err != nil || missing != nil {
		t.Fatalf("unlisted lookup = %+v, %v", missing, err)
	}

	list, _ := lister.List(context.Background())
	if list.Alias("release") != "1.20.1" || list.Alias("snapshot") != "23w31a" || list.Alias("1.8.9") != "1.8.9" {
		t.Error("aliases not resolved")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if fetcher.class != core.ClassMetadata {
		t.Errorf("class = %v, want metadata", fetcher.class)
	}
}
