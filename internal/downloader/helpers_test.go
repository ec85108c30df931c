package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"assetfetch/internal/config"
	"assetfetch/internal/data"
	"assetfetch/internal/downloader/core"
	"assetfetch/internal/manifest"
)

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// upstream is a fake file host counting requests per path.
type upstream struct {
	srv *httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	gets  map[string]int
	heads map[string]int
	hook  func(w http.ResponseWriter, r *http.Request) bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{
		files: map[string][]byte{},
		gets:  map[string]int{},
		heads: map[string]int{},
	}
	u.srv = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	hook := u.hook
	if r.Method == http.MethodHead {
		u.heads[r.URL.Path]++
	} else {
		u.gets[r.URL.Path]++
	}
	body, ok := u.files[r.URL.Path]
	u.mu.Unlock()

	if hook != nil && hook(w, r) {
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if r.Method != http.MethodHead {
		w.Write(body)
	}
}

func (u *upstream) put(path string, body []byte) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[path] = body
	return u.srv.URL + path
}

func (u *upstream) putJSON(t *testing.T, path string, v interface{}) (string, string) {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return u.put(path, body), sha1Hex(body)
}

func (u *upstream) setHook(hook func(w http.ResponseWriter, r *http.Request) bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hook = hook
}

func (u *upstream) getCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.gets[path]
}

// fileGets counts GET requests that transfer files, leaving out sidecar hashes.
func (u *upstream) fileGets() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for path, c := range u.gets {
		if !strings.HasSuffix(path, sidecarHashSuffix) {
			n += c
		}
	}
	return n
}

func (u *upstream) sidecarGets() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for path, c := range u.gets {
		if strings.HasSuffix(path, sidecarHashSuffix) {
			n += c
		}
	}
	return n
}

func (u *upstream) sources() Sources {
	return Sources{
		Assets:    u.srv.URL + "/assets/",
		Libraries: u.srv.URL + "/libraries/",
		Natives:   u.srv.URL + "/maven2/",
	}
}

// recordingSink keeps every progress event.
type recordingSink struct {
	mu       sync.Mutex
	messages []string
	cleared  int
}

func (s *recordingSink) SetProgress(_ string, _ int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

func (s *recordingSink) ClearProgress(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *recordingSink) has(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

type recordingJournal struct {
	mu   sync.Mutex
	runs []data.Run
}

func (j *recordingJournal) RecordRun(_ context.Context, run data.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return nil
}

func (j *recordingJournal) last(t *testing.T) data.Run {
	t.Helper()
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.runs) == 0 {
		t.Fatal("no run recorded")
	}
	return j.runs[len(j.runs)-1]
}

type mapVersions map[string]*manifest.VersionRef

func (m mapVersions) Lookup(_ context.Context, id string) (*manifest.VersionRef, error) {
	return m[id], nil
}

func newFetcher(mirror *core.Mirror) *core.MirroredFetcher {
	return core.NewMirroredFetcher(core.NewClient(5*time.Second), core.NewResolver(mirror), nil)
}

func nativeArchive(t *testing.T, abi, lib, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("jni/" + abi + "/" + lib)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(content))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// world is a published version with every kind of obligation.
type world struct {
	up     *upstream
	ref    *manifest.VersionRef
	layout config.Layout

	assetA, assetB, clientJar, coreLib, extraLib, loggingXML []byte
}

func newWorld(t *testing.T) *world {
	t.Helper()
	up := newUpstream(t)
	w := &world{
		up:         up,
		layout:     config.Layout{Root: t.TempDir()},
		assetA:     []byte("asset-a"),
		assetB:     []byte("asset-b-content"),
		clientJar:  []byte("client-jar-bytes"),
		coreLib:    []byte("core-library"),
		extraLib:   []byte("extra-library-from-repo"),
		loggingXML: []byte("<Configuration/>"),
	}

	hashA, hashB := sha1Hex(w.assetA), sha1Hex(w.assetB)
	up.put("/assets/"+hashA[:2]+"/"+hashA, w.assetA)
	up.put("/assets/"+hashB[:2]+"/"+hashB, w.assetB)
	indexURL, indexSHA := up.putJSON(t, "/indexes/5.json", map[string]interface{}{
		"objects": map[string]interface{}{
			"icons/a.png":  map[string]interface{}{"hash": hashA, "size": len(w.assetA)},
			"sounds/b.ogg": map[string]interface{}{"hash": hashB, "size": len(w.assetB)},
		},
	})

	jarURL := up.put("/client/1.20.jar", w.clientJar)
	coreURL := up.put("/libs/com/example/core/1.0/core-1.0.jar", w.coreLib)
	up.put("/repo/com/example/extra/2.0/extra-2.0.jar", w.extraLib)
	up.put("/repo/com/example/extra/2.0/extra-2.0.jar.sha1", []byte(sha1Hex(w.extraLib)+"\n"))
	logURL := up.put("/logging/client-1.12.xml", w.loggingXML)

	versionURL, versionSHA := up.putJSON(t, "/versions/1.20.json", map[string]interface{}{
		"id":         "1.20",
		"assets":     "5",
		"assetIndex": map[string]interface{}{"id": "5", "sha1": indexSHA, "size": 1, "url": indexURL},
		"downloads": map[string]interface{}{
			"client": map[string]interface{}{"sha1": sha1Hex(w.clientJar), "size": len(w.clientJar), "url": jarURL},
		},
		"libraries": []interface{}{
			map[string]interface{}{"name": "com.example:core:1.0", "downloads": map[string]interface{}{
				"artifact": map[string]interface{}{"path": "com/example/core/1.0/core-1.0.jar", "sha1": sha1Hex(w.coreLib), "size": len(w.coreLib), "url": coreURL},
			}},
			map[string]interface{}{"name": "com.example:extra:2.0", "url": up.srv.URL + "/repo/"},
			map[string]interface{}{"name": "org.lwjgl:lwjgl:3.3.1"},
		},
		"logging": map[string]interface{}{"client": map[string]interface{}{
			"file": map[string]interface{}{"id": "client-1.12.xml", "sha1": sha1Hex(w.loggingXML), "size": len(w.loggingXML), "url": logURL},
		}},
	})
	w.ref = &manifest.VersionRef{ID: "1.20", URL: versionURL, SHA1: versionSHA}
	return w
}

func (w *world) acquirer(opts ...Option) *Acquirer {
	base := []Option{WithSources(w.up.sources()), WithPollInterval(5 * time.Millisecond)}
	return New(newFetcher(nil), w.layout, append(base, opts...)...)
}
