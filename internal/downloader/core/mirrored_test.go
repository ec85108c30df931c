package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
)

type fallbackFixture struct {
	canonical  *httptest.Server
	mirror     *httptest.Server
	mirrorHits atomic.Int32
	canonHits  atomic.Int32
	fetcher    *MirroredFetcher
	mockLogger *logger.MockLogger
}

// newFallbackFixture starts a canonical server and a mirror whose handler is
// supplied by the test.
func newFallbackFixture(t *testing.T, mirrorHandler http.HandlerFunc) *fallbackFixture {
	t.Helper()
	f := &fallbackFixture{}

	f.canonical = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.canonHits.Add(1)
		w.Header().Set("Content-Length", "9")
		if r.Method == http.MethodGet {
			w.Write([]byte("canonical"))
		}
	}))
	t.Cleanup(f.canonical.Close)

	f.mirror = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mirrorHits.Add(1)
		mirrorHandler(w, r)
	}))
	t.Cleanup(f.mirror.Close)

	resolver := NewResolver(&Mirror{
		Name:      "test",
		Libraries: f.mirror.URL + "/maven",
		Metadata:  f.mirror.URL,
		Assets:    f.mirror.URL + "/assets",
	})
	f.mockLogger = logger.NewMockLogger()
	f.fetcher = NewMirroredFetcher(NewClient(5*time.Second), resolver, f.mockLogger)
	return f
}

func TestMirroredFetcherFallsBackOnNotFound(t *testing.T) {
	f := newFallbackFixture(t, http.NotFound)
	path := filepath.Join(t.TempDir(), "1.20.json")

	err := f.fetcher.DownloadFile(context.Background(), ClassMetadata, f.canonical.URL+"/v1/1.20.json", path)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "canonical" {
		t.Errorf("content = %q, want canonical body", data)
	}
	if f.mirrorHits.Load() != 1 || f.canonHits.Load() != 1 {
		t.Errorf("hits mirror=%d canonical=%d, want 1/1", f.mirrorHits.Load(), f.canonHits.Load())
	}
	if !f.mockLogger.HasEntry(logger.LevelWarn, "Cannot find") {
		t.Error("expected a warning about the mirror miss")
	}
}

func TestMirroredFetcherPropagatesOtherErrors(t *testing.T) {
	f := newFallbackFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	path := filepath.Join(t.TempDir(), "obj")

	err := f.fetcher.DownloadFile(context.Background(), ClassAsset, f.canonical.URL+"/ab/abcd", path)
	if err == nil || apperrors.IsNotFound(err) {
		t.Fatalf("error = %v, want mirror failure", err)
	}
	if f.canonHits.Load() != 0 {
		t.Error("canonical source must not be tried for non-404 failures")
	}
}

func TestMirroredFetcherDoesNotRetryUnmappedURL(t *testing.T) {
	f := newFallbackFixture(t, http.NotFound)

	var thirdPartyHits atomic.Int32
	thirdParty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thirdPartyHits.Add(1)
		http.NotFound(w, r)
	}))
	defer thirdParty.Close()

	err := f.fetcher.DownloadFile(context.Background(), ClassLibrary, thirdParty.URL+"/x.jar", filepath.Join(t.TempDir(), "x.jar"))
	if !apperrors.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	if thirdPartyHits.Load() != 1 {
		t.Errorf("third-party hits = %d, want 1", thirdPartyHits.Load())
	}
	if f.mirrorHits.Load() != 0 {
		t.Error("mirror must not see third-party library requests")
	}
}

func TestMirroredFetcherContentLengthFallback(t *testing.T) {
	// No Content-Length header: the mirror does not know the size.
	f := newFallbackFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	n, err := f.fetcher.ContentLength(context.Background(), ClassAsset, f.canonical.URL+"/ab/abcd")
	if err != nil {
		t.Fatalf("ContentLength: %v", err)
	}
	if n != 9 {
		t.Errorf("length = %d, want 9 from canonical", n)
	}
	if f.canonHits.Load() != 1 {
		t.Errorf("canonical hits = %d, want 1", f.canonHits.Load())
	}
}

func TestMirroredFetcherTextFallbackOnBlankBody(t *testing.T) {
	f := newFallbackFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n"))
	})

	text, err := f.fetcher.Text(context.Background(), ClassLibrary, f.canonical.URL+"/x.jar.sha1")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	// Third-party library URLs bypass the mirror entirely.
	if text != "canonical" || f.mirrorHits.Load() != 0 {
		t.Fatalf("text = %q mirrorHits = %d", text, f.mirrorHits.Load())
	}

	text, err = f.fetcher.Text(context.Background(), ClassMetadata, f.canonical.URL+"/list.json")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "canonical" {
		t.Errorf("text = %q, want canonical body", text)
	}
	if f.mirrorHits.Load() != 1 {
		t.Errorf("mirror hits = %d, want 1", f.mirrorHits.Load())
	}
}
