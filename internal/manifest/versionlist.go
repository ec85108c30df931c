package manifest

import (
	"context"
	"encoding/json"
	"sync"

	"assetfetch/internal/downloader/core"

	"github.com/pkg/errors"
)

// VersionRef is one entry of the version list.
type VersionRef struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url"`
	SHA1        string `json:"sha1,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
}

// VersionList is the published index of available versions.
type VersionList struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionRef `json:"versions"`
}

// Find returns the entry for id, or nil when it is not listed.
func (l *VersionList) Find(id string) *VersionRef {
	for i := range l.Versions {
		if l.Versions[i].ID == id {
			ref := l.Versions[i]
			return &ref
		}
	}
	return nil
}

// Alias resolves "release" and "snapshot" to the latest ids; other values pass through.
func (l *VersionList) Alias(id string) string {
	switch id {
	case "release":
		if l.Latest.Release != "" {
			return l.Latest.Release
		}
	case "snapshot":
		if l.Latest.Snapshot != "" {
			return l.Latest.Snapshot
		}
	}
	return id
}

// TextFetcher downloads small text resources through the mirror policy.
type TextFetcher interface {
	Text(ctx context.Context, class core.DownloadClass, url string) (string, error)
}

// VersionLister fetches the version list once and serves lookups from memory.
type VersionLister struct {
	fetcher TextFetcher
	url     string

	mu     sync.Mutex
	cached *VersionList
}

// NewVersionLister returns a lister for the version list published at url.
func NewVersionLister(fetcher TextFetcher, url string) *VersionLister {
	return &VersionLister{fetcher: fetcher, url: url}
}

// List returns the version list, fetching it on first use.
func (l *VersionLister) List(ctx context.Context) (*VersionList, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	body, err := l.fetcher.Text(ctx, core.ClassMetadata, l.url)
	if err != nil {
		return nil, err
	}

	var list VersionList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		return nil, errors.Wrap(err, "failed to decode version list")
	}
	l.cached = &list
	return l.cached, nil
}

// Lookup returns the listed entry for id, or nil when the version is not listed.
func (l *VersionLister) Lookup(ctx context.Context, id string) (*VersionRef, error) {
	list, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return list.Find(id), nil
}
