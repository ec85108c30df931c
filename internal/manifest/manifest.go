// Package manifest models version manifests, asset indexes and the version
// list they are discovered from.
package manifest

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Version is a decoded version manifest.
type Version struct {
	ID           string               `json:"id"`
	InheritsFrom string               `json:"inheritsFrom,omitempty"`
	Type         string               `json:"type,omitempty"`
	Assets       string               `json:"assets,omitempty"`
	AssetIndex   *AssetIndexRef       `json:"assetIndex,omitempty"`
	Downloads    map[string]*Download `json:"downloads,omitempty"`
	Libraries    []Library            `json:"libraries,omitempty"`
	Logging      *Logging             `json:"logging,omitempty"`
	JavaVersion  *JavaVersion         `json:"javaVersion,omitempty"`
}

// AssetIndexRef points at the asset index a version uses.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// Download describes a single downloadable file such as the client jar.
type Download struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Logging holds the logging configuration descriptors of a version.
type Logging struct {
	Client *LoggingClient `json:"client,omitempty"`
}

// LoggingClient is the client-side logging configuration.
type LoggingClient struct {
	Argument string       `json:"argument,omitempty"`
	File     *LoggingFile `json:"file,omitempty"`
	Type     string       `json:"type,omitempty"`
}

// LoggingFile is the logging configuration file itself.
type LoggingFile struct {
	ID   string `json:"id"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// JavaVersion names the runtime a version needs.
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// Library is a dependency declared by a version.
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
}

// LibraryDownloads is the resolved downloads section of a library.
type LibraryDownloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Artifact is a library file with a known location.
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ClientDownload returns the client jar descriptor, if any.
func (v *Version) ClientDownload() *Download {
	if v.Downloads == nil {
		return nil
	}
	return v.Downloads["client"]
}

// LoggingFile returns the client logging file descriptor, if any.
func (v *Version) LoggingFile() *LoggingFile {
	if v.Logging == nil || v.Logging.Client == nil {
		return nil
	}
	return v.Logging.Client.File
}

// RequiredRuntime returns the runtime major version the manifest asks for, or 0.
func (v *Version) RequiredRuntime() int {
	if v.JavaVersion == nil {
		return 0
	}
	return v.JavaVersion.MajorVersion
}

// HasParent reports whether the manifest inherits from another version.
func (v *Version) HasParent() bool {
	return strings.TrimSpace(v.InheritsFrom) != ""
}

// Decode parses a version manifest.
func Decode(data []byte) (*Version, error) {
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "failed to decode version manifest")
	}
	return &v, nil
}

// ReadVersion loads a version manifest from path.
func ReadVersion(path string) (*Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read version manifest %s", path)
	}
	v, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return v, nil
}

// AssetObject is a single entry of an asset index.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetIndex maps logical asset names to content-addressed objects.
type AssetIndex struct {
	Objects        map[string]*AssetObject `json:"objects"`
	Virtual        bool                    `json:"virtual,omitempty"`
	MapToResources bool                    `json:"map_to_resources,omitempty"`
}

// Flat reports whether objects are stored under their logical names.
func (a *AssetIndex) Flat() bool {
	return a.Virtual || a.MapToResources
}

// Names returns the object names in a stable order.
func (a *AssetIndex) Names() []string {
	names := make([]string, 0, len(a.Objects))
	for name := range a.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadAssetIndex loads an asset index from path.
func ReadAssetIndex(path string) (*AssetIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read asset index %s", path)
	}
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrapf(err, "failed to decode asset index %s", path)
	}
	return &idx, nil
}
