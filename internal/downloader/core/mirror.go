package core

import (
	"strings"

	apperrors "assetfetch/internal/errors"
)

// canonicalLibrariesHost is the only library host a mirror is guaranteed to cover.
const canonicalLibrariesHost = "libraries.minecraft.net"

const urlProtocolTail = "://"

// Mirror holds the base URLs an alternate source serves for each download class.
type Mirror struct {
	Name      string
	Libraries string
	Metadata  string
	Assets    string
}

func (m *Mirror) baseFor(class DownloadClass) string {
	switch class {
	case ClassLibrary:
		return m.Libraries
	case ClassMetadata:
		return m.Metadata
	case ClassAsset:
		return m.Assets
	default:
		return ""
	}
}

// Resolver rewrites canonical URLs onto the configured mirror.
type Resolver struct {
	mirror *Mirror
}

// NewResolver returns a Resolver for mirror; a nil mirror leaves URLs untouched.
func NewResolver(mirror *Mirror) Resolver {
	if mirror != nil {
		cp := *mirror
		cp.Libraries = strings.TrimRight(cp.Libraries, "/")
		cp.Metadata = strings.TrimRight(cp.Metadata, "/")
		cp.Assets = strings.TrimRight(cp.Assets, "/")
		mirror = &cp
	}
	return Resolver{mirror: mirror}
}

// Mirrored reports whether a mirror is configured.
func (r Resolver) Mirrored() bool {
	return r.mirror != nil
}

// MirrorName returns the configured mirror name, or "" without one.
func (r Resolver) MirrorName() string {
	if r.mirror == nil {
		return ""
	}
	return r.mirror.Name
}

// Resolve returns the URL to try first for canonicalURL.
//
// Asset and metadata URLs always move to the mirror. Library URLs move only
// when they point at the canonical libraries host; third-party repositories
// pass through.
func (r Resolver) Resolve(class DownloadClass, canonicalURL string) (string, error) {
	if r.mirror == nil {
		return canonicalURL, nil
	}

	base, path, err := splitBaseURL(canonicalURL)
	if err != nil {
		return "", err
	}

	switch class {
	case ClassAsset, ClassMetadata:
		base = r.mirror.baseFor(class)
	case ClassLibrary:
		if hostOf(base) == canonicalLibrariesHost {
			base = r.mirror.baseFor(class)
		}
	}
	return base + path, nil
}

// splitBaseURL splits u into its scheme+host prefix and the remaining path.
func splitBaseURL(u string) (string, string, error) {
	protocolEnd := strings.Index(u, urlProtocolTail)
	if protocolEnd == -1 {
		return "", "", apperrors.MalformedSource("no protocol, or non path-based URL", u)
	}
	protocolEnd += len(urlProtocolTail)
	if protocolEnd >= len(u) {
		return "", "", apperrors.MalformedSource("no hostname", u)
	}

	hostEnd := strings.IndexByte(u[protocolEnd:], '/')
	if hostEnd == 0 {
		return "", "", apperrors.MalformedSource("no hostname", u)
	}
	if hostEnd == -1 {
		return u, "", nil
	}
	hostEnd += protocolEnd
	return u[:hostEnd], u[hostEnd:], nil
}

func hostOf(base string) string {
	return base[strings.Index(base, urlProtocolTail)+len(urlProtocolTail):]
}
