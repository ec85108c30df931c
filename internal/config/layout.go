package config

import (
	"path/filepath"
	"strings"
)

// Layout maps logical file locations onto the local directory tree.
type Layout struct {
	Root string
}

// VersionDir returns the directory holding a version's manifest and jar.
func (l Layout) VersionDir(id string) string {
	return filepath.Join(l.Root, "versions", id)
}

// VersionJSON returns the manifest path for a version.
func (l Layout) VersionJSON(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

// VersionJar returns the runtime image path for a version.
func (l Layout) VersionJar(id string) string {
	return filepath.Join(l.VersionDir(id), id+".jar")
}

// LibrariesDir returns the root of the maven-style library tree.
func (l Layout) LibrariesDir() string {
	return filepath.Join(l.Root, "libraries")
}

// AssetsDir returns the root of the asset store.
func (l Layout) AssetsDir() string {
	return filepath.Join(l.Root, "assets")
}

// AssetIndex returns the path of a named asset index.
func (l Layout) AssetIndex(name string) string {
	return filepath.Join(l.AssetsDir(), "indexes", name+".json")
}

// ResourcesDir returns the legacy flat resources directory.
func (l Layout) ResourcesDir() string {
	return filepath.Join(l.Root, "resources")
}

// GameDir returns the game working directory that receives logging configs.
func (l Layout) GameDir() string {
	return filepath.Join(l.Root, "game")
}

// SecurityPatch returns the location of a locally shipped replacement for
// the logging config id, e.g. client-1.12.xml -> log4j-rce-patch-1.12.xml.
func (l Layout) SecurityPatch(loggingID string) string {
	return filepath.Join(l.Root, "security", strings.ReplaceAll(loggingID, "client", "log4j-rce-patch"))
}

// NativesDir returns the version-scoped extraction directory for native libraries.
func (l Layout) NativesDir(version string) string {
	return filepath.Join(l.Root, "cache", "natives", version)
}
