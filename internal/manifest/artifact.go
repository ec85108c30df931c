package manifest

import (
	"path"
	"strings"

	apperrors "assetfetch/internal/errors"
)

// ArtifactPath returns the repository-relative path of a library.
//
// An explicit downloads.artifact.path wins. Otherwise the maven coordinate
// group:name:version[:classifier] is expanded to
// group/as/dirs/name/version/name-version[-classifier].jar.
func ArtifactPath(lib *Library) (string, error) {
	if lib.Downloads != nil && lib.Downloads.Artifact != nil && lib.Downloads.Artifact.Path != "" {
		return lib.Downloads.Artifact.Path, nil
	}
	return CoordinatePath(lib.Name)
}

// CoordinatePath expands a maven coordinate into its repository path.
func CoordinatePath(coordinate string) (string, error) {
	parts := strings.Split(coordinate, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", apperrors.MalformedSource("invalid library coordinate", coordinate)
	}
	for _, p := range parts {
		if p == "" {
			return "", apperrors.MalformedSource("invalid library coordinate", coordinate)
		}
	}

	group, name, version := parts[0], parts[1], parts[2]
	file := name + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	return path.Join(strings.ReplaceAll(group, ".", "/"), name, version, file+".jar"), nil
}

// TrimExtension removes the final extension of a slash-separated path.
func TrimExtension(p string) string {
	if ext := path.Ext(p); ext != "" {
		return strings.TrimSuffix(p, ext)
	}
	return p
}
