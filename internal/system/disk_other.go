//go:build !unix

package system

import "github.com/pkg/errors"

// FreeBytes is not supported on this platform.
func FreeBytes(path string) (uint64, error) {
	return 0, errors.Errorf("free space query unsupported for %s", path)
}
