//go:build unix

package system

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FreeBytes returns the bytes available to unprivileged users on the volume holding path.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", path)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
