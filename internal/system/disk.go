// Package system inspects the host the acquisition runs on.
package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SpaceReport compares the bytes a plan needs with what the volume offers.
type SpaceReport struct {
	Path      string
	Required  uint64
	Available uint64
}

// Sufficient reports whether the volume can hold the required bytes.
func (r SpaceReport) Sufficient() bool {
	return r.Available >= r.Required
}

func (r SpaceReport) String() string {
	return fmt.Sprintf("%s: %s required, %s available", r.Path, FormatBytes(r.Required), FormatBytes(r.Available))
}

// CheckSpace measures the free space of the volume holding path against required.
// path need not exist yet; the nearest existing ancestor is measured.
func CheckSpace(path string, required uint64) (SpaceReport, error) {
	existing, err := nearestExisting(path)
	if err != nil {
		return SpaceReport{}, err
	}
	available, err := FreeBytes(existing)
	if err != nil {
		return SpaceReport{}, err
	}
	return SpaceReport{Path: existing, Required: required, Available: available}, nil
}

func nearestExisting(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}
	for {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", errors.Errorf("no existing ancestor for %s", path)
		}
		p = parent
	}
}

// FormatBytes renders n using binary units.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
