// Package runtime checks that a runtime interpreter able to run a version is
// installed before any of its files are scheduled.
package runtime

import (
	"context"
	"fmt"
	"os"
	"sort"

	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
)

// Installer satisfies the runtime requirement of a version.
type Installer interface {
	EnsureRuntime(ctx context.Context, major int) error
}

// DirectoryInstaller resolves runtimes from pre-installed directories keyed
// by major version. A newer runtime satisfies an older requirement.
type DirectoryInstaller struct {
	runtimes map[int]string
	logger   logger.Logger
}

// NewDirectoryInstaller returns an installer backed by runtimes.
// With no runtimes configured every requirement is accepted.
func NewDirectoryInstaller(runtimes map[int]string, log logger.Logger) *DirectoryInstaller {
	if log == nil {
		log = logger.Nop()
	}
	return &DirectoryInstaller{runtimes: runtimes, logger: log}
}

// EnsureRuntime returns a RuntimeInstall error when no configured runtime can run major.
func (d *DirectoryInstaller) EnsureRuntime(ctx context.Context, major int) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Cancelled(err)
	}
	if major <= 0 || len(d.runtimes) == 0 {
		return nil
	}

	majors := make([]int, 0, len(d.runtimes))
	for m := range d.runtimes {
		if m >= major {
			majors = append(majors, m)
		}
	}
	if len(majors) == 0 {
		return apperrors.RuntimeInstall(fmt.Sprintf("no runtime installed for major version %d", major), nil).
			WithModule("runtime").
			WithOperation("EnsureRuntime").
			WithField("required", major)
	}
	sort.Ints(majors)

	var lastErr error
	for _, m := range majors {
		dir := d.runtimes[m]
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			d.logger.DebugContext(ctx, "runtime precondition satisfied",
				logger.Int("required", major), logger.Int("selected", m), logger.String("dir", dir))
			return nil
		}
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		lastErr = err
	}

	return apperrors.RuntimeInstall(fmt.Sprintf("runtime for major version %d is not installed", major), lastErr).
		WithModule("runtime").
		WithOperation("EnsureRuntime").
		WithField("required", major)
}

// Accept is an Installer that treats every requirement as satisfied.
type Accept struct{}

func (Accept) EnsureRuntime(context.Context, int) error { return nil }
