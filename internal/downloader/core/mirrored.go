package core

import (
	"context"

	apperrors "assetfetch/internal/errors"
	"assetfetch/internal/logger"
)

// MirroredFetcher tries the mirror URL first and falls back to the canonical
// URL once when the mirror does not have the resource. Any other failure is
// returned as is.
type MirroredFetcher struct {
	fetcher  Fetcher
	resolver Resolver
	logger   logger.Logger
}

// NewMirroredFetcher wraps fetcher with the mirror policy of resolver.
func NewMirroredFetcher(fetcher Fetcher, resolver Resolver, log logger.Logger) *MirroredFetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &MirroredFetcher{
		fetcher:  fetcher,
		resolver: resolver,
		logger:   log,
	}
}

// IsMirrored reports whether requests go to a mirror first.
func (m *MirroredFetcher) IsMirrored() bool {
	return m.resolver.Mirrored()
}

// DownloadFile downloads the resource without progress reporting.
func (m *MirroredFetcher) DownloadFile(ctx context.Context, class DownloadClass, url, path string) error {
	return m.DownloadFileMonitored(ctx, class, url, path, nil, nil)
}

// DownloadFileMonitored downloads the resource using buf and reporting to progress.
func (m *MirroredFetcher) DownloadFileMonitored(ctx context.Context, class DownloadClass, url, path string, buf []byte, progress ProgressFunc) error {
	target, err := m.resolver.Resolve(class, url)
	if err != nil {
		return err
	}

	err = m.fetcher.DownloadFile(ctx, target, path, buf, progress)
	if !m.shouldFallback(err, target, url) {
		return err
	}

	m.logger.Warn("Cannot find %s on the mirror: %v", target, err)
	m.logger.Info("Falling back to default source for %s", url)
	return m.fetcher.DownloadFile(ctx, url, path, buf, progress)
}

// ContentLength returns the size of the resource. A mirror that does not
// know the length is treated like a mirror that does not have the resource.
func (m *MirroredFetcher) ContentLength(ctx context.Context, class DownloadClass, url string) (int64, error) {
	target, err := m.resolver.Resolve(class, url)
	if err != nil {
		return -1, err
	}

	length, err := m.fetcher.ContentLength(ctx, target)
	if err != nil && !apperrors.IsNotFound(err) {
		return -1, err
	}
	if err == nil && length >= 1 {
		return length, nil
	}
	if target == url {
		return length, err
	}

	m.logger.Warn("Unable to get content length of %s from mirror", target)
	m.logger.Info("Falling back to default source for %s", url)
	return m.fetcher.ContentLength(ctx, url)
}

// Text downloads the resource as a string. A blank mirror response also
// triggers the fallback.
func (m *MirroredFetcher) Text(ctx context.Context, class DownloadClass, url string) (string, error) {
	target, err := m.resolver.Resolve(class, url)
	if err != nil {
		return "", err
	}

	text, err := m.fetcher.Text(ctx, target)
	if err != nil && !apperrors.IsNotFound(err) {
		return "", err
	}
	if err == nil && IsValidText(text) {
		return text, nil
	}
	if target == url {
		return text, err
	}

	if err != nil {
		m.logger.Warn("Failed to download %s from mirror: %v", target, err)
	} else {
		m.logger.Warn("Mirror returned an invalid body for %s", target)
	}
	m.logger.Info("Falling back to default source for %s", url)
	return m.fetcher.Text(ctx, url)
}

func (m *MirroredFetcher) shouldFallback(err error, target, canonical string) bool {
	return err != nil && target != canonical && apperrors.IsNotFound(err)
}
