package core

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	apperrors "assetfetch/internal/errors"

	"github.com/google/uuid"
)

const (
	copyBufferSize = 32 * 1024
	maxTextSize    = 16 << 20
	partSuffix     = ".part"
)

// HTTPClient represents the subset of http.Client methods required by the fetch client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher is the network primitive set used by the acquisition engine.
type Fetcher interface {
	// DownloadFile streams url into path, reporting each chunk to progress.
	// buf is used as the copy buffer when non-nil.
	DownloadFile(ctx context.Context, url, path string, buf []byte, progress ProgressFunc) error
	// ContentLength returns the advertised size of url, or -1 when unknown.
	ContentLength(ctx context.Context, url string) (int64, error)
	// Text returns the body of url as a string.
	Text(ctx context.Context, url string) (string, error)
}

// Client implements Fetcher over HTTP.
type Client struct {
	client    HTTPClient
	fs        FileSystem
	userAgent string
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithFileSystem overrides the filesystem implementation.
func WithFileSystem(fs FileSystem) ClientOption {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient constructs a Client with sensible HTTP defaults.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	c := &Client{
		client:    defaultHTTPClient(timeout),
		fs:        OSFileSystem{},
		userAgent: "assetfetch/1.0 (Go downloader)",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = defaultHTTPClient(timeout)
	}
	if c.fs == nil {
		c.fs = OSFileSystem{}
	}
	return c
}

// DownloadFile downloads url into path. The body is written to a sibling
// temporary file that replaces path only once the transfer has completed, so
// an interrupted transfer never leaves a file that looks present.
func (c *Client) DownloadFile(ctx context.Context, url, path string, buf []byte, progress ProgressFunc) error {
	resp, err := c.do(ctx, http.MethodGet, url, "DownloadFile")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to create directory", err).
			WithModule("downloader.core").
			WithOperation("DownloadFile").
			WithField("path", filepath.Dir(path))
	}

	// Unique per transfer: two tasks may target the same path.
	tempPath := path + "." + uuid.NewString()[:8] + partSuffix
	file, err := c.fs.Create(tempPath)
	if err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to create local file", err).
			WithModule("downloader.core").
			WithOperation("DownloadFile").
			WithField("path", tempPath)
	}

	if buf == nil {
		buf = make([]byte, copyBufferSize)
	}
	_, copyErr := io.CopyBuffer(file, NewProgressReader(resp.Body, progress), buf)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = c.fs.Remove(tempPath)
		return apperrors.NetworkError(apperrors.CodeNetworkGeneric, "failed to write file to disk", copyErr).
			WithModule("downloader.core").
			WithOperation("DownloadFile").
			WithFields(apperrors.Metadata{"url": url, "path": path})
	}

	if err := c.fs.Rename(tempPath, path); err != nil {
		_ = c.fs.Remove(tempPath)
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to move downloaded file", err).
			WithModule("downloader.core").
			WithOperation("DownloadFile").
			WithFields(apperrors.Metadata{"source": tempPath, "target": path})
	}
	return nil
}

// ContentLength issues a HEAD request and returns the advertised length.
func (c *Client) ContentLength(ctx context.Context, url string) (int64, error) {
	resp, err := c.do(ctx, http.MethodHead, url, "ContentLength")
	if err != nil {
		return -1, err
	}
	resp.Body.Close()
	return resp.ContentLength, nil
}

// Text downloads url and returns its body.
func (c *Client) Text(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, url, "Text")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextSize))
	if err != nil {
		return "", apperrors.NetworkError(apperrors.CodeNetworkGeneric, "failed to read response body", err).
			WithModule("downloader.core").
			WithOperation("Text").
			WithField("url", url)
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, url, operation string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, apperrors.MalformedSource("failed to create request", url).
			WithModule("downloader.core").
			WithOperation(operation)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NetworkError(apperrors.CodeNetworkGeneric, "request failed", err).
			WithModule("downloader.core").
			WithOperation(operation).
			WithField("url", url)
	}

	if err := checkStatus(resp, url); err != nil {
		resp.Body.Close()
		return nil, err.WithModule("downloader.core").WithOperation(operation)
	}
	return resp, nil
}

// checkStatus maps non-success responses onto the error taxonomy.
func checkStatus(resp *http.Response, url string) *apperrors.AppError {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return apperrors.NotFound(url, nil).WithField("status", resp.StatusCode)
	default:
		return apperrors.NetworkError(apperrors.CodeNetworkGeneric, "unexpected status", nil).
			WithFields(apperrors.Metadata{
				"url":    url,
				"status": resp.StatusCode,
			})
	}
}

// IsValidText reports whether s carries any non-whitespace content.
func IsValidText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func defaultHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
