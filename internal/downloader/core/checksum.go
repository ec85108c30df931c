package core

import (
	"crypto/sha1"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "assetfetch/internal/errors"

	"github.com/pkg/errors"
)

// CalculateSHA1 returns the SHA-1 checksum for the provided reader.
func CalculateSHA1(r io.Reader) (string, error) {
	hasher := sha1.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", errors.Wrap(err, "failed to read data for checksum")
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// CalculateFileChecksum opens the supplied path via the provided filesystem and returns its SHA-1 hash.
func CalculateFileChecksum(fs FileSystem, filePath string) (string, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open file: %s", filePath)
	}
	defer file.Close()

	return CalculateSHA1(file)
}

// Verify reports whether filePath is a readable regular file whose hash
// matches expectedHash, ignoring case. An empty expectedHash never verifies.
func Verify(fs FileSystem, filePath, expectedHash string) bool {
	expected := strings.TrimSpace(expectedHash)
	if expected == "" {
		return false
	}

	info, err := fs.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	actual, err := CalculateFileChecksum(fs, filePath)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expected)
}

// ValidateChecksum ensures that the file at filePath matches the expected hash value.
func ValidateChecksum(fs FileSystem, filePath, expectedHash string) error {
	expected := strings.ToLower(strings.TrimSpace(expectedHash))
	if expected == "" {
		return apperrors.ValidationError(apperrors.CodeValidationGeneric, "expected checksum is empty", nil).
			WithField("path", filePath)
	}

	actual, err := CalculateFileChecksum(fs, filePath)
	if err != nil {
		return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to hash file", err).
			WithField("path", filePath)
	}

	if actual != expected {
		return apperrors.Integrity(filePath, expected, actual)
	}

	return nil
}

// EnsureHash runs fetch unless filePath already satisfies expectedHash.
//
// With no expected hash an existing file is trusted and fetch only runs when
// the file is absent. With a hash the fetched file is verified afterwards; a
// mismatching file is removed and an integrity error returned.
func EnsureHash(fs FileSystem, filePath, expectedHash string, fetch func() error) error {
	if strings.TrimSpace(expectedHash) == "" {
		if _, err := fs.Stat(filePath); err == nil {
			return nil
		} else if !stdErrors.Is(err, os.ErrNotExist) {
			return apperrors.SystemError(apperrors.CodeSystemGeneric, "failed to inspect local file", err).
				WithField("path", filePath)
		}
		return fetch()
	}

	if Verify(fs, filePath, expectedHash) {
		return nil
	}
	return FetchVerified(fs, filePath, expectedHash, fetch)
}

// FetchVerified runs fetch without looking at the local file first, then
// checks the result against expectedHash when one is given.
func FetchVerified(fs FileSystem, filePath, expectedHash string, fetch func() error) error {
	if err := fetch(); err != nil {
		return err
	}
	if strings.TrimSpace(expectedHash) == "" {
		return nil
	}

	if err := ValidateChecksum(fs, filePath, expectedHash); err != nil {
		_ = fs.Remove(filePath)
		return err
	}
	return nil
}
