// Package natives extracts platform shared libraries from Android-style
// archives (jni/<abi>/*.so) into a flat directory.
package natives

import (
	"archive/zip"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/pkg/errors"
)

// ABIForArch maps a Go architecture onto the Android ABI directory name.
func ABIForArch(arch string) string {
	switch arch {
	case "arm64":
		return "arm64-v8a"
	case "arm":
		return "armeabi-v7a"
	case "386":
		return "x86"
	case "amd64":
		return "x86_64"
	default:
		return arch
	}
}

// Extractor pulls the shared libraries for one ABI out of archives.
type Extractor struct {
	abi string
}

// NewExtractor returns an extractor for abi; an empty abi selects the host's.
func NewExtractor(abi string) *Extractor {
	if abi == "" {
		abi = ABIForArch(goruntime.GOARCH)
	}
	return &Extractor{abi: abi}
}

// ABI returns the ABI directory this extractor reads from.
func (e *Extractor) ABI() string {
	return e.abi
}

// Extract copies every jni/<abi>/*.so entry of archive into dir.
// Files already present with matching size and CRC are left alone.
func (e *Extractor) Extract(archive, dir string) (int, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open native archive %s", archive)
	}
	defer r.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "failed to create natives directory %s", dir)
	}

	prefix := "jni/" + e.abi + "/"
	extracted := 0
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) || !strings.HasSuffix(f.Name, ".so") {
			continue
		}
		name := f.Name[len(prefix):]
		if strings.Contains(name, "/") {
			continue
		}

		target := filepath.Join(dir, name)
		if upToDate(target, f) {
			continue
		}
		if err := extractEntry(f, target); err != nil {
			return extracted, errors.Wrapf(err, "failed to extract %s from %s", f.Name, archive)
		}
		extracted++
	}
	return extracted, nil
}

func upToDate(target string, f *zip.File) bool {
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() || uint64(info.Size()) != f.UncompressedSize64 {
		return false
	}
	file, err := os.Open(target)
	if err != nil {
		return false
	}
	defer file.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, file); err != nil {
		return false
	}
	return h.Sum32() == f.CRC32
}

func extractEntry(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := target + ".part"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
