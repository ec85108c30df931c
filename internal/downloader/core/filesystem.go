package core

import (
	stdErrors "errors"
	"io"
	"os"
	"path/filepath"
)

// FileSystem abstracts filesystem operations to improve testability.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Stat(path string) (os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
}

// OSFileSystem implements FileSystem using the local OS.
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

func (OSFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (OSFileSystem) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// Exists reports whether anything is present at path.
func Exists(fs FileSystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil || !stdErrors.Is(err, os.ErrNotExist)
}

// CopyFile copies src to dst through fs, creating dst's parent directory.
func CopyFile(fs FileSystem, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := fs.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = fs.Remove(dst)
		return err
	}
	return out.Close()
}
