package core

import (
	"fmt"
	"path/filepath"
)

// DownloadClass selects mirror mapping rules and the progress bucket of a download.
type DownloadClass int

const (
	ClassLibrary DownloadClass = iota
	ClassMetadata
	ClassAsset
)

// String renders the class name used in logs.
func (c DownloadClass) String() string {
	switch c {
	case ClassLibrary:
		return "library"
	case ClassMetadata:
		return "metadata"
	case ClassAsset:
		return "asset"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Task describes a single file to materialise.
//
// A Task is created once by the planner and handed to exactly one worker.
// Only Hash may change afterwards, and only by that worker.
type Task struct {
	Path         string
	URL          string
	Class        DownloadClass
	Hash         string
	Size         int64
	SkipIfFailed bool
}

// Name returns the file name used in logs.
func (t *Task) Name() string {
	return filepath.Base(t.Path)
}
