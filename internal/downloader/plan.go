package downloader

import (
	"sync/atomic"

	"assetfetch/internal/downloader/core"
)

// Plan is the flat set of downloads one acquisition performs.
type Plan struct {
	Tasks []*core.Task
	// Natives lists archives that are extracted once the pool has drained.
	Natives []string
	// SourceJar is the last client jar scheduled while walking the inheritance chain.
	SourceJar string
	// TargetJar is the jar path of the requested version.
	TargetJar string

	totalFiles  int64
	totalSize   int64
	fileCounter atomic.Bool
}

// NewPlan returns an empty plan whose runtime image ends up at targetJar.
func NewPlan(targetJar string) *Plan {
	return &Plan{TargetJar: targetJar}
}

// TotalFiles returns the number of scheduled tasks.
func (p *Plan) TotalFiles() int64 {
	return p.totalFiles
}

// TotalSize returns the sum of all known task sizes.
func (p *Plan) TotalSize() int64 {
	return p.totalSize
}

// UseFileCounter reports whether progress is reported by file count.
// Once set it stays set for the rest of the plan's life.
func (p *Plan) UseFileCounter() bool {
	return p.fileCounter.Load()
}

func (p *Plan) switchToFileCounter() bool {
	return p.fileCounter.CompareAndSwap(false, true)
}

func (p *Plan) add(task *core.Task) {
	p.totalFiles++
	if task.Size > 0 {
		p.totalSize += task.Size
	}
	p.Tasks = append(p.Tasks, task)
}
