package downloader

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"assetfetch/internal/downloader/core"
	"assetfetch/internal/logger"
)

const (
	workerCount       = 4
	workerBufferSize  = 32 * 1024
	sidecarHashSuffix = ".sha1"
	sidecarHashLength = 40
)

// TaskFetcher is the network surface a worker needs.
type TaskFetcher interface {
	DownloadFileMonitored(ctx context.Context, class core.DownloadClass, url, path string, buf []byte, progress core.ProgressFunc) error
	Text(ctx context.Context, class core.DownloadClass, url string) (string, error)
}

// Counters are the progress counters shared by the workers and the supervisor.
type Counters struct {
	// Files counts finished tasks, including absorbed failures.
	Files atomic.Int64
	// Processed counts bytes verified locally or downloaded.
	Processed atomic.Int64
	// Network counts bytes actually pulled over the network.
	Network atomic.Int64
}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Files     int64
	Processed int64
	Network   int64
}

// Snapshot reads all counters.
func (c *Counters) Snapshot() Stats {
	return Stats{
		Files:     c.Files.Load(),
		Processed: c.Processed.Load(),
		Network:   c.Network.Load(),
	}
}

type capturedError struct {
	err error
}

// Executor runs a plan's tasks on a fixed pool of workers.
type Executor struct {
	fetcher       TaskFetcher
	fs            core.FileSystem
	logger        logger.Logger
	sidecarHashes bool

	counters Counters
	firstErr atomic.Pointer[capturedError]
	stopped  atomic.Bool
	aborted  atomic.Bool

	queue  chan *core.Task
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewExecutor returns an executor. sidecarHashes enables looking up
// <url>.sha1 for library tasks that carry no hash.
func NewExecutor(fetcher TaskFetcher, fs core.FileSystem, sidecarHashes bool, log logger.Logger) *Executor {
	if fs == nil {
		fs = core.OSFileSystem{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{
		fetcher:       fetcher,
		fs:            fs,
		logger:        log,
		sidecarHashes: sidecarHashes,
		done:          make(chan struct{}),
	}
}

// Start queues every task and launches the workers. It must be called once.
func (e *Executor) Start(ctx context.Context, tasks []*core.Task) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.queue = make(chan *core.Task, len(tasks))
	for _, task := range tasks {
		e.queue <- task
	}
	close(e.queue)

	for i := 0; i < workerCount; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}

	go func() {
		e.wg.Wait()
		e.cancel()
		close(e.done)
	}()
}

// Done is closed once every worker has exited.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Err returns the first error captured from a worker, if any.
func (e *Executor) Err() error {
	if captured := e.firstErr.Load(); captured != nil {
		return captured.err
	}
	return nil
}

// Counters exposes the live progress counters.
func (e *Executor) Counters() *Counters {
	return &e.counters
}

// Stop drops every task that has not started yet. Running tasks finish.
func (e *Executor) Stop() {
	e.stopped.Store(true)
}

// Abort stops the pool, cancels running tasks and discards their errors.
func (e *Executor) Abort() {
	e.aborted.Store(true)
	e.stopped.Store(true)
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Executor) worker(ctx context.Context) {
	defer e.wg.Done()

	// Allocated on first download and reused for every task of this worker.
	var buf []byte

	for task := range e.queue {
		if e.stopped.Load() || ctx.Err() != nil {
			continue
		}
		if err := e.run(ctx, task, &buf); err != nil {
			if e.aborted.Load() {
				continue
			}
			e.capture(err)
		}
	}
}

func (e *Executor) capture(err error) {
	if e.firstErr.CompareAndSwap(nil, &capturedError{err: err}) {
		e.Stop()
	}
}

func (e *Executor) run(ctx context.Context, task *core.Task, buf *[]byte) error {
	if task.Class == core.ClassLibrary && strings.TrimSpace(task.Hash) == "" && e.sidecarHashes {
		e.discoverHash(ctx, task)
	}

	if strings.TrimSpace(task.Hash) != "" {
		if core.Verify(e.fs, task.Path, task.Hash) {
			e.finishWithoutDownloading(task)
			return nil
		}
		return e.download(ctx, task, buf)
	}

	task.Hash = ""
	if core.Exists(e.fs, task.Path) {
		e.finishWithoutDownloading(task)
		return nil
	}
	return e.download(ctx, task, buf)
}

func (e *Executor) download(ctx context.Context, task *core.Task, buf *[]byte) error {
	if *buf == nil {
		*buf = make([]byte, workerBufferSize)
	}

	// run has already ruled out a usable local copy.
	err := core.FetchVerified(e.fs, task.Path, task.Hash, func() error {
		return e.fetcher.DownloadFileMonitored(ctx, task.Class, task.URL, task.Path, *buf, func(delta int64) {
			e.counters.Processed.Add(delta)
			e.counters.Network.Add(delta)
		})
	})
	if err != nil {
		if !task.SkipIfFailed {
			return err
		}
		e.logger.Info("Skipped optional file %s: %v", task.Name(), err)
	}
	e.counters.Files.Add(1)
	return nil
}

func (e *Executor) finishWithoutDownloading(task *core.Task) {
	e.counters.Files.Add(1)
	e.counters.Processed.Add(task.Size)
}

// discoverHash looks for a maven-style <url>.sha1 next to the artifact.
func (e *Executor) discoverHash(ctx context.Context, task *core.Task) {
	body, err := e.fetcher.Text(ctx, task.Class, task.URL+sidecarHashSuffix)
	if err != nil {
		e.logger.Debug("Failed to download hash for %s: %v", task.Name(), err)
		return
	}
	e.counters.Network.Add(sidecarHashLength)

	hash := strings.TrimSpace(body)
	if !isSHA1Hex(hash) {
		return
	}
	e.logger.Debug("Got hash %s for %s", hash, task.Name())
	task.Hash = hash
}

func isSHA1Hex(s string) bool {
	if len(s) != sidecarHashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
