package fetch

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"tileview/internal/cache"
	"tileview/internal/tile"
)

// Store is the part of the disk store the worker writes through.
type Store interface {
	Exists(key tile.Key) bool
	WriteFromNetwork(ctx context.Context, key tile.Key, fetch cache.FetchFunc) error
}

// Worker drains a Queue on one goroutine, one download at a time.
type Worker struct {
	queue      *Queue
	store      Store
	downloader Downloader
	logger     *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewWorker(queue *Queue, store Store, downloader Downloader, logger *zap.Logger) *Worker {
	return &Worker{
		queue:      queue,
		store:      store,
		downloader: downloader,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling it more than once is a no-op.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.Run()
	})
}

// Run processes jobs until the queue is closed.
func (w *Worker) Run() {
	defer close(w.done)

	w.logger.Debug("Tile worker started")
	for {
		job, ok := w.queue.Dequeue()
		if !ok {
			w.logger.Debug("Tile worker stopped", zap.Int("abandoned_jobs", w.queue.Len()))
			return
		}
		w.process(job)
	}
}

// Stop closes the queue and waits for the worker to exit. A download in
// flight is allowed to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.queue.Close()
		w.Start()
		<-w.done
	})
}

// onDisk reports whether the job's destination already exists. Jobs without
// a Path fall back to the store layout.
func (w *Worker) onDisk(job Job) bool {
	if job.Path == "" {
		return w.store.Exists(job.Key)
	}
	_, err := os.Stat(job.Path)
	return err == nil
}

func (w *Worker) process(job Job) {
	if w.onDisk(job) {
		w.logger.Debug("Tile already on disk, skipping", zap.String("tile", job.Key.String()))
		return
	}

	url := job.Key.Provider.Provider().URL(job.Key)

	// Not tied to shutdown: the in-flight download is allowed to complete.
	err := w.store.WriteFromNetwork(context.Background(), job.Key, FetchFunc(w.downloader, url))
	if err != nil {
		w.logger.Warn("Tile download failed",
			zap.String("tile", job.Key.String()),
			zap.String("url", url),
			zap.Error(err),
		)
		return
	}

	w.logger.Debug("Tile downloaded",
		zap.String("tile", job.Key.String()),
		zap.String("path", job.Path),
	)
}
