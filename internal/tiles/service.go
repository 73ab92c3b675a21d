// Package tiles ties the disk store, fetch queue and memory cache together
// behind a single lookup used by renderers.
package tiles

import (
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tileview/internal/cache"
	"tileview/internal/fetch"
	"tileview/internal/tile"
)

// Decoder turns a tile file into a render-ready handle.
type Decoder[H any] interface {
	Decode(path string) (H, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc[H any] func(path string) (H, error)

func (f DecoderFunc[H]) Decode(path string) (H, error) {
	return f(path)
}

// Service owns every piece of tile state for a process.
type Service[H any] struct {
	store   *cache.DiskStore
	queue   *fetch.Queue
	worker  *fetch.Worker
	memory  cache.Cache[H]
	decoder Decoder[H]
	logger  *zap.Logger

	// Concurrent lookups of the same tile share one decode.
	decodes singleflight.Group
}

type Options[H any] struct {
	Store      *cache.DiskStore
	Memory     cache.Cache[H]
	Decoder    Decoder[H]
	Downloader fetch.Downloader
	// OnEvict releases handles dropped by the default memory cache.
	OnEvict cache.EvictFunc[H]
	Logger  *zap.Logger
}

func New[H any](opts Options[H]) *Service[H] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	memory := opts.Memory
	if memory == nil {
		memory = cache.NewMemoryCache(0, opts.OnEvict)
	}

	queue := fetch.NewQueue()
	return &Service[H]{
		store:   opts.Store,
		queue:   queue,
		worker:  fetch.NewWorker(queue, opts.Store, opts.Downloader, logger.Named("worker")),
		memory:  memory,
		decoder: opts.Decoder,
		logger:  logger,
	}
}

// Start launches the background download worker.
func (s *Service[H]) Start() {
	s.worker.Start()
}

// Close stops the worker after its current download and releases cached
// handles.
func (s *Service[H]) Close() {
	s.worker.Stop()
	s.memory.Clear()
}

// Lookup returns the decoded tile for key, or false when it is not available
// yet. A miss on disk schedules a background download; the caller never
// blocks on the network.
func (s *Service[H]) Lookup(key tile.Key) (H, bool) {
	var zero H

	if h, ok := s.memory.Get(key); ok {
		return h, true
	}

	path := s.store.PathFor(key)
	if !s.store.Exists(key) {
		if err := s.store.EnsureDirectory(key); err != nil {
			s.logger.Error("Failed to create tile directory", zap.String("tile", key.String()), zap.Error(err))
			return zero, false
		}
		if s.queue.Enqueue(fetch.Job{Key: key, Path: path}) {
			s.logger.Debug("Tile scheduled", zap.String("tile", key.String()))
		}
	}

	// The file may already be there from an earlier download.
	v, err, _ := s.decodes.Do(key.String(), func() (any, error) {
		if h, ok := s.memory.Get(key); ok {
			return h, nil
		}
		h, err := s.decoder.Decode(path)
		if err != nil {
			return nil, err
		}
		s.memory.Set(key, h)
		return h, nil
	})
	if err != nil {
		s.logger.Debug("Tile not available", zap.String("tile", key.String()), zap.Error(err))
		return zero, false
	}
	h, _ := v.(H)
	return h, true
}

// Available reports whether key is in memory or on disk, without scheduling.
func (s *Service[H]) Available(key tile.Key) bool {
	return s.memory.Has(key) || s.store.Exists(key)
}

func (s *Service[H]) Store() *cache.DiskStore {
	return s.store
}

func (s *Service[H]) Queue() *fetch.Queue {
	return s.queue
}

func (s *Service[H]) Cache() cache.Cache[H] {
	return s.memory
}
