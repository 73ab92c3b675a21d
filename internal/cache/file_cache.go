package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"tileview/internal/tile"
)

var (
	ErrDirectoryCreate = errors.New("tile directory create failed")
	ErrFetch           = errors.New("tile fetch failed")
)

// TempSuffix marks in-progress downloads; they are renamed into place on
// success and never read as tiles.
const TempSuffix = ".tmp"

// FetchFunc streams a tile body into w.
type FetchFunc func(ctx context.Context, w io.Writer) error

// DiskStore is the on-disk tile cache.
// Structure: {root}/{provider}/{z}/{x}/{y}.{ext}
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DiskStore{
		root: root,
	}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) dirFor(key tile.Key) string {
	return filepath.Join(s.root, key.Provider.Name(), strconv.Itoa(key.Zoom), strconv.Itoa(key.X))
}

// PathFor builds the file path for a tile key.
func (s *DiskStore) PathFor(key tile.Key) string {
	fileName := strconv.Itoa(key.Y) + "." + key.Provider.Provider().Ext
	return filepath.Join(s.dirFor(key), fileName)
}

// EnsureDirectory creates {root}/{provider}/{z}/{x}. Safe to call
// concurrently and when the directory already exists.
func (s *DiskStore) EnsureDirectory(key tile.Key) error {
	dir := s.dirFor(key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryCreate, dir, err)
	}
	return nil
}

func (s *DiskStore) Exists(key tile.Key) bool {
	_, err := os.Stat(s.PathFor(key))
	return err == nil
}

func (s *DiskStore) Read(key tile.Key) ([]byte, error) {
	return os.ReadFile(s.PathFor(key))
}

// WriteFromNetwork streams fetch into a temp file next to the destination
// and renames it into place once complete. On failure nothing is left at
// the destination and the error wraps ErrFetch.
func (s *DiskStore) WriteFromNetwork(ctx context.Context, key tile.Key, fetch FetchFunc) (err error) {
	if err := s.EnsureDirectory(key); err != nil {
		return err
	}

	filePath := s.PathFor(key)
	tmpPath := filePath + "." + uuid.New().String() + TempSuffix

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrFetch, tmpPath, err)
	}

	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	if err := fetch(ctx, file); err != nil {
		file.Close()
		return fmt.Errorf("%w: %s: %w", ErrFetch, key, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrFetch, tmpPath, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrFetch, tmpPath, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrFetch, filePath, err)
	}

	return nil
}
