// Package inventory walks a tile cache directory and reports what it holds.
package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tileview/internal/cache"
	"tileview/internal/tile"
)

// ZoomStats counts the tiles of one provider at one zoom level.
type ZoomStats struct {
	Provider string `json:"provider" yaml:"provider" doc:"Provider name" example:"osm"`
	Zoom     int    `json:"zoom" yaml:"zoom" doc:"Zoom level" example:"3"`
	Tiles    int    `json:"tiles" yaml:"tiles" doc:"Number of tile files"`
	Bytes    int64  `json:"bytes" yaml:"bytes" doc:"Total size on disk"`
}

type Report struct {
	Root       string      `json:"root" yaml:"root" doc:"Cache root directory"`
	Tiles      int         `json:"tiles" yaml:"tiles" doc:"Total tile files"`
	Bytes      int64       `json:"bytes" yaml:"bytes" doc:"Total size on disk"`
	Zooms      []ZoomStats `json:"zooms" yaml:"zooms" doc:"Per provider and zoom breakdown"`
	TempFiles  []string    `json:"temp_files" yaml:"temp_files" doc:"Leftover partial downloads"`
	Unexpected []string    `json:"unexpected" yaml:"unexpected" doc:"Files that do not follow the cache layout"`
}

type Scanner struct {
	root   string
	logger *zap.Logger
}

func New(root string, logger *zap.Logger) *Scanner {
	return &Scanner{
		root:   root,
		logger: logger,
	}
}

// Scan walks {root}/{provider}/{z}/{x}/{y}.{ext}.
func (s *Scanner) Scan() (*Report, error) {
	report := &Report{Root: s.root, Zooms: []ZoomStats{}, TempFiles: []string{}, Unexpected: []string{}}
	counts := make(map[string]*ZoomStats)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return fs.SkipAll
			}
			s.logger.Warn("Error walking cache", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		if strings.HasSuffix(d.Name(), cache.TempSuffix) {
			report.TempFiles = append(report.TempFiles, path)
			return nil
		}

		provider, zoom, ok := parseTilePath(rel)
		if !ok {
			report.Unexpected = append(report.Unexpected, path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("Error getting file info", zap.String("path", path), zap.Error(err))
			return nil
		}

		id := fmt.Sprintf("%s/%d", provider, zoom)
		zs, ok := counts[id]
		if !ok {
			zs = &ZoomStats{Provider: provider, Zoom: zoom}
			counts[id] = zs
		}
		zs.Tiles++
		zs.Bytes += info.Size()
		report.Tiles++
		report.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache directory: %w", err)
	}

	for _, zs := range counts {
		report.Zooms = append(report.Zooms, *zs)
	}
	sort.Slice(report.Zooms, func(i, j int) bool {
		if report.Zooms[i].Provider != report.Zooms[j].Provider {
			return report.Zooms[i].Provider < report.Zooms[j].Provider
		}
		return report.Zooms[i].Zoom < report.Zooms[j].Zoom
	})

	return report, nil
}

// CleanupTempFiles removes partial downloads left behind by a previous
// process. Only call it while no worker is writing into the same root.
func (s *Scanner) CleanupTempFiles() (int, error) {
	report, err := s.Scan()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range report.TempFiles {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to delete temp file", zap.String("path", path), zap.Error(err))
			continue
		}
		s.logger.Info("Deleted orphaned temp file", zap.String("path", path))
		removed++
	}
	return removed, nil
}

func parseTilePath(rel string) (provider string, zoom int, ok bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 {
		return "", 0, false
	}

	p, err := tile.ProviderByName(parts[0])
	if err != nil {
		return "", 0, false
	}

	z, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false
	}
	x, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}

	name := parts[3]
	ext := filepath.Ext(name)
	if ext != "."+p.Ext {
		return "", 0, false
	}
	y, err := strconv.Atoi(strings.TrimSuffix(name, ext))
	if err != nil {
		return "", 0, false
	}

	key := tile.Key{Provider: p.ID, Zoom: z, X: x, Y: y}
	if !key.Valid() {
		return "", 0, false
	}
	return p.Name, z, true
}
