// Package cache persists the raster directives extracted from a reference
// tile, one side-file per cell, so each reference tile is decoded at most once.
package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// FileExt is the extension of a side-file.
const FileExt = ".rdata"

var (
	// ErrCacheLoad indicates a side-file exists but could not be read.
	ErrCacheLoad = errors.New("failed to load raster cache")
	// ErrCachePersist indicates a side-file could not be written.
	ErrCachePersist = errors.New("failed to persist raster cache")
)

// Store loads and stores raster directive lines keyed by cell name.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(base string) (lines []string, ok bool, err error)
	Store(base string, lines []string) error
}

// SideFileCache keeps one plain-text side-file per cell in Dir. Entries are
// never invalidated; delete the file to force a fresh extraction.
type SideFileCache struct {
	Dir string
}

// NewSideFileCache creates a cache rooted at dir.
func NewSideFileCache(dir string) *SideFileCache {
	return &SideFileCache{Dir: dir}
}

// Path returns the side-file for base.
func (c *SideFileCache) Path(base string) string {
	return filepath.Join(c.Dir, base+FileExt)
}

// Load returns the cached lines for base. A missing side-file is a miss, not an error.
func (c *SideFileCache) Load(base string) ([]string, bool, error) {
	p := c.Path(base)
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCacheLoad, p, err)
	}
	defer f.Close()

	var lines []string
	br := bufio.NewReader(f)
	for {
		line, rerr := br.ReadString('\n')
		if line != "" {
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			lines = append(lines, line)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, false, fmt.Errorf("%w: %s: %v", ErrCacheLoad, p, rerr)
		}
	}
	return lines, true, nil
}

// Store writes lines for base atomically. Concurrent writers for the same
// base each produce a complete file; the last one wins.
func (c *SideFileCache) Store(base string, lines []string) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCachePersist, c.Dir, err)
	}
	p := c.Path(base)
	if err := atomic.WriteFile(p, strings.NewReader(strings.Join(lines, ""))); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCachePersist, p, err)
	}
	return nil
}
