package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/stackvity/tile-converter/pkg/converter/cache"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
	"github.com/stackvity/tile-converter/pkg/converter/tile"
	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stackvity/tile-converter/pkg/util"
)

// Extractor supplies the reference raster directives for a tile's cell,
// from the side-file cache or by decoding the reference tile.
type Extractor struct {
	opts   *Options
	codec  tool.Codec
	cache  cache.Store
	logger *slog.Logger
	group  singleflight.Group
}

// NewExtractor creates an Extractor.
func NewExtractor(opts *Options, codec tool.Codec, store cache.Store, loggerHandler slog.Handler) *Extractor {
	return &Extractor{
		opts:   opts,
		codec:  codec,
		cache:  store,
		logger: slog.New(loggerHandler).With(slog.String("component", "extractor")),
	}
}

// ReferencePath returns the first existing reference tile for t's cell.
func (e *Extractor) ReferencePath(t *tile.Tile) (string, error) {
	for _, dir := range e.opts.ReferenceDirs {
		p := filepath.Join(e.opts.Root, dir, filepath.FromSlash(t.RelData()))
		if util.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s under %v", ErrReferenceMissing, t.RelData(), e.opts.ReferenceDirs)
}

// Lines returns the raster directives for t's cell. Concurrent calls for the
// same cell share one extraction. The returned slice must not be modified.
func (e *Extractor) Lines(ctx context.Context, t *tile.Tile) ([]string, error) {
	if lines, ok := e.load(t.Base()); ok {
		return lines, nil
	}
	v, err, shared := e.group.Do(t.Base(), func() (interface{}, error) {
		// a flight that finished just before this one may have filled the cache
		if lines, ok := e.load(t.Base()); ok {
			return lines, nil
		}
		return e.extract(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("Shared raster extraction", slog.String("cell", t.Base()))
	}
	return v.([]string), nil
}

func (e *Extractor) load(base string) ([]string, bool) {
	lines, ok, err := e.cache.Load(base)
	if err != nil {
		e.logger.Warn("Failed to load raster cache, treating as miss", slog.String("cell", base), slog.String("error", err.Error()))
		return nil, false
	}
	return lines, ok
}

func (e *Extractor) extract(ctx context.Context, t *tile.Tile) ([]string, error) {
	ref, err := e.ReferencePath(t)
	if err != nil {
		return nil, err
	}

	// The codec writes its .raw side-files next to this export; they are kept.
	txt := filepath.Join(e.opts.WorkDir, t.Base()+raster.ReferenceTextExt)
	defer func() {
		if rmErr := util.RemoveIfExists(txt); rmErr != nil {
			e.logger.Warn("Failed to remove reference export", slog.String("path", txt), slog.String("error", rmErr.Error()))
		}
	}()

	e.logger.Debug("Extracting reference raster data", slog.String("cell", t.Base()), slog.String("reference", ref))
	if err := e.codec.Decode(ctx, ref, txt); err != nil {
		return nil, err
	}

	f, err := os.Open(txt)
	if err != nil {
		return nil, fmt.Errorf("open reference export: %w", err)
	}
	lines, err := raster.ScanDirectives(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	if err := e.cache.Store(t.Base(), lines); err != nil {
		e.logger.Warn("Failed to persist raster cache", slog.String("cell", t.Base()), slog.String("error", err.Error()))
	}
	e.logger.Info("Extracted reference raster data", slog.String("cell", t.Base()), slog.Int("lines", len(lines)))
	return lines, nil
}
