package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/stackvity/tile-converter/pkg/converter/cache"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
	"github.com/stackvity/tile-converter/pkg/converter/tile"
	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stackvity/tile-converter/pkg/util"
)

// TileProcessor implements Operator with the codec and archiver tools.
//
// Convert never leaves a tile half-written: the replacement is renamed over
// the tile only after every tool succeeded, and temporary files are removed
// on every exit path. Undo and Cleanup have no such guarantee; a failure
// between their filesystem steps can need manual repair.
type TileProcessor struct {
	opts      *Options
	codec     tool.Codec
	archiver  tool.Archiver
	extractor *Extractor
	logger    *slog.Logger
}

// NewTileProcessor wires a processor to runner for every external tool call.
func NewTileProcessor(opts *Options, runner tool.Runner, store cache.Store, loggerHandler slog.Handler) *TileProcessor {
	codec := tool.Codec{
		Runner:     runner,
		Path:       opts.Tools.Codec,
		DecodeFlag: opts.Tools.DecodeFlag,
		EncodeFlag: opts.Tools.EncodeFlag,
	}
	return &TileProcessor{
		opts:      opts,
		codec:     codec,
		archiver:  tool.Archiver{Runner: runner, Path: opts.Tools.Archiver, Args: opts.Tools.ArchiverArgs},
		extractor: NewExtractor(opts, codec, store, loggerHandler),
		logger:    slog.New(loggerHandler).With(slog.String("component", "processor")),
	}
}

// Convert merges the reference raster channels into t.
func (p *TileProcessor) Convert(ctx context.Context, t *tile.Tile) (err error) {
	start := time.Now()
	logger := p.logger.With(slog.String("tile", t.Path()))

	var temps []string
	defer func() {
		// the codec writes raster side-files next to an export that carries rasters
		var raws []string
		for _, f := range temps {
			if strings.HasSuffix(f, ".txt") {
				matches, _ := filepath.Glob(f + ".*.raw")
				raws = append(raws, matches...)
			}
		}
		temps = append(temps, raws...)
		for _, f := range temps {
			if rmErr := util.RemoveIfExists(f); rmErr != nil {
				logger.Warn("Failed to remove temporary file", slog.String("path", f), slog.String("error", rmErr.Error()))
			}
		}
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrConvertFailed, t.Path(), err)
		}
	}()

	// redo starts from the pristine bytes, not the already converted tile
	src := t.Path()
	if t.HasBackup() {
		src = t.Backup()
	}

	txtFile, err := os.CreateTemp(p.opts.WorkDir, t.Base()+"-*.txt")
	if err != nil {
		return fmt.Errorf("create text export: %w", err)
	}
	txt := txtFile.Name()
	temps = append(temps, txt)
	if err = txtFile.Close(); err != nil {
		return err
	}

	if err = p.codec.Decode(ctx, src, txt); err != nil {
		return err
	}
	if err = raster.CheckTarget(txt); err != nil {
		logger.Warn("Tile rejected", slog.String("reason", err.Error()))
		return err
	}

	lines, err := p.extractor.Lines(ctx, t)
	if err != nil {
		return err
	}
	n, err := raster.AppendFiltered(txt, lines, p.opts.RasterAllowList)
	if err != nil {
		return err
	}
	logger.Debug("Merged raster directives", slog.Int("kept", n), slog.Int("available", len(lines)))

	if !t.HasBackup() {
		if err = util.CopyFile(t.Path(), t.Backup()); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	// the archiver appends to an existing archive, so stale stages must go first
	stage, archive := t.NewStage(), t.NewArchive()
	temps = append(temps, stage, archive)
	for _, f := range []string{stage, archive} {
		if err = util.RemoveIfExists(f); err != nil {
			return err
		}
	}

	if err = p.codec.Encode(ctx, txt, stage); err != nil {
		return err
	}
	if err = p.archiver.Add(ctx, archive, stage); err != nil {
		return err
	}
	if err = os.Rename(archive, t.Path()); err != nil {
		return fmt.Errorf("replace tile: %w", err)
	}
	if err = atomic.WriteFile(t.Marker(), strings.NewReader("")); err != nil {
		return fmt.Errorf("create marker: %w", err)
	}

	logger.Debug("Tile converted", slog.Duration("duration", time.Since(start)))
	return nil
}

// Undo restores the backup over t and drops the marker.
func (p *TileProcessor) Undo(_ context.Context, t *tile.Tile) error {
	if !t.HasBackup() {
		return fmt.Errorf("%w: %s", ErrNoBackup, t.Path())
	}
	if err := util.RemoveIfExists(t.Path()); err != nil {
		return fmt.Errorf("undo %s: remove tile: %w", t.Path(), err)
	}
	if err := os.Rename(t.Backup(), t.Path()); err != nil {
		return fmt.Errorf("undo %s: restore backup: %w", t.Path(), err)
	}
	if err := util.RemoveIfExists(t.Marker()); err != nil {
		return fmt.Errorf("undo %s: remove marker: %w", t.Path(), err)
	}
	p.logger.Debug("Tile restored", slog.String("tile", t.Path()))
	return nil
}

// Cleanup deletes the backup of a converted tile. Undo is impossible afterwards.
func (p *TileProcessor) Cleanup(_ context.Context, t *tile.Tile) error {
	if !t.HasBackup() || !t.IsConverted() {
		return fmt.Errorf("%w: %s (%s)", ErrCleanupNotEligible, t.Path(), t.Probe())
	}
	if err := os.Remove(t.Backup()); err != nil {
		return fmt.Errorf("cleanup %s: %w", t.Path(), err)
	}
	p.logger.Debug("Backup removed", slog.String("tile", t.Path()))
	return nil
}
