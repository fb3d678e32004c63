package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stackvity/tile-converter/pkg/converter/tile"
)

// Job is one tile and the operation to apply to it. Jobs are immutable once queued.
type Job struct {
	Tile   *tile.Tile
	Action Action
}

// ScanResult lists the queued jobs in discovery order and the candidates
// that were passed over.
type ScanResult struct {
	Jobs    []Job
	Skipped []SkippedInfo
}

// Scanner walks the scenery directory, filters candidate tiles, and
// classifies them against the run mode.
type Scanner struct {
	opts   *Options
	hooks  Hooks
	logger *slog.Logger
	packRe *regexp.Regexp
	layout tile.Layout
}

// NewScanner creates a Scanner. The pack pattern must compile.
func NewScanner(opts *Options, loggerHandler slog.Handler) (*Scanner, error) { // Minimal comment
	logger := slog.New(loggerHandler).With(slog.String("component", "scanner"))
	re, err := regexp.Compile(opts.PackPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pack pattern %q: %w", ErrConfigValidation, opts.PackPattern, err)
	}
	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	return &Scanner{opts: opts, hooks: hooks, logger: logger, packRe: re, layout: opts.TileLayout()}, nil
}

// SceneryRoot returns the directory the scan starts from.
func (s *Scanner) SceneryRoot() string {
	return filepath.Join(s.opts.Root, s.opts.SceneryDir)
}

// Scan walks the scenery root. It stops early once Limit jobs are queued.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	root := s.SceneryRoot()
	s.logger.Info("Starting directory scan", slog.String("path", root), slog.String("mode", string(s.opts.Mode)))

	var res ScanResult
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Warn("Error accessing path during scan", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !s.inPack(root, filepath.Dir(path)) {
			return nil
		}
		name := d.Name()
		if filepath.Ext(name) != s.opts.TileExt {
			return nil
		}
		if s.opts.Subset != "" && !strings.Contains(filepath.ToSlash(path), s.opts.Subset) {
			return nil
		}
		if s.opts.Rect != nil {
			lat, lon, ok := ParseCell(name, s.opts.TileExt)
			if !ok {
				s.logger.Warn("Cannot parse cell from tile name, skipping", slog.String("path", path))
				res.Skipped = append(res.Skipped, SkippedInfo{Path: filepath.ToSlash(path), Reason: SkipReasonUnparsable})
				return nil
			}
			if !s.opts.Rect.Contains(lat, lon) {
				return nil
			}
		}

		t, err := tile.New(path, s.layout)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTilePath, err)
		}

		if job, queued := s.classify(t, &res); queued {
			res.Jobs = append(res.Jobs, job)
			s.logger.Info("queued", slog.String("tile", t.Path()), slog.String("action", string(job.Action)))
			if hookErr := s.hooks.OnTileQueued(t.Path(), job.Action); hookErr != nil {
				s.logger.Warn("OnTileQueued hook returned an error", slog.String("error", hookErr.Error()))
			}
			if s.opts.Limit > 0 && len(res.Jobs) >= s.opts.Limit {
				s.logger.Info("Job limit reached, stopping scan", slog.Int("limit", s.opts.Limit))
				return filepath.SkipAll
			}
		}
		return nil
	})

	if walkErr != nil {
		if errors.Is(walkErr, ErrInvalidTilePath) || errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return res, walkErr
		}
		return res, fmt.Errorf("%w: %w", ErrScanFailed, walkErr)
	}
	s.logger.Info(fmt.Sprintf("Queued %d files", len(res.Jobs)))
	return res, nil
}

// inPack reports whether dir lies inside a scenery pack. Only the part below
// the scenery root is matched.
func (s *Scanner) inPack(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return s.packRe.MatchString(filepath.ToSlash(rel))
}

// classify decides whether t is queued under the run mode, recording the
// interesting rejections in res.
func (s *Scanner) classify(t *tile.Tile, res *ScanResult) (Job, bool) {
	state := t.Probe()
	converted := state == tile.StateConverted || state == tile.StateConvertedWithBackup
	backup := state == tile.StateConvertedWithBackup || state == tile.StateBackupOnly
	job := Job{Tile: t, Action: s.opts.Mode.Action()}

	skip := func(reason string) (Job, bool) {
		res.Skipped = append(res.Skipped, SkippedInfo{Path: t.Path(), Reason: reason, Details: string(state)})
		return Job{}, false
	}

	switch s.opts.Mode {
	case ModeConvert:
		if !converted {
			return job, true
		}
		return skip(SkipReasonState)
	case ModeRedo:
		if !converted {
			return skip(SkipReasonState)
		}
		if backup {
			return job, true
		}
		s.logger.Warn("Tile has no backup", slog.String("tile", t.Path()))
		return skip(SkipReasonNoBackup)
	case ModeUndo:
		if backup {
			return job, true
		}
		if converted {
			s.logger.Warn("Tile has no backup, can't undo", slog.String("tile", t.Path()))
			return skip(SkipReasonNoBackup)
		}
		return skip(SkipReasonState)
	case ModeCleanup:
		if backup && converted {
			return job, true
		}
		return skip(SkipReasonState)
	}
	return Job{}, false
}
