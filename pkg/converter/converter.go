package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/stackvity/tile-converter/pkg/converter/cache"
	"github.com/stackvity/tile-converter/pkg/util"
)

// Execute is the main entry point for the core conversion library: it
// validates opts, scans for tiles, and runs the queued jobs. Configuration
// problems are returned as errors wrapping ErrConfigValidation before any
// tile is touched; per-tile failures only appear in the Report.
func Execute(ctx context.Context, opts Options) (Report, error) {
	// --- Initial Validation ---
	if opts.Logger == nil {
		return Report{}, fmt.Errorf("%w: Logger implementation cannot be nil", ErrConfigValidation)
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "converter"))

	opts = opts.withDefaults()
	if err := validate(&opts); err != nil {
		logger.Error(err.Error())
		return Report{}, err
	}

	logger.Info("Starting tile-converter library execution",
		slog.String("version", opts.AppVersion),
		slog.String("mode", string(opts.Mode)),
		slog.String("root", opts.Root),
		slog.Bool("dryRun", opts.DryRun),
	)

	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("%w: cannot create work directory '%s': %w", ErrConfigValidation, opts.WorkDir, err)
	}

	startTime := time.Now()
	scanner, err := NewScanner(&opts, opts.Logger)
	if err != nil {
		return Report{}, err
	}
	scan, err := scanner.Scan(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if opts.DryRun {
		report = dryRunReport(&opts, scan, startTime)
		logger.Info("Dry run, nothing executed", slog.Int("queued", len(scan.Jobs)))
	} else {
		operator := opts.Operator
		if operator == nil {
			store := opts.RasterCache
			if store == nil {
				store = cache.NewSideFileCache(opts.WorkDir)
			}
			operator = NewTileProcessor(&opts, opts.ToolRunner, store, opts.Logger)
		}
		engine, err := NewEngine(&opts, operator)
		if err != nil {
			return Report{}, err
		}
		report = engine.Run(ctx, scan.Jobs)
		report.Skipped = scan.Skipped
		report.Summary.SkippedCount = len(scan.Skipped)
	}

	if hookErr := opts.EventHooks.OnRunComplete(report); hookErr != nil {
		logger.Warn("Error reported by OnRunComplete hook", slog.String("hookError", hookErr.Error()))
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// validate checks the option values that Execute depends on.
func validate(opts *Options) error {
	if !opts.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrConfigValidation, opts.Mode)
	}
	if opts.Root == "" {
		return fmt.Errorf("%w: root path cannot be empty", ErrConfigValidation)
	}
	if !util.DirExists(opts.Root) {
		return fmt.Errorf("%w: root directory '%s' does not exist", ErrConfigValidation, opts.Root)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", ErrConfigValidation)
	}
	if opts.Rect == nil && opts.RectSpec != "" {
		r, err := ParseRect(opts.RectSpec)
		if err != nil {
			return err
		}
		opts.Rect = &r
	}
	if !opts.DryRun && opts.Operator == nil && opts.ToolRunner == nil {
		return fmt.Errorf("%w: ToolRunner required when no Operator is provided", ErrConfigValidation)
	}
	return nil
}

func dryRunReport(opts *Options, scan ScanResult, startTime time.Time) Report {
	tiles := make([]TileResult, 0, len(scan.Jobs))
	for _, j := range scan.Jobs {
		tiles = append(tiles, TileResult{Path: j.Tile.Path(), Action: j.Action, Status: StatusPending})
	}
	return Report{
		Summary: ReportSummary{
			Mode:            opts.Mode,
			Root:            opts.Root,
			ConfigFilePath:  opts.ConfigFilePath,
			Queued:          len(scan.Jobs),
			SkippedCount:    len(scan.Skipped),
			Workers:         opts.Workers,
			DryRun:          true,
			DurationSeconds: time.Since(startTime).Seconds(),
			Timestamp:       time.Now().UTC(),
			SchemaVersion:   ReportSchemaVersion,
		},
		Tiles:   tiles,
		Skipped: scan.Skipped,
		Errors:  []ErrorInfo{},
	}
}
