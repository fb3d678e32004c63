package converter

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/stackvity/tile-converter/pkg/converter/cache"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
	"github.com/stackvity/tile-converter/pkg/converter/tile"
	"github.com/stackvity/tile-converter/pkg/converter/tool"
)

// ToolsConfig locates the external codec and archiver.
type ToolsConfig struct {
	Codec        string   `mapstructure:"codec"`
	DecodeFlag   string   `mapstructure:"decodeFlag"`
	EncodeFlag   string   `mapstructure:"encodeFlag"`
	Archiver     string   `mapstructure:"archiver"`
	ArchiverArgs []string `mapstructure:"archiverArgs"`
}

// Hooks defines callbacks for status updates during a run.
// Implementations MUST be thread-safe as methods may be called concurrently.
type Hooks interface {
	OnTileQueued(path string, action Action) error
	OnTileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnTileQueued implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnTileQueued(path string, action Action) error { return nil }

// OnTileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnTileStatusUpdate(path string, status Status, message string, duration time.Duration) error { // minimal comment
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// Operator performs the per-tile state transitions. TileProcessor is the
// default; tests inject their own.
type Operator interface {
	Convert(ctx context.Context, t *tile.Tile) error
	Undo(ctx context.Context, t *tile.Tile) error
	Cleanup(ctx context.Context, t *tile.Tile) error
}

// Options holds all configuration for an Execute run. It is built once and
// passed by value; nothing mutates it after validation.
type Options struct {
	// --- Core Paths ---
	Root          string   `mapstructure:"root"`          // Required: simulator root directory
	SceneryDir    string   `mapstructure:"sceneryDir"`    // Relative to Root; holds the scenery packs
	WorkDir       string   `mapstructure:"workDir"`       // Raster cache and temporary text exports
	ReferenceDirs []string `mapstructure:"referenceDirs"` // Relative to Root; searched in order for the reference tile

	// --- Tile Discovery ---
	PackPattern   string `mapstructure:"packPattern"`   // Regexp searched in pack directory paths
	TileExt       string `mapstructure:"tileExt"`       // Extension of terrain tiles
	DataDirMarker string `mapstructure:"dataDirMarker"` // Segment every tile path must contain
	Subset        string `mapstructure:"subset"`        // Optional substring filter on the full path
	RectSpec      string `mapstructure:"rect"`          // Optional "lat1lon1,lat2lon2" cell rectangle
	Rect          *Rect  `mapstructure:"-"`             // Parsed from RectSpec
	Limit         int    `mapstructure:"limit"`         // Cap on queued jobs (0=unlimited)

	// --- Behavior & Control ---
	Mode             Mode          `mapstructure:"-"`                // Set by the subcommand
	DryRun           bool          `mapstructure:"dryRun"`           // Scan and classify only
	Workers          int           `mapstructure:"workers"`          // Number of workers (0=auto)
	ProgressInterval time.Duration `mapstructure:"progressInterval"` // Minimum spacing of progress log lines
	ToolName         string        `mapstructure:"toolName"`         // Names the backup and marker companions
	RasterAllowList  []string      `mapstructure:"rasterAllowList"`  // Raster channels carried over
	Tools            ToolsConfig   `mapstructure:"tools"`

	// --- Presentation (CLI only) ---
	Verbose        bool         `mapstructure:"verbose"`
	TuiEnabled     bool         `mapstructure:"tuiEnabled"`
	OutputFormat   OutputFormat `mapstructure:"outputFormat"`
	LogFile        string       `mapstructure:"logFile"`
	ConfigFilePath string       `mapstructure:"-"`
	AppVersion     string       `mapstructure:"-"`

	// --- Injected Dependencies ---
	EventHooks  Hooks        `mapstructure:"-"` // Optional: defaults to NoOpHooks
	Logger      slog.Handler `mapstructure:"-"` // Required: Logging backend
	ToolRunner  tool.Runner  `mapstructure:"-"` // Required unless Operator is set or DryRun
	Operator    Operator     `mapstructure:"-"` // Optional: replaces the default TileProcessor
	RasterCache cache.Store  `mapstructure:"-"` // Optional: defaults to a side-file cache in WorkDir
}

// withDefaults fills zero-valued fields. The receiver is a copy.
func (o Options) withDefaults() Options {
	if o.SceneryDir == "" {
		o.SceneryDir = DefaultSceneryDir
	}
	if o.WorkDir == "" {
		o.WorkDir = DefaultWorkDir
	}
	if len(o.ReferenceDirs) == 0 {
		o.ReferenceDirs = append([]string(nil), DefaultReferenceDirs...)
	}
	if o.PackPattern == "" {
		o.PackPattern = DefaultPackPattern
	}
	if o.TileExt == "" {
		o.TileExt = DefaultTileExt
	}
	if o.DataDirMarker == "" {
		o.DataDirMarker = DefaultDataDirMarker
	}
	if o.ToolName == "" {
		o.ToolName = DefaultToolName
	}
	if o.RasterAllowList == nil {
		o.RasterAllowList = append([]string(nil), raster.DefaultAllowList...)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Tools.Codec == "" {
		o.Tools.Codec = DefaultCodecPath
	}
	if o.Tools.DecodeFlag == "" {
		o.Tools.DecodeFlag = DefaultDecodeFlag
	}
	if o.Tools.EncodeFlag == "" {
		o.Tools.EncodeFlag = DefaultEncodeFlag
	}
	if o.Tools.Archiver == "" {
		o.Tools.Archiver = DefaultArchiverPath
	}
	if len(o.Tools.ArchiverArgs) == 0 {
		o.Tools.ArchiverArgs = append([]string(nil), DefaultArchiverArgs...)
	}
	if o.EventHooks == nil {
		o.EventHooks = &NoOpHooks{}
	}
	return o
}

// TileLayout returns the naming layout tiles are created with.
func (o Options) TileLayout() tile.Layout {
	return tile.Layout{DataDirMarker: o.DataDirMarker, ToolName: o.ToolName}
}
