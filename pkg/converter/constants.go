package converter

import (
	"time"

	"github.com/stackvity/tile-converter/pkg/converter/tile"
)

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultWorkers determines the default number of workers. 0 means runtime.NumCPU().
	DefaultWorkers = 0
	// DefaultSceneryDir is the directory under the root that holds scenery packs.
	DefaultSceneryDir = "Custom Scenery"
	// DefaultPackPattern matches the scenery pack directories whose tiles are converted.
	DefaultPackPattern = `zOrtho4XP_.*|z_autoortho.scenery.z_ao_[a-z]+`
	// DefaultTileExt is the extension of terrain tiles.
	DefaultTileExt = ".dsf"
	// DefaultWorkDir holds the raster cache and temporary text exports.
	DefaultWorkDir = "work"
	// DefaultDataDirMarker anchors a tile inside its pack.
	DefaultDataDirMarker = tile.DefaultDataDirMarker
	// DefaultToolName names the backup and marker companions.
	DefaultToolName = tile.DefaultToolName
	// DefaultCodecPath is the tile codec binary.
	DefaultCodecPath = "DSFTool"
	// DefaultDecodeFlag selects binary to text.
	DefaultDecodeFlag = "-dsf2text"
	// DefaultEncodeFlag selects text to binary.
	DefaultEncodeFlag = "-text2dsf"
	// DefaultArchiverPath is the compressor binary.
	DefaultArchiverPath = "7z"
	// DefaultProgressInterval throttles progress log lines.
	DefaultProgressInterval = 20 * time.Second
	// DefaultLogFile receives a copy of every log record; truncated per run.
	DefaultLogFile = "tile-converter.log"
	// DefaultTuiEnabled is the default state for the Terminal UI.
	DefaultTuiEnabled = true
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// DefaultDryRun is the default state for dry-run mode.
	DefaultDryRun = false
)

// DefaultArchiverArgs precede the archive and input paths on the archiver command line.
var DefaultArchiverArgs = []string{"a", "-t7z", "-m0=lzma"}

// DefaultReferenceDirs are searched under the root for the reference tile of
// a cell; the first one holding the tile wins.
var DefaultReferenceDirs = []string{
	"Global Scenery/X-Plane 12 Demo Areas",
	"Global Scenery/X-Plane 12 Global Scenery",
}

// Constants related to report schema.
const (
	// ReportSchemaVersion indicates the version of the report structure.
	ReportSchemaVersion = "1.0"
)

// Constants defining skip reasons used in the Report.
const (
	SkipReasonState      = "state_not_eligible"
	SkipReasonNoBackup   = "no_backup"
	SkipReasonUnparsable = "unparsable_name"
)
