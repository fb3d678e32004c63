package converter

// Mode selects what a run does to the tiles it finds.
type Mode string

// Run modes. They are mutually exclusive.
const (
	ModeConvert Mode = "convert"
	ModeRedo    Mode = "redo"
	ModeUndo    Mode = "undo"
	ModeCleanup Mode = "cleanup"
)

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeConvert, ModeRedo, ModeUndo, ModeCleanup:
		return true
	}
	return false
}

// Action returns the tile operation a job queued under m performs.
// Redo re-runs the conversion from the pristine backup.
func (m Mode) Action() Action {
	switch m {
	case ModeUndo:
		return ActionUndo
	case ModeCleanup:
		return ActionCleanup
	default:
		return ActionConvert
	}
}

// Action is the operation applied to a single tile.
type Action string

const (
	ActionConvert Action = "convert"
	ActionUndo    Action = "undo"
	ActionCleanup Action = "cleanup"
)

// Status defines the processing state of a tile job.
type Status string

// Constants representing the defined tile job statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// OutputFormat defines the format for the final summary report printed to standard output when TUI is disabled.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatTOML OutputFormat = "toml"
)
