// Package tile derives the identity of a terrain tile from its path and probes
// its conversion state from the companion files on disk.
package tile

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/stackvity/tile-converter/pkg/util"
)

const (
	// DefaultDataDirMarker is the directory that anchors a tile inside a scenery pack.
	DefaultDataDirMarker = "Earth nav data"
	// DefaultToolName names the backup and marker companions.
	DefaultToolName = "tile_converter"
)

// ErrInvalidPath indicates a tile path that lacks the data-directory segment.
var ErrInvalidPath = errors.New("invalid tile path")

// State is the conversion state of a tile, computed from file presence.
type State string

const (
	StateUnconverted         State = "unconverted"
	StateConverted           State = "converted"
	StateConvertedWithBackup State = "converted_with_backup"
	// StateBackupOnly is a backup without a marker: an interrupted convert.
	StateBackupOnly State = "backup_only"
)

// Layout controls how companion files are named.
type Layout struct {
	DataDirMarker string
	ToolName      string
}

// DefaultLayout returns the layout used when nothing is configured.
func DefaultLayout() Layout {
	return Layout{DataDirMarker: DefaultDataDirMarker, ToolName: DefaultToolName}
}

// Tile is an immutable view of one tile file and its companions.
type Tile struct {
	path    string
	base    string
	relData string
	layout  Layout
}

// New validates p and derives the tile's companion paths. The path is
// normalized to forward slashes.
func New(p string, layout Layout) (*Tile, error) {
	if layout.DataDirMarker == "" {
		layout.DataDirMarker = DefaultDataDirMarker
	}
	if layout.ToolName == "" {
		layout.ToolName = DefaultToolName
	}

	norm := filepath.ToSlash(p)
	seg := "/" + layout.DataDirMarker + "/"
	idx := strings.Index(norm, seg)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q does not contain %q", ErrInvalidPath, p, seg)
	}

	name := path.Base(norm)
	return &Tile{
		path:    norm,
		base:    strings.TrimSuffix(name, path.Ext(name)),
		relData: norm[idx:],
		layout:  layout,
	}, nil
}

// Path returns the normalized tile path.
func (t *Tile) Path() string { return t.path }

// Base returns the file name without extension, i.e. the cell name.
func (t *Tile) Base() string { return t.base }

// RelData returns the path suffix starting at the data-directory segment.
func (t *Tile) RelData() string { return t.relData }

// Backup returns the path of the pristine copy.
func (t *Tile) Backup() string { return t.path + "-pre_" + t.layout.ToolName }

// Marker returns the path of the conversion-complete marker.
func (t *Tile) Marker() string { return t.path + "-" + t.layout.ToolName + "_done" }

// NewStage returns the path of the freshly encoded, uncompressed tile.
func (t *Tile) NewStage() string { return t.path + "-new-1" }

// NewArchive returns the path of the compressed replacement tile.
func (t *Tile) NewArchive() string { return t.path + "-new" }

// String implements fmt.Stringer.
func (t *Tile) String() string { return t.path }

// IsConverted reports whether the marker exists.
func (t *Tile) IsConverted() bool { return util.FileExists(t.Marker()) }

// HasBackup reports whether the backup exists.
func (t *Tile) HasBackup() bool { return util.FileExists(t.Backup()) }

// Probe inspects the filesystem. The result is never cached.
func (t *Tile) Probe() State {
	converted, backup := t.IsConverted(), t.HasBackup()
	switch {
	case converted && backup:
		return StateConvertedWithBackup
	case converted:
		return StateConverted
	case backup:
		return StateBackupOnly
	default:
		return StateUnconverted
	}
}
