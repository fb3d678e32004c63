package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stretchr/testify/require"
)

// CreateDummyFile creates a dummy file with specified content at the given path,
// ensuring parent directories exist. It uses require assertions for test setup.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	dir := filepath.Dir(fullPath)
	err := os.MkdirAll(dir, 0755)
	require.NoError(t, err, "Failed to create directory %s for dummy file", dir)
	err = os.WriteFile(fullPath, []byte(content), 0644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	err := os.MkdirAll(filepath.Clean(path), 0755)
	require.NoError(t, err, "Failed to create dummy directory %s", path)
}

// ReadFile returns the content of path as a string, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read %s", path)
	return string(b)
}

// DiscardHandler returns a slog.Handler that drops every record.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

// --- Simulator tree fixtures ---

// OverlayTile is the text content used for an unconverted overlay tile.
const OverlayTile = "PROPERTY sim/west 9\nPATCH_VERTEX 9.0 51.0 100\n"

// ReferenceTile is the text content used for a reference tile.
const ReferenceTile = "PROPERTY sim/west 9\nRASTER_DEF elevation\nRASTER_DEF spr1\nRASTER_DEF bathymetry\nPATCH_VERTEX 9.0 51.0 0\n"

// SimRoot lays out a simulator root under a temp dir.
type SimRoot struct {
	Root string
	Work string
}

// NewSimRoot creates an empty simulator root with a scenery directory.
func NewSimRoot(t *testing.T) *SimRoot {
	t.Helper()
	root := t.TempDir()
	CreateDummyDir(t, filepath.Join(root, "Custom Scenery"))
	return &SimRoot{Root: root, Work: filepath.Join(root, "work")}
}

// AddOverlay writes an overlay tile for cell into pack and returns its path.
func (s *SimRoot) AddOverlay(t *testing.T, pack, cell string) string {
	t.Helper()
	p := filepath.Join(s.Root, "Custom Scenery", pack, "Earth nav data", BucketDir(cell), cell+".dsf")
	CreateDummyFile(t, p, OverlayTile)
	return p
}

// AddReference writes a reference tile for cell under dir (relative to Root).
func (s *SimRoot) AddReference(t *testing.T, dir, cell, content string) string {
	t.Helper()
	p := filepath.Join(s.Root, dir, "Earth nav data", BucketDir(cell), cell+".dsf")
	CreateDummyFile(t, p, content)
	return p
}

// BucketDir returns the ten-degree directory a cell lives in, e.g. +50+000 for +51+009.
func BucketDir(cell string) string {
	var lat, lon int
	_, _ = fmt.Sscanf(cell, "%3d%4d", &lat, &lon)
	floor10 := func(v int) int {
		if v < 0 && v%10 != 0 {
			return v - 10 - v%10
		}
		return v - v%10
	}
	return fmt.Sprintf("%+03d%+04d", floor10(lat), floor10(lon))
}

// --- Fake external tools ---

// FakeTools is a tool.Runner that stands in for the codec and the archiver.
// Tiles in tests are plain text, so decode, encode and archive all copy the
// input file to the output file.
type FakeTools struct {
	Codec    string
	Archiver string
	// Fail, when set, is consulted before every call; a non-nil return fails it.
	Fail func(name string, args []string) error
	// RawChannels, when set, makes decode write a "<dst>.<channel>.raw"
	// side-file per channel for sources that carry raster definitions, as
	// the real codec does.
	RawChannels []string

	mu    sync.Mutex
	calls [][]string
}

// NewFakeTools returns fakes answering to the default tool names.
func NewFakeTools() *FakeTools {
	return &FakeTools{Codec: "DSFTool", Archiver: "7z"}
}

// Run implements tool.Runner.
func (f *FakeTools) Run(ctx context.Context, name string, args ...string) (tool.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return tool.Result{ExitCode: -1}, tool.Errorf(tool.ErrToolCancelled, "%s: %v", name, err)
	}
	if f.Fail != nil {
		if err := f.Fail(name, args); err != nil {
			return tool.Result{ExitCode: 1, Output: err.Error()}, tool.Errorf(tool.ErrNonZeroExit, "%s: %v", name, err)
		}
	}
	if name != f.Codec && name != f.Archiver {
		return tool.Result{ExitCode: -1}, tool.Errorf(tool.ErrToolNotFound, "%s", name)
	}
	if len(args) < 2 {
		return tool.Result{ExitCode: 2}, tool.Errorf(tool.ErrNonZeroExit, "%s: missing arguments", name)
	}
	src, dst := args[len(args)-1], args[len(args)-2]
	if name == f.Codec {
		src, dst = args[len(args)-2], args[len(args)-1]
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return tool.Result{ExitCode: 1, Output: err.Error()}, tool.Errorf(tool.ErrNonZeroExit, "%s: %v", name, err)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return tool.Result{ExitCode: 1, Output: err.Error()}, tool.Errorf(tool.ErrNonZeroExit, "%s: %v", name, err)
	}
	if name == f.Codec && strings.Contains(filepath.Base(dst), ".txt") && strings.Contains(string(b), "RASTER_DEF") {
		for _, ch := range f.RawChannels {
			if err := os.WriteFile(dst+"."+ch+".raw", []byte{0, 0}, 0o644); err != nil {
				return tool.Result{ExitCode: 1, Output: err.Error()}, tool.Errorf(tool.ErrNonZeroExit, "%s: %v", name, err)
			}
		}
	}
	return tool.Result{}, nil
}

// Calls returns a copy of every recorded invocation, name first.
func (f *FakeTools) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CountCalls counts invocations whose joined command line contains substr.
func (f *FakeTools) CountCalls(substr string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.Contains(strings.Join(c, " "), substr) {
			n++
		}
	}
	return n
}
