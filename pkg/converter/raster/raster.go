// Package raster locates raster directives in the codec's text export of a
// tile and merges a filtered set of them into another export. Nothing beyond
// the line prefixes is parsed.
package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// DirectivePrefix starts every raster directive line.
	DirectivePrefix = "RASTER_"
	// MeshVertexMarker starts a mesh vertex line; a tile without one has no mesh.
	MeshVertexMarker = "PATCH_VERTEX"
)

// DefaultAllowList names the raster channels carried over from the reference tile.
var DefaultAllowList = []string{"spr", "sum", "win", "fal", "soundscape", "elevation", "sea_level"}

var (
	// ErrTargetHasRaster indicates the tile already carries raster directives.
	ErrTargetHasRaster = errors.New("tile already contains raster data")
	// ErrNoMeshVertex indicates the tile export has no mesh vertex lines.
	ErrNoMeshVertex = errors.New("tile contains no mesh vertices")
)

// readLines calls fn for every line of r, newline included. A final line
// without a terminator gets one appended. fn returning false stops the scan.
func readLines(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if !fn(line) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ScanDirectives returns every line of r that starts with DirectivePrefix, verbatim.
func ScanDirectives(r io.Reader) ([]string, error) {
	var out []string
	err := readLines(r, func(line string) bool {
		if strings.HasPrefix(line, DirectivePrefix) {
			out = append(out, line)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan raster directives: %w", err)
	}
	return out, nil
}

// CheckTarget is the guard run on a tile's own export before merging.
func CheckTarget(textPath string) error {
	f, err := os.Open(textPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", textPath, err)
	}
	defer f.Close()

	hasVertex := false
	hasRaster := false
	err = readLines(f, func(line string) bool {
		if strings.HasPrefix(line, DirectivePrefix) {
			hasRaster = true
			return false
		}
		if strings.HasPrefix(line, MeshVertexMarker) {
			hasVertex = true
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", textPath, err)
	}
	if hasRaster {
		return ErrTargetHasRaster
	}
	if !hasVertex {
		return ErrNoMeshVertex
	}
	return nil
}

// Filter keeps the lines whose text after the prefix contains one of the
// allow-list substrings. Order is preserved.
func Filter(lines []string, allow []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		rest := strings.TrimPrefix(l, DirectivePrefix)
		for _, a := range allow {
			if a != "" && strings.Contains(rest, a) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// AppendFiltered appends the allowed lines to the export at textPath and
// returns how many were written.
func AppendFiltered(textPath string, lines []string, allow []string) (int, error) {
	kept := Filter(lines, allow)
	f, err := os.OpenFile(textPath, os.O_APPEND|os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s for append: %w", textPath, err)
	}
	w := bufio.NewWriter(f)
	if len(kept) > 0 {
		unterminated, err := endsUnterminated(f)
		if err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("read %s: %w", textPath, err)
		}
		if unterminated {
			_ = w.WriteByte('\n')
		}
	}
	for _, l := range kept {
		if _, err := w.WriteString(l); err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("append to %s: %w", textPath, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("flush %s: %w", textPath, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", textPath, err)
	}
	return len(kept), nil
}

// endsUnterminated reports whether f is non-empty and its last byte is not a
// newline, matching the line readLines completes on its own.
func endsUnterminated(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
