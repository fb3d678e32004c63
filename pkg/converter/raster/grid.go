package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Channels that the inspection command reads.
const (
	ChannelSeaLevel  = "sea_level"
	ChannelElevation = "elevation"
)

// ErrBadGrid indicates a raw raster whose size is not a square of int16 samples.
var ErrBadGrid = errors.New("raw raster is not a square int16 grid")

// Grid is a square raster of signed 16-bit little-endian samples, row 0 south.
type Grid struct {
	Side int
	data []int16
}

// Cell splits a coordinate into its one-degree cell corner and the fraction within it.
func Cell(lat, lon float64) (latC, lonC int, latFrac, lonFrac float64) {
	fl, fo := math.Floor(lat), math.Floor(lon)
	return int(fl), int(fo), lat - fl, lon - fo
}

// CellName formats a cell corner the way tiles are named, e.g. +51+009.
func CellName(latC, lonC int) string {
	return fmt.Sprintf("%+03d%+04d", latC, lonC)
}

// RawPath returns the side-file the codec writes for channel when exporting
// the reference tile of cell.
func RawPath(workDir, cell, channel string) string {
	return filepath.Join(workDir, cell+ReferenceTextExt+"."+channel+".raw")
}

// ReferenceTextExt is appended to the cell name for the reference tile's text export.
const ReferenceTextExt = ".txt-ref"

// LoadGrid reads a raw raster file.
func LoadGrid(path string) (*Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseGrid(raw)
}

// ParseGrid decodes raw little-endian samples; the side length is inferred.
func ParseGrid(raw []byte) (*Grid, error) {
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadGrid, len(raw))
	}
	n := len(raw) / 2
	side := int(math.Sqrt(float64(n)))
	for side*side < n {
		side++
	}
	if side*side != n {
		return nil, fmt.Errorf("%w: %d samples", ErrBadGrid, n)
	}
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return &Grid{Side: side, data: data}, nil
}

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) int16 { return g.data[y*g.Side+x] }

// ValueAt returns the sample at a fractional position within the cell.
// Both fractions must be in [0, 1).
func (g *Grid) ValueAt(latFrac, lonFrac float64) (int16, error) {
	if latFrac < 0 || latFrac >= 1 || lonFrac < 0 || lonFrac >= 1 {
		return 0, fmt.Errorf("fraction out of range: lat %v lon %v", latFrac, lonFrac)
	}
	return g.At(int(lonFrac*float64(g.Side)), int(latFrac*float64(g.Side))), nil
}

// MinMax returns the smallest and largest sample.
func (g *Grid) MinMax() (lo, hi int16) {
	lo, hi = math.MaxInt16, math.MinInt16
	for _, v := range g.data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Image renders positive samples red scaled by the maximum and negative
// samples blue scaled by the minimum, north up.
func (g *Grid) Image() *image.RGBA {
	lo, hi := g.MinMax()
	img := image.NewRGBA(image.Rect(0, 0, g.Side, g.Side))
	for y := 0; y < g.Side; y++ {
		for x := 0; x < g.Side; x++ {
			v := g.At(x, y)
			var r, b uint8
			if v < 0 {
				b = uint8(255 * float64(v) / float64(lo))
			}
			if v > 0 {
				r = uint8(255 * float64(v) / float64(hi))
			}
			img.SetRGBA(x, g.Side-1-y, color.RGBA{R: r, B: b, A: 255})
		}
	}
	return img
}

// WritePNG encodes Image as PNG.
func (g *Grid) WritePNG(w io.Writer) error {
	return png.Encode(w, g.Image())
}
