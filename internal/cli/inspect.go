package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/stackvity/tile-converter/pkg/converter/raster"
)

// InspectRequest names a coordinate whose cached reference rasters are read.
type InspectRequest struct {
	WorkDir string
	Lat     float64
	Lon     float64
	// PNGDir, when set, receives a rendering of each channel instead of the sample values.
	PNGDir string
}

// Inspect prints the sea level and elevation samples at a coordinate, read
// from the raw raster files the reference export left in the work directory.
func Inspect(w io.Writer, req InspectRequest) error {
	latC, lonC, latFrac, lonFrac := raster.Cell(req.Lat, req.Lon)
	cell := raster.CellName(latC, lonC)

	channels := []string{raster.ChannelSeaLevel, raster.ChannelElevation}
	grids := make(map[string]*raster.Grid, len(channels))
	for _, ch := range channels {
		g, err := raster.LoadGrid(raster.RawPath(req.WorkDir, cell, ch))
		if err != nil {
			return fmt.Errorf("cell %s: %w", cell, err)
		}
		grids[ch] = g
	}

	if req.PNGDir != "" {
		if err := os.MkdirAll(req.PNGDir, 0o755); err != nil {
			return err
		}
		for _, ch := range channels {
			name := filepath.Join(req.PNGDir, filepath.Base(raster.RawPath(req.WorkDir, cell, ch))+".png")
			if err := writePNG(name, grids[ch]); err != nil {
				return err
			}
			fmt.Fprintf(w, "created %s\n", name)
		}
		return nil
	}

	sea, err := grids[raster.ChannelSeaLevel].ValueAt(latFrac, lonFrac)
	if err != nil {
		return err
	}
	elevation, err := grids[raster.ChannelElevation].ValueAt(latFrac, lonFrac)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "sea value: %d, elevation value: %d\n", sea, elevation)
	return err
}

func writePNG(name string, g *raster.Grid) error {
	r, w := io.Pipe()
	go func() { w.CloseWithError(g.WritePNG(w)) }()
	if err := atomic.WriteFile(name, r); err != nil {
		_ = r.CloseWithError(err)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
