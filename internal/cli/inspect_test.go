package cli

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/tile-converter/pkg/converter/raster"
)

// writeRaw writes a 2x2 grid; samples are listed row 0 (south) first.
func writeRaw(t *testing.T, workDir, cell, channel string, samples ...int16) {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, samples))
	require.NoError(t, os.MkdirAll(workDir, 0o755))
	require.NoError(t, os.WriteFile(raster.RawPath(workDir, cell, channel), buf.Bytes(), 0o644))
}

func TestInspect_PrintsSamples(t *testing.T) {
	work := t.TempDir()
	writeRaw(t, work, "+51+009", raster.ChannelSeaLevel, 0, -5, 0, 0)
	writeRaw(t, work, "+51+009", raster.ChannelElevation, 10, 20, 30, 40)

	var out bytes.Buffer
	// south-east quadrant: row 0, column 1
	require.NoError(t, Inspect(&out, InspectRequest{WorkDir: work, Lat: 51.25, Lon: 9.75}))
	assert.Equal(t, "sea value: -5, elevation value: 20\n", out.String())
}

func TestInspect_MissingRaster(t *testing.T) {
	err := Inspect(&bytes.Buffer{}, InspectRequest{WorkDir: t.TempDir(), Lat: 51.5, Lon: 9.5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestInspect_WritesPNGs(t *testing.T) {
	work := t.TempDir()
	pngDir := filepath.Join(t.TempDir(), "png")
	writeRaw(t, work, "-34-071", raster.ChannelSeaLevel, -1, 0, 0, 0)
	writeRaw(t, work, "-34-071", raster.ChannelElevation, 1, 2, 3, 4)

	var out bytes.Buffer
	require.NoError(t, Inspect(&out, InspectRequest{WorkDir: work, Lat: -33.5, Lon: -70.5, PNGDir: pngDir}))
	assert.Contains(t, out.String(), "created ")

	for _, ch := range []string{raster.ChannelSeaLevel, raster.ChannelElevation} {
		f, err := os.Open(filepath.Join(pngDir, "-34-071.txt-ref."+ch+".raw.png"))
		require.NoError(t, err)
		img, err := png.Decode(f)
		_ = f.Close()
		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())
	}
}
