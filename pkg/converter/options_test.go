package converter_test

import (
	"runtime"
	"testing"

	"github.com/stackvity/tile-converter/pkg/converter"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
	"github.com/stretchr/testify/assert"
)

func TestWithDefaults_FillsZeroValues(t *testing.T) {
	o := converter.WithDefaults(converter.Options{Root: "/sim"})

	assert.Equal(t, converter.DefaultSceneryDir, o.SceneryDir)
	assert.Equal(t, converter.DefaultWorkDir, o.WorkDir)
	assert.Equal(t, converter.DefaultPackPattern, o.PackPattern)
	assert.Equal(t, converter.DefaultTileExt, o.TileExt)
	assert.Equal(t, raster.DefaultAllowList, o.RasterAllowList)
	assert.Equal(t, runtime.NumCPU(), o.Workers)
	assert.Equal(t, converter.DefaultCodecPath, o.Tools.Codec)
	assert.Equal(t, converter.DefaultArchiverArgs, o.Tools.ArchiverArgs)
	assert.IsType(t, &converter.NoOpHooks{}, o.EventHooks)
}

func TestWithDefaults_KeepsExplicitValues(t *testing.T) {
	in := converter.Options{
		Workers:         3,
		ToolName:        "o4xp_2_xp12",
		RasterAllowList: []string{},
		Tools:           converter.ToolsConfig{Codec: "/opt/DSFTool", ArchiverArgs: []string{"a"}},
	}
	o := converter.WithDefaults(in)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, "o4xp_2_xp12", o.ToolName)
	assert.Empty(t, o.RasterAllowList, "an explicitly empty allow-list stays empty")
	assert.Equal(t, "/opt/DSFTool", o.Tools.Codec)
	assert.Equal(t, []string{"a"}, o.Tools.ArchiverArgs)

	layout := o.TileLayout()
	assert.Equal(t, "o4xp_2_xp12", layout.ToolName)
	assert.Equal(t, converter.DefaultDataDirMarker, layout.DataDirMarker)
}

func TestNoOpHooks(t *testing.T) {
	h := &converter.NoOpHooks{}
	assert.NoError(t, h.OnTileQueued("a", converter.ActionConvert))
	assert.NoError(t, h.OnTileStatusUpdate("a", converter.StatusSuccess, "", 0))
	assert.NoError(t, h.OnRunComplete(converter.Report{}))
}
