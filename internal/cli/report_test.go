package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/tile-converter/pkg/converter"
)

func sampleReport() converter.Report {
	return converter.Report{
		Summary: converter.ReportSummary{
			Mode:            converter.ModeConvert,
			Root:            "/sim",
			Queued:          3,
			Attempted:       3,
			Succeeded:       2,
			Failed:          1,
			SkippedCount:    1,
			Workers:         2,
			DurationSeconds: 4.3,
			Timestamp:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			SchemaVersion:   converter.ReportSchemaVersion,
		},
		Tiles: []converter.TileResult{
			{Path: "/sim/a.dsf", Action: converter.ActionConvert, Status: converter.StatusSuccess, DurationMs: 10},
			{Path: "/sim/b.dsf", Action: converter.ActionConvert, Status: converter.StatusSuccess, DurationMs: 12, WorkerID: 1},
			{Path: "/sim/c.dsf", Action: converter.ActionConvert, Status: converter.StatusFailed, Error: "no reference tile"},
		},
		Skipped: []converter.SkippedInfo{{Path: "/sim/d.dsf", Reason: converter.SkipReasonState}},
		Errors:  []converter.ErrorInfo{{Path: "/sim/c.dsf", Error: "no reference tile"}},
	}
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(), converter.OutputFormatText))

	out := buf.String()
	assert.Contains(t, out, "Processed:")
	assert.Contains(t, out, "3 of 3 tiles in 4.3 seconds")
	assert.Contains(t, out, "Failures:")
	assert.Contains(t, out, "/sim/c.dsf")
	assert.Contains(t, out, "no reference tile")
	assert.Contains(t, out, "Skipped:")
	assert.NotContains(t, out, "Cancelled:")
}

func TestWriteReport_TextDryRun(t *testing.T) {
	report := converter.Report{
		Summary: converter.ReportSummary{Mode: converter.ModeUndo, Queued: 1, DryRun: true},
		Tiles:   []converter.TileResult{{Path: "/sim/a.dsf", Action: converter.ActionUndo, Status: converter.StatusPending}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report, converter.OutputFormatText))
	assert.Contains(t, buf.String(), "Dry run: 1 tiles would be processed (undo)")
	assert.Contains(t, buf.String(), "/sim/a.dsf")
}

func TestWriteReport_StructuredFormats(t *testing.T) {
	report := sampleReport()

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, converter.OutputFormatJSON))
		var got converter.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, report.Summary.Failed, got.Summary.Failed)
		assert.Len(t, got.Tiles, 3)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, converter.OutputFormatYAML))
		assert.Contains(t, buf.String(), "schemaVersion: \"1.0\"")
		var got map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Contains(t, got, "summary")
	})

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, converter.OutputFormatTOML))
		assert.Contains(t, buf.String(), "[summary]")
		var got map[string]interface{}
		_, err := toml.Decode(buf.String(), &got)
		require.NoError(t, err)
		assert.Contains(t, got, "tiles")
	})
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	err := WriteReport(&bytes.Buffer{}, sampleReport(), converter.OutputFormat("xml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, converter.ErrConfigValidation))
}
