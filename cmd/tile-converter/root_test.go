package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/tile-converter/internal/testutil"
	"github.com/stackvity/tile-converter/pkg/converter"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
)

// executeCommand is a helper function to execute cobra command and capture output
func executeCommand(root *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

func TestRootCmdHelp(t *testing.T) {
	stdout, stderr, err := executeCommand(newRootCmd(), "--help")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	for _, sub := range []string{"convert", "redo", "undo", "cleanup", "inspect"} {
		assert.Contains(t, stdout, sub, "help should list the %s subcommand", sub)
	}
}

func TestModeCmdHelp_AllFlagsPresent(t *testing.T) {
	root := newRootCmd()
	stdout, _, err := executeCommand(root, "convert", "--help")
	require.NoError(t, err)

	convert, _, err := root.Find([]string{"convert"})
	require.NoError(t, err)
	convert.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name, "help output should contain flag --%s", f.Name)
	})
	root.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name, "help output should contain persistent flag --%s", f.Name)
		if f.Shorthand != "" {
			assert.Contains(t, stdout, "-"+f.Shorthand+",")
		}
	})
}

func TestRootCmdVersion(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	version = "test-1.2.3"
	commit = "testcommit123"
	date = "2024-01-01T10:00:00Z"
	defer func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	}()

	stdout, _, err := executeCommand(newRootCmd(), "--version")
	require.NoError(t, err)
	assert.Equal(t, "tile-converter version test-1.2.3 (commit: testcommit123, built: 2024-01-01T10:00:00Z)\n", stdout)
}

func TestModeCmd_RejectsArgs(t *testing.T) {
	_, _, err := executeCommand(newRootCmd(), "undo", "extra")
	require.Error(t, err)
}

func TestModeCmd_MissingRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, _, err := executeCommand(newRootCmd(), "convert", "--log-file", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, converter.ErrConfigValidation)
}

func TestModeCmd_DryRunJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	sim := testutil.NewSimRoot(t)
	tile := sim.AddOverlay(t, "zOrtho4XP_+51+009", "+51+009")
	logFile := filepath.Join(t.TempDir(), "run.log")

	stdout, _, err := executeCommand(newRootCmd(), "convert",
		"--root", sim.Root,
		"--work-dir", sim.Work,
		"--log-file", logFile,
		"--dry-run",
		"--no-tui",
		"--output-format", "json",
	)
	require.NoError(t, err)

	var report converter.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.Summary.DryRun)
	require.Len(t, report.Tiles, 1)
	assert.Equal(t, tile, report.Tiles[0].Path)
	assert.Contains(t, testutil.ReadFile(t, logFile), "Version: ")
}

func TestInspectCmd(t *testing.T) {
	work := t.TempDir()
	samples := &bytes.Buffer{}
	require.NoError(t, binary.Write(samples, binary.LittleEndian, []int16{0, -5, 0, 0}))
	for _, ch := range []string{raster.ChannelSeaLevel, raster.ChannelElevation} {
		require.NoError(t, os.WriteFile(raster.RawPath(work, "+51+009", ch), samples.Bytes(), 0o644))
	}

	stdout, _, err := executeCommand(newRootCmd(), "inspect", "--work-dir", work, "51.25", "9.75")
	require.NoError(t, err)
	assert.Equal(t, "sea value: -5, elevation value: -5\n", stdout)

	_, _, err = executeCommand(newRootCmd(), "inspect", "--work-dir", work, "north", "9.75")
	require.Error(t, err)
}
