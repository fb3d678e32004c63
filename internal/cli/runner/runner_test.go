package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stackvity/tile-converter/pkg/converter/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

// createScript writes an executable shell script into a temp dir.
func createScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping shell script test on Windows")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	content := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func newTestRunner() (*ExecRunner, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	h := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewExecRunner(h), buf
}

// --- Tests ---

func TestExecRunner_Success(t *testing.T) {
	script := createScript(t, `echo "converted $1 -> $2"`)
	r, logs := newTestRunner()

	res, err := r.Run(context.Background(), script, "in.dsf", "out.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "converted in.dsf -> out.txt")
	assert.Contains(t, logs.String(), "Tool finished")
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	script := createScript(t, `echo "bad input" >&2; exit 3`)
	r, logs := newTestRunner()

	res, err := r.Run(context.Background(), script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tool.ErrNonZeroExit))
	assert.True(t, errors.Is(err, tool.ErrToolExecution))
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "bad input", "stderr should be captured")
	assert.Contains(t, logs.String(), "Tool exited non-zero")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r, _ := newTestRunner()

	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tool.ErrToolNotFound), "got %v", err)
}

func TestExecRunner_Cancelled(t *testing.T) {
	script := createScript(t, `exec sleep 5`)
	r, _ := newTestRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tool.ErrToolCancelled), "got %v", err)
}

func TestLimitedBuffer_Truncates(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n, "writes report full length so the child is not stalled")
	assert.Equal(t, "abcd", b.String())
	assert.True(t, b.truncated)

	_, _ = b.Write([]byte("gh"))
	assert.Equal(t, "abcd", b.String())
}

func TestClip(t *testing.T) {
	short := "short output"
	assert.Equal(t, short, clip(short))

	long := strings.Repeat("x", maxLogOutputBytes+10)
	clipped := clip(long)
	assert.True(t, strings.HasSuffix(clipped, "... (truncated)"))
	assert.Len(t, clipped, maxLogOutputBytes+len("... (truncated)"))
}

func TestLookPath(t *testing.T) {
	_, err := LookPath("definitely-not-a-real-tool-xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tool.ErrToolNotFound))
}
