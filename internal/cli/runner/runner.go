package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stackvity/tile-converter/pkg/converter/tool"
)

const (
	// maxLogOutputBytes limits the size of tool output included in log records.
	maxLogOutputBytes = 2048
	// maxCaptureBytes caps captured output to keep a chatty codec from exhausting memory.
	maxCaptureBytes = 4 * 1024 * 1024
	// waitDelay bounds how long Wait blocks on inherited pipes after the tool is killed.
	waitDelay = 2 * time.Second
)

// ExecRunner implements tool.Runner using os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner that executes tools as external processes.
func NewExecRunner(loggerHandler slog.Handler) *ExecRunner {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "toolRunner"))
	return &ExecRunner{logger: logger}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (tool.Result, error) {
	logArgs := []any{
		slog.String("tool", name),
		slog.String("args", strings.Join(args, " ")),
	}

	cmd := exec.CommandContext(ctx, name, args...)
	out := &limitedBuffer{limit: maxCaptureBytes}
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	res := tool.Result{ExitCode: 0, Output: out.String(), Duration: time.Since(start)}
	if out.truncated {
		r.logger.Warn("Tool output truncated", append(logArgs, slog.Int("limit_bytes", maxCaptureBytes))...)
	}

	if runErr == nil {
		r.logger.Debug("Tool finished", append(logArgs, slog.Duration("duration", res.Duration), slog.String("output", clip(res.Output)))...)
		return res, nil
	}

	if ctx.Err() != nil {
		res.ExitCode = -1
		r.logger.Error("Tool cancelled", append(logArgs, slog.Any("error", ctx.Err()))...)
		return res, tool.Errorf(tool.ErrToolCancelled, "%s: %v", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		r.logger.Error("Tool exited non-zero",
			append(logArgs, slog.Int("exitCode", res.ExitCode), slog.String("output", clip(res.Output)))...)
		return res, tool.Errorf(tool.ErrNonZeroExit, "%s exited with code %d: %s", name, res.ExitCode, clip(strings.TrimSpace(res.Output)))
	}

	res.ExitCode = -1
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, exec.ErrDot) || errors.Is(runErr, fs.ErrNotExist) {
		r.logger.Error("Tool not found", append(logArgs, slog.Any("error", runErr))...)
		return res, tool.Errorf(tool.ErrToolNotFound, "%s: %v", name, runErr)
	}
	r.logger.Error("Tool failed to run", append(logArgs, slog.Any("error", runErr))...)
	return res, tool.Errorf(tool.ErrToolExecution, "%s: %v", name, runErr)
}

// LookPath reports whether the named tool can be resolved to an executable.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", tool.ErrToolNotFound, name, err)
	}
	return path, nil
}

func clip(s string) string {
	if len(s) > maxLogOutputBytes {
		return s[:maxLogOutputBytes] + "... (truncated)"
	}
	return s
}

// limitedBuffer is an io.Writer shared by stdout and stderr that silently
// drops bytes beyond limit.
type limitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
