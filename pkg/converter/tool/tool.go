package tool

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// --- Error Variables ---

// ErrToolExecution indicates a general failure while running an external tool
// (codec or archiver). More specific errors below wrap it, so
// errors.Is(err, ErrToolExecution) holds for all of them.
var ErrToolExecution = errors.New("tool execution failed")

// ErrToolNotFound indicates the tool binary could not be started because it
// does not exist or is not executable.
var ErrToolNotFound = fmt.Errorf("%w: tool binary not found", ErrToolExecution)

// ErrNonZeroExit indicates the tool ran but exited with a non-zero status.
var ErrNonZeroExit = fmt.Errorf("%w: tool exited non-zero", ErrToolExecution)

// ErrToolCancelled indicates the tool was killed because its context ended.
var ErrToolCancelled = fmt.Errorf("%w: tool cancelled", ErrToolExecution)

// Result captures the outcome of a single tool invocation.
type Result struct {
	ExitCode int
	Output   string // combined stdout/stderr, possibly truncated
	Duration time.Duration
}

// Runner runs an external process and reports its outcome.
// Implementations MUST be safe for concurrent use by multiple workers.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Errorf returns a formatted error that wraps the given sentinel.
func Errorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}

// Codec converts tiles between their binary encoding and the line-oriented
// text form.
type Codec struct {
	Runner     Runner
	Path       string
	DecodeFlag string
	EncodeFlag string
}

// Decode writes the text form of src to dstText.
func (c Codec) Decode(ctx context.Context, src, dstText string) error {
	_, err := c.Runner.Run(ctx, c.Path, c.DecodeFlag, src, dstText)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}
	return nil
}

// Encode writes the binary form of srcText to dst.
func (c Codec) Encode(ctx context.Context, srcText, dst string) error {
	_, err := c.Runner.Run(ctx, c.Path, c.EncodeFlag, srcText, dst)
	if err != nil {
		return fmt.Errorf("encode %s: %w", srcText, err)
	}
	return nil
}

// Archiver wraps a single file into a compressed container.
type Archiver struct {
	Runner Runner
	Path   string
	Args   []string // leading arguments, e.g. "a -t7z -m0=lzma"
}

// Add compresses fileIn into archiveOut.
func (a Archiver) Add(ctx context.Context, archiveOut, fileIn string) error {
	args := make([]string, 0, len(a.Args)+2)
	args = append(args, a.Args...)
	args = append(args, archiveOut, fileIn)
	_, err := a.Runner.Run(ctx, a.Path, args...)
	if err != nil {
		return fmt.Errorf("archive %s: %w", fileIn, err)
	}
	return nil
}
