package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackvity/tile-converter/pkg/converter"
)

// --- TUI Message Structs ---

// TileQueuedMsg signals that the scanner queued a tile.
type TileQueuedMsg struct {
	Path   string
	Action converter.Action
}

// TileStatusUpdateMsg signals a change in a tile's processing status.
type TileStatusUpdateMsg struct {
	Path     string
	Status   converter.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg signals the completion of the entire run.
type RunCompleteMsg struct{ Report converter.Report }

// --- Hook Implementation ---

// CLIHooks implements the converter.Hooks interface, bridging library events
// to the CLI's UI layer (TUI, Logger, Progress Bar).
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar
	out            io.Writer // Where the progress bar draws
	mu             sync.Mutex
	queued         int
}

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// ProgressBar defines the subset of *progressbar.ProgressBar the hooks use.
type ProgressBar interface {
	Add(num int) error
	ChangeMax(max int)
	Close() error
}

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg tea.Msg) {}

// NewCLIHooks creates a new CLIHooks instance. Pass nil for tuiProg or
// progBar if not applicable. out receives the newline that ends the
// progress bar.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progBar ProgressBar, out io.Writer) converter.Hooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if out == nil {
		out = io.Discard
	}
	return &CLIHooks{
		logger:         logger,
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progBar,
		out:            out,
	}
}

// OnTileQueued handles a tile accepted by the scanner.
func (h *CLIHooks) OnTileQueued(path string, action converter.Action) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(TileQueuedMsg{Path: path, Action: action})
		return nil
	}
	if h.progressBar != nil {
		h.mu.Lock()
		h.queued++
		h.progressBar.ChangeMax(h.queued)
		h.mu.Unlock()
	}
	return nil
}

// OnTileStatusUpdate handles events when a tile's processing status changes.
// This method MUST be thread-safe.
func (h *CLIHooks) OnTileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(TileStatusUpdateMsg{
			Path:     path,
			Status:   status,
			Message:  message,
			Duration: duration,
		})
		return nil
	}

	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "Tile status updated"
		attrs := []any{
			slog.String("tile", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == converter.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}
		switch status {
		case converter.StatusSuccess:
			logLevel = slog.LevelInfo
		case converter.StatusFailed:
			logLevel = slog.LevelError
			logMsg = "Tile processing failed"
		}
		h.logger.Log(context.Background(), logLevel, logMsg, attrs...)
		return nil
	}

	if h.progressBar != nil && isFinalStatus(status) {
		h.mu.Lock()
		_ = h.progressBar.Add(1)
		h.mu.Unlock()
	}
	if status == converter.StatusFailed {
		h.logger.Error("Tile processing failed", "tile", path, "error", message)
	}
	return nil
}

// OnRunComplete sends the final report to the TUI or finalizes the progress bar.
func (h *CLIHooks) OnRunComplete(report converter.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	if h.progressBar != nil {
		h.mu.Lock()
		_ = h.progressBar.Close()
		h.mu.Unlock()
		_, _ = fmt.Fprintln(h.out)
	}
	return nil
}

func isFinalStatus(status converter.Status) bool {
	return status == converter.StatusSuccess || status == converter.StatusFailed || status == converter.StatusSkipped
}
