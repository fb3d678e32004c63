// Package cli wires the converter library to the terminal: tool runner,
// progress presentation and the final report.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/stackvity/tile-converter/internal/cli/hooks"
	"github.com/stackvity/tile-converter/internal/cli/runner"
	"github.com/stackvity/tile-converter/internal/cli/ui"
	"github.com/stackvity/tile-converter/pkg/converter"
)

// Replaced in tests.
var stderrIsTerminal = func() bool { return term.IsTerminal(int(os.Stderr.Fd())) }

// Run executes the configured mode and writes the report to out. Per-tile
// failures are part of the report and do not make Run fail.
func Run(ctx context.Context, opts converter.Options, logger *slog.Logger, out io.Writer) error {
	if opts.ToolRunner == nil {
		opts.ToolRunner = runner.NewExecRunner(opts.Logger)
	}

	var (
		report converter.Report
		err    error
	)
	switch {
	case opts.TuiEnabled:
		report, err = runWithTUI(ctx, opts, logger)
	case !opts.Verbose && stderrIsTerminal():
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(string(opts.Mode)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
		)
		opts.EventHooks = hooks.NewCLIHooks(logger, false, false, nil, bar, os.Stderr)
		report, err = converter.Execute(ctx, opts)
	default:
		opts.EventHooks = hooks.NewCLIHooks(logger, false, opts.Verbose, nil, nil, nil)
		report, err = converter.Execute(ctx, opts)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Run failed", slog.Any("error", err))
		return err
	}
	if writeErr := WriteReport(out, report, opts.OutputFormat); writeErr != nil {
		return writeErr
	}
	return err
}

// runWithTUI runs Execute in the background while the Bubble Tea program owns
// the terminal. Quitting the TUI cancels the run.
func runWithTUI(ctx context.Context, opts converter.Options, logger *slog.Logger) (converter.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(opts.AppVersion, opts.Mode, cancel)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	opts.EventHooks = hooks.NewCLIHooks(logger, true, false, program, nil, nil)

	type result struct {
		report converter.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := converter.Execute(ctx, opts)
		done <- result{report, err}
		// messages are delivered in order, so RunCompleteMsg is drawn first
		program.Quit()
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		logger.Warn("Terminal UI exited with an error", slog.Any("error", err))
	}
	res := <-done
	return res.report, res.err
}
