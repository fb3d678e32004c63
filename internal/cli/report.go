package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/tile-converter/pkg/converter"
)

// WriteReport renders report to w in the requested format.
func WriteReport(w io.Writer, report converter.Report, format converter.OutputFormat) error {
	switch format {
	case converter.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case converter.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case converter.OutputFormatTOML:
		return toml.NewEncoder(w).Encode(report)
	case converter.OutputFormatText, "":
		return writeText(w, report)
	}
	return fmt.Errorf("%w: unknown output format '%s'", converter.ErrConfigValidation, format)
}

func writeText(w io.Writer, report converter.Report) error {
	s := report.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if s.DryRun {
		fmt.Fprintf(tw, "Dry run: %d tiles would be processed (%s)\n", s.Queued, s.Mode)
		for _, t := range report.Tiles {
			fmt.Fprintf(tw, "  %s\t%s\n", t.Action, t.Path)
		}
	} else {
		fmt.Fprintf(tw, "Mode:\t%s\n", s.Mode)
		fmt.Fprintf(tw, "Root:\t%s\n", s.Root)
		fmt.Fprintf(tw, "Processed:\t%d of %d tiles in %.1f seconds\n", s.Attempted, s.Queued, s.DurationSeconds)
		fmt.Fprintf(tw, "Succeeded:\t%d\n", s.Succeeded)
		fmt.Fprintf(tw, "Failed:\t%d\n", s.Failed)
		if s.Cancelled {
			fmt.Fprintf(tw, "Cancelled:\t%d tiles not started\n", s.Queued-s.Attempted)
		}
	}
	if s.SkippedCount > 0 {
		fmt.Fprintf(tw, "Skipped:\t%d\n", s.SkippedCount)
	}
	if len(report.Errors) > 0 {
		fmt.Fprintln(tw, "Failures:")
		for _, e := range report.Errors {
			fmt.Fprintf(tw, "  %s\t%s\n", e.Path, e.Error)
		}
	}
	return tw.Flush()
}
