package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvity/tile-converter/internal/cli"
	"github.com/stackvity/tile-converter/internal/cli/config"
	"github.com/stackvity/tile-converter/pkg/converter"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. Flag names align with the viper keys
// bound in internal/cli/config.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tile-converter",
		Short: "Merges reference raster data into orthophoto overlay tiles.",
		Long: `tile-converter scans the scenery packs under a simulator root for
overlay terrain tiles and merges the raster layers (seasons, sound,
elevation, sea level) of the matching reference tile into each of them.

Every converted tile keeps a backup next to it, so conversions can be
redone with new reference data or undone. Once satisfied, cleanup removes
the backups.

Examples:
  tile-converter convert --rect +36+019,+40+025
  tile-converter cleanup --subset z_ao_eur --dry-run
  tile-converter convert --root E:/XP12-test --subset z_ao_eur --limit 1000`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: false,
	}
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Configuration file (default: tile-converter.{ini,yaml,toml} in . or $HOME/.config/tile-converter/)")
	pf.BoolP("verbose", "v", converter.DefaultVerbose, "Enable verbose (debug) logging output (disables TUI)")
	pf.String("work-dir", converter.DefaultWorkDir, "Directory for the raster cache and temporary files")
	pf.String("log-file", converter.DefaultLogFile, "Log file, truncated on every run (empty disables it)")

	modes := []struct {
		mode  converter.Mode
		short string
	}{
		{converter.ModeConvert, "Convert tiles that were not converted yet"},
		{converter.ModeRedo, "Convert again, starting from the backups"},
		{converter.ModeUndo, "Restore the original tiles from their backups"},
		{converter.ModeCleanup, "Remove the backups of converted tiles"},
	}
	for _, m := range modes {
		rootCmd.AddCommand(newModeCmd(m.mode, m.short, &cfgFile))
	}
	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

// newModeCmd returns the subcommand for one run mode. Modes are exclusive
// because exactly one subcommand runs.
func newModeCmd(mode converter.Mode, short string, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error { // minimal comment
			cmd.SilenceUsage = true
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, closeLog, err := config.LoadAndValidate(*cfgFile, version, mode, cmd.Flags())
			defer closeLog()
			if err != nil {
				return err
			}
			logger.Info("Version: "+version, slog.Any("args", os.Args))
			return cli.Run(ctx, opts, logger, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("root", "", "Simulator root directory")
	f.String("rect", "", "Restrict to a rectangle of cells, corners as lat/lon, e.g. +36+019,+40+025")
	f.String("subset", "", "Only tiles whose path contains this string")
	f.Int("limit", 0, "Process at most n tiles (0 for no limit)")
	f.Bool("dry-run", converter.DefaultDryRun, "Only list matching tiles")
	f.Int("workers", converter.DefaultWorkers, "Number of parallel workers (0 for auto-detect CPU cores)")
	f.Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	f.String("output-format", string(converter.DefaultOutputFormat), `Final report format ("text", "json", "yaml", "toml")`)
	return cmd
}

func newInspectCmd() *cobra.Command {
	var pngDir string
	cmd := &cobra.Command{
		Use:   "inspect [flags] [--] <lat> <lon>",
		Short: "Print cached reference raster samples at a coordinate",
		Long: `inspect reads the sea level and elevation rasters a conversion left in
the work directory for the cell holding <lat> <lon> and prints their samples
at that point. Use -- before negative coordinates.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error { // minimal comment
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q: %w", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q: %w", args[1], err)
			}
			cmd.SilenceUsage = true
			workDir, _ := cmd.Flags().GetString("work-dir")
			return cli.Inspect(cmd.OutOrStdout(), cli.InspectRequest{WorkDir: workDir, Lat: lat, Lon: lon, PNGDir: pngDir})
		},
	}
	cmd.Flags().StringVar(&pngDir, "make-png", "", "Render both rasters as PNG files into this directory instead")
	return cmd
}

// Execute runs the command tree and exits non-zero on error.
func Execute() { // minimal comment
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
