// Package config loads the command line configuration from defaults, a config
// file, the environment and flags, and validates it into converter.Options.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/stackvity/tile-converter/internal/cli/runner"
	"github.com/stackvity/tile-converter/pkg/converter"
	"github.com/stackvity/tile-converter/pkg/converter/raster"
)

const (
	EnvPrefix         = "TILECONVERTER"
	DefaultConfigName = "tile-converter"
)

// Replaced in tests.
var (
	lookPath   = runner.LookPath
	isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

// flagKeys maps flag names onto viper keys. Flags whose name equals the key
// are listed too so that binding stays explicit.
var flagKeys = map[string]string{
	"root":          "root",
	"work-dir":      "workDir",
	"rect":          "rect",
	"subset":        "subset",
	"limit":         "limit",
	"dry-run":       "dryRun",
	"workers":       "workers",
	"verbose":       "verbose",
	"output-format": "outputFormat",
	"log-file":      "logFile",
}

// legacyKeys lets INI files written for the original tool keep working:
// [defaults] root/xp12_root, work_dir, num_workers and [tools] dsftool, 7zip.
var legacyKeys = []struct {
	from []string
	to   string
}{
	{[]string{"defaults.root", "defaults.xp12_root"}, "root"},
	{[]string{"defaults.work_dir"}, "workDir"},
	{[]string{"defaults.num_workers"}, "workers"},
	{[]string{"tools.dsftool"}, "tools.codec"},
	{[]string{"tools.7zip"}, "tools.archiver"},
}

// LoadAndValidate loads configuration from all sources (defaults, file, env,
// flags), validates the merged result for mode and sets up the logger.
// The returned close function flushes the log file; it is never nil.
func LoadAndValidate(cfgFile, appVersion string, mode converter.Mode, flags *pflag.FlagSet) (converter.Options, *slog.Logger, func(), error) {
	var opts converter.Options
	noop := func() {}
	v := viper.New()

	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		} else {
			tempLogger.Debug("No home directory, searching the working directory only", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.{ini,yaml,toml}", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", used), slog.Any("error", err))
			return opts, tempLogger, noop, fmt.Errorf("%w: error reading config file '%s': %w", converter.ErrConfigValidation, used, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}
	applyLegacyKeys(v)

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", name))
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return opts, tempLogger, noop, fmt.Errorf("error binding flag '--%s': %w", name, err)
		}
	}

	opts.AppVersion = appVersion
	opts.Mode = mode
	if err := v.Unmarshal(&opts); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, noop, fmt.Errorf("%w: error unmarshalling configuration: %w", converter.ErrConfigValidation, err)
	}

	// Viper binds a bool flag's default too; only an explicit --no-tui may switch the TUI off.
	if flags.Changed("no-tui") {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			opts.TuiEnabled = false
		}
	}
	if opts.Verbose || !isTerminal() {
		opts.TuiEnabled = false
	}

	// --- Setup Final Logger ---
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	var console io.Writer = os.Stderr
	if opts.TuiEnabled {
		// the TUI owns the terminal; records go to the log file only
		console = nil
	}
	handler, closeLog, err := newLogHandler(opts.LogFile, console, logLevel)
	if err != nil {
		tempLogger.Error("Cannot open log file", slog.String("path", opts.LogFile), slog.Any("error", err))
		return opts, tempLogger, noop, fmt.Errorf("%w: cannot open log file '%s': %w", converter.ErrConfigValidation, opts.LogFile, err)
	}
	logger := slog.New(handler)
	opts.Logger = handler

	if err := validateAndDeriveOptions(&opts, logger); err != nil {
		return opts, logger, closeLog, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("mode", string(opts.Mode)),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, logger, closeLog, nil
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	// --- Paths ---
	v.SetDefault("root", "")
	v.SetDefault("sceneryDir", converter.DefaultSceneryDir)
	v.SetDefault("workDir", converter.DefaultWorkDir)
	v.SetDefault("referenceDirs", converter.DefaultReferenceDirs)

	// --- Tile Discovery ---
	v.SetDefault("packPattern", converter.DefaultPackPattern)
	v.SetDefault("tileExt", converter.DefaultTileExt)
	v.SetDefault("dataDirMarker", converter.DefaultDataDirMarker)
	v.SetDefault("subset", "")
	v.SetDefault("rect", "")
	v.SetDefault("limit", 0)

	// --- Behavior ---
	v.SetDefault("dryRun", converter.DefaultDryRun)
	v.SetDefault("workers", converter.DefaultWorkers)
	v.SetDefault("progressInterval", converter.DefaultProgressInterval)
	v.SetDefault("toolName", converter.DefaultToolName)
	v.SetDefault("rasterAllowList", raster.DefaultAllowList)

	// --- Tools ---
	v.SetDefault("tools.codec", converter.DefaultCodecPath)
	v.SetDefault("tools.decodeFlag", converter.DefaultDecodeFlag)
	v.SetDefault("tools.encodeFlag", converter.DefaultEncodeFlag)
	v.SetDefault("tools.archiver", converter.DefaultArchiverPath)
	v.SetDefault("tools.archiverArgs", converter.DefaultArchiverArgs)

	// --- Presentation ---
	v.SetDefault("verbose", converter.DefaultVerbose)
	v.SetDefault("tuiEnabled", converter.DefaultTuiEnabled)
	v.SetDefault("outputFormat", string(converter.DefaultOutputFormat))
	v.SetDefault("logFile", converter.DefaultLogFile)
}

// applyLegacyKeys copies legacy config file keys onto their current names.
// The value lands as a default so env and flags still override it.
func applyLegacyKeys(v *viper.Viper) {
	for _, l := range legacyKeys {
		if v.InConfig(l.to) {
			continue
		}
		for _, from := range l.from {
			if v.InConfig(from) {
				v.SetDefault(l.to, v.Get(from))
				break
			}
		}
	}
}

// newLogHandler writes text records to the truncated log file and, when
// console is non-nil, to console as well.
func newLogHandler(logFile string, console io.Writer, level slog.Level) (slog.Handler, func(), error) {
	var writers []io.Writer
	closeLog := func() {}
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, closeLog, err
		}
		writers = append(writers, f)
		closeLog = func() { _ = f.Close() }
	}
	if console != nil {
		writers = append(writers, console)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	return slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level}), closeLog, nil
}

// validateAndDeriveOptions performs semantic validation on the populated
// Options and derives absolute paths and the worker count. Errors wrap
// converter.ErrConfigValidation.
func validateAndDeriveOptions(opts *converter.Options, logger *slog.Logger) error {
	fail := func(key string, format string, args ...any) error {
		err := fmt.Errorf("%w: "+format, append([]any{converter.ErrConfigValidation}, args...)...)
		logger.Error(err.Error(), slog.String("key", key))
		return err
	}

	if !opts.Mode.Valid() {
		return fail("mode", "unknown mode '%s'", opts.Mode)
	}

	// === Path Validations ===
	if opts.Root == "" {
		return fail("root", "simulator root is required (--root or 'root' in the config file)")
	}
	absRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return fail("root", "cannot resolve absolute root path '%s': %w", opts.Root, err)
	}
	opts.Root = absRoot
	if info, err := os.Stat(opts.Root); err != nil || !info.IsDir() {
		return fail("root", "root '%s' is not an accessible directory", opts.Root)
	}
	scenery := filepath.Join(opts.Root, opts.SceneryDir)
	if info, err := os.Stat(scenery); err != nil || !info.IsDir() {
		return fail("sceneryDir", "scenery directory '%s' does not exist", scenery)
	}
	absWork, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return fail("workDir", "cannot resolve absolute work directory '%s': %w", opts.WorkDir, err)
	}
	opts.WorkDir = absWork

	// === Filters ===
	if _, err := regexp.Compile(opts.PackPattern); err != nil {
		return fail("packPattern", "invalid pack pattern '%s': %w", opts.PackPattern, err)
	}
	if opts.RectSpec != "" {
		r, err := converter.ParseRect(opts.RectSpec)
		if err != nil {
			logger.Error(err.Error(), slog.String("key", "rect"))
			return err
		}
		opts.Rect = &r
	}
	if opts.Limit < 0 {
		return fail("limit", "invalid value '%d' for limit, must be > 0", opts.Limit)
	}

	// === Enum Validations ===
	allowedOutputFormat := []converter.OutputFormat{converter.OutputFormatText, converter.OutputFormatJSON, converter.OutputFormatYAML, converter.OutputFormatTOML}
	if !slices.Contains(allowedOutputFormat, opts.OutputFormat) {
		return fail("outputFormat", "invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v", opts.OutputFormat, allowedOutputFormat)
	}

	// === Numeric Range Validations ===
	if opts.Workers < 0 {
		return fail("workers", "invalid value '%d' for key 'workers' (flag --workers). Must be >= 0", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
		logger.Debug("Workers not set, defaulting to number of CPUs", slog.Int("workers", opts.Workers))
	}

	// === Tools ===
	// undo and cleanup only move files, and a dry run never calls out
	if !opts.DryRun && opts.Mode.Action() == converter.ActionConvert {
		for _, t := range []*string{&opts.Tools.Codec, &opts.Tools.Archiver} {
			resolved, err := lookPath(*t)
			if err != nil {
				return fail("tools", "%w", err)
			}
			*t = resolved
		}
	}

	logger.Debug("Final derived settings validated",
		slog.String("root", opts.Root),
		slog.String("workDir", opts.WorkDir),
		slog.Int("workers", opts.Workers),
		slog.String("codec", opts.Tools.Codec),
		slog.String("archiver", opts.Tools.Archiver),
		slog.Bool("tuiEnabledEffective", opts.TuiEnabled),
	)
	return nil
}
