package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "ORWELLCTL_LOG_LEVEL"
	EnvLogTimestamp = "ORWELLCTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "ORWELLCTL_LOG_NOCOLOR"
	EnvLogJSON      = "ORWELLCTL_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options controls how one logger instance renders.
type Options struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
	Out       io.Writer
	App       string
}

// DefaultOptions returns profile defaults before env overrides.
func DefaultOptions(profile Profile) Options {
	switch profile {
	case ProfileTest:
		return Options{
			Level:     zerolog.DebugLevel,
			Timestamp: false,
			NoColor:   true,
		}
	default:
		return Options{
			Level:     zerolog.InfoLevel,
			Timestamp: true,
			NoColor:   !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
		}
	}
}

// NewRuntime builds the process logger. verbose lowers the level to debug.
func NewRuntime(app string, verbose bool) zerolog.Logger {
	opts := DefaultOptions(ProfileRuntime)
	opts.App = app
	if verbose {
		opts.Level = zerolog.DebugLevel
	}
	ApplyEnv(&opts)
	return New(opts)
}

// New builds a logger from explicit options. Nothing global is touched.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	if !opts.JSON {
		cw := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.RFC3339,
		}
		if !opts.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}
	ctx := zerolog.New(out).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	if strings.TrimSpace(opts.App) != "" {
		ctx = ctx.Str("app", opts.App)
	}
	return ctx.Logger()
}

// ApplyEnv overlays ORWELLCTL_LOG_* variables onto opts.
func ApplyEnv(opts *Options) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
