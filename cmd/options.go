package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"idleshutdown/internal/logx"
)

const (
	envConfig   = "IDLESHUTDOWN_CONFIG"
	envLogLevel = "IDLESHUTDOWN_LOG_LEVEL"
	envDryRun   = "IDLESHUTDOWN_DRY_RUN"
)

type options struct {
	configPath string
	logLevel   string
	logFile    string
	logAppend  bool
	dryRun     bool
	check      bool
	noTray     bool
	autostart  string
	version    bool
}

// parseOptions layers defaults, then environment, then flags.
func parseOptions(args []string, getenv func(string) string, output io.Writer) (options, error) {
	opts := options{logLevel: "info"}

	fs := flag.NewFlagSet("idleshutdown", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "Path to settings.yaml (env "+envConfig+")")
	fs.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug, info, warn, error (env "+envLogLevel+")")
	fs.StringVar(&opts.logFile, "log-file", "", "Log file path (default: next to the settings file)")
	fs.BoolVar(&opts.logAppend, "log-append", false, "Keep the previous run's log instead of truncating it")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Log shutdown decisions without powering off (env "+envDryRun+")")
	fs.BoolVar(&opts.check, "check", false, "Evaluate the shutdown decision once, print a report and exit")
	fs.BoolVar(&opts.noTray, "no-tray", false, "Run headless without a tray icon")
	fs.StringVar(&opts.autostart, "autostart", "", "Register or remove the login item: enable or disable")
	fs.BoolVar(&opts.version, "version", false, "Print version and changelog")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: idleshutdown [flags]\n\nShuts the computer down when it sits idle during inactive hours.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if !fs.Changed("config") {
		opts.configPath = strings.TrimSpace(getenv(envConfig))
	}
	if !fs.Changed("log-level") {
		if level := strings.TrimSpace(getenv(envLogLevel)); level != "" {
			opts.logLevel = level
		}
	}
	if !fs.Changed("dry-run") {
		if raw := strings.TrimSpace(getenv(envDryRun)); raw != "" {
			dryRun, err := strconv.ParseBool(raw)
			if err != nil {
				return opts, fmt.Errorf("%s: invalid boolean %q", envDryRun, raw)
			}
			opts.dryRun = dryRun
		}
	}

	switch opts.autostart {
	case "", "enable", "disable":
	default:
		return opts, fmt.Errorf("--autostart must be enable or disable, got %q", opts.autostart)
	}
	if _, ok := logx.LookupLevel(opts.logLevel); !ok {
		return opts, fmt.Errorf("unknown log level %q", opts.logLevel)
	}
	return opts, nil
}
