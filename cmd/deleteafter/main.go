package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"deleteafter/internal/config"
	"deleteafter/internal/deferred"
	"deleteafter/internal/exitcodes"
	"deleteafter/internal/history"
	"deleteafter/internal/logging"
	"deleteafter/internal/metrics"
	"deleteafter/internal/spawn"
)

// Replaced in tests
var (
	executable     = os.Executable
	scheduleHelper = spawn.Schedule
)

func main() {
	// SIGINT/SIGTERM end the wait early; the target is left in place
	ctx, cancel := context.WithCancelCause(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if sig, ok := (<-sigs).(syscall.Signal); ok {
			cancel(interrupt{sig: sig})
		}
	}()

	code := run(ctx, os.Args[1:], os.Stderr)
	signal.Stop(sigs)
	cancel(nil)
	os.Exit(code)
}

// interrupt is the cancel cause recorded when a signal ends the wait
type interrupt struct {
	sig syscall.Signal
}

func (i interrupt) Error() string {
	return "interrupted by " + i.sig.String()
}

type options struct {
	configPath string
	detach     bool
}

// run is the whole helper: deleteafter [-config FILE] [-detach] <target-path> <delay-seconds>
func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, positional := parseFlags(args)

	// Usage errors are silent and happen before any file is read or created
	if len(positional) < 2 {
		return exitcodes.Usage
	}

	cfg := config.Default()
	var cfgErr error
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			cfgErr = err
		} else {
			cfg = loaded
		}
	}

	logger, err := logging.NewWithConfig(cfg.Logging, stderr)
	defer logger.Close()
	if err != nil {
		logger.Error("failed to set up log file", "error", err)
	}
	if cfgErr != nil {
		logger.Error("failed to load config, using defaults", "config", opts.configPath, "error", cfgErr)
	}

	if opts.detach {
		return detach(logger, opts.configPath, cfg.DefaultDelay(), positional)
	}

	runner := deferred.NewRunner(logger, cfg.DefaultDelay())
	if cfg.DatabasePath != "" {
		runner.AddObserver(history.PathRecorder{Path: cfg.DatabasePath})
	}
	if cfg.Metrics.Textfile != "" {
		runner.AddObserver(metrics.New(cfg.Metrics.Textfile))
	}
	runner.SetMeasureSize(cfg.DatabasePath != "" || cfg.Metrics.Textfile != "")

	code := runner.Run(ctx, positional)
	if code == exitcodes.Interrupted {
		return interruptedCode(ctx)
	}
	return code
}

// detach re-launches this executable in its own session to do the wait and
// delete, and returns as soon as the child has started
func detach(logger *logging.Logger, configPath string, defaultDelay time.Duration, positional []string) int {
	req, err := deferred.ParseArgs(positional, defaultDelay)
	if err != nil {
		return exitcodes.Usage
	}

	exe, err := executable()
	if err != nil {
		logger.Error("failed to locate own executable", "error", err)
		return exitcodes.RuntimeError
	}

	var flags []string
	if configPath != "" {
		flags = []string{"-config", configPath}
	}
	pid, err := scheduleHelper(exe, req.Target, req.Delay, flags...)
	if err != nil {
		logger.Error("failed to start helper", "target", req.Target, "error", err)
		return exitcodes.RuntimeError
	}
	logger.Info("helper started", "pid", pid, "target", req.Target, "delay", req.Delay)
	return exitcodes.Success
}

func interruptedCode(ctx context.Context) int {
	var in interrupt
	if errors.As(context.Cause(ctx), &in) {
		return exitcodes.Signaled(int(in.sig))
	}
	return exitcodes.Interrupted
}

// parseFlags separates optional leading flags from the positional arguments.
// Flags are only considered when the first argument is one of ours, and they
// are honoured only if two positionals remain afterwards. Otherwise every
// argument is positional, so "deleteafter -config 5" targets "-config".
func parseFlags(args []string) (options, []string) {
	if len(args) == 0 || !isKnownFlag(args[0]) {
		return options{}, args
	}

	var opts options
	fs := flag.NewFlagSet("deleteafter", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "", "Path to optional YAML configuration file")
	fs.BoolVar(&opts.detach, "detach", false, "Start the wait in a background process and return immediately")
	if err := fs.Parse(args); err != nil || len(fs.Args()) < 2 {
		return options{}, args
	}
	return opts, fs.Args()
}

func isKnownFlag(arg string) bool {
	if !strings.HasPrefix(arg, "-") {
		return false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	return name == "config" || name == "detach"
}
