package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/deadlines/pkg/config"
	"github.com/umputun/deadlines/pkg/countdown"
	"github.com/umputun/deadlines/pkg/deadline"
	"github.com/umputun/deadlines/pkg/feed"
	"github.com/umputun/deadlines/pkg/scheduler"
	"github.com/umputun/deadlines/pkg/table"
	"github.com/umputun/deadlines/pkg/terminal"
	"github.com/umputun/deadlines/server"
)

// Opts with all CLI options
type Opts struct {
	Config   string `short:"c" long:"config" env:"CONFIG" description:"configuration file, built-in defaults if empty"`
	Listen   string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	Terminal bool   `short:"t" long:"terminal" description:"show the board in the terminal instead of serving it"`
	Verbose  bool   `short:"v" long:"verbose" description:"verbose mode"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	// the terminal board owns stdout, logs are shown only in debug mode
	SetupLog(opts.Debug || (opts.Verbose && !opts.Terminal))

	log.Printf("[INFO] starting deadlines version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run renders the table once, starts the countdown and shows the board until ctx is canceled
// or the terminal board is closed
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to load time zone: %w", err)
	}

	loader, err := feed.NewLoader(feed.LoaderConfig{
		BaseURL:    cfg.Source.BaseURL,
		Timeout:    cfg.Source.Timeout,
		UserAgent:  cfg.Source.UserAgent,
		Attempts:   cfg.Source.Attempts,
		RetryDelay: cfg.Source.RetryDelay,
		RateLimit:  cfg.Source.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	board := table.NewBoard(deadline.Evaluator{
		Location:    loc,
		Layout:      cfg.Countdown.TimeLayout,
		Placeholder: cfg.Display.Placeholder,
		ClosedLabel: cfg.Display.ClosedLabel,
		Thresholds:  deadline.Thresholds{Urgent: cfg.Countdown.UrgentDays, Warning: cfg.Countdown.WarningDays},
	})
	renderer := table.NewRenderer(loader, board, table.Config{
		Files:       cfg.GetFiles(),
		Concurrency: cfg.Source.Concurrency,
		Location:    loc,
		Placeholder: cfg.Display.Placeholder,
	})

	if err := renderer.RenderAll(ctx); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}

	ticker := countdown.Start(ctx, board, cfg.Countdown.Interval)
	defer ticker.Stop()

	if cfg.Source.RefreshInterval > 0 {
		sched := scheduler.NewScheduler(renderer, scheduler.Config{UpdateInterval: cfg.Source.RefreshInterval})
		sched.Start(ctx)
		defer sched.Stop()
	}

	if opts.Terminal {
		return terminal.Run(ctx, board, renderer, terminal.Options{
			Interval:    cfg.Countdown.Interval,
			Placeholder: cfg.Display.Placeholder,
			Version:     revision,
		})
	}

	srv := server.New(server.Config{
		Listen:      cfg.Server.Listen,
		Timeout:     cfg.Server.Timeout,
		BaseURL:     cfg.Server.BaseURL,
		Version:     revision,
		Debug:       opts.Debug,
		Poll:        cfg.Countdown.Interval,
		Location:    loc,
		Placeholder: cfg.Display.Placeholder,
		LinkLabel:   cfg.Display.LinkLabel,
	}, board, renderer)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// loadConfig reads the config file, or returns defaults when no file is set
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		log.Printf("[INFO] no config file, using defaults")
		return config.Default(), nil
	}
	return config.Load(path)
}

// SetupLog configures lgr as the standard logger, output is discarded unless dbg is set
func SetupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
