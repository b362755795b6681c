package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"ExclusiveScanner/internal/app"
	"ExclusiveScanner/internal/config"
	"ExclusiveScanner/internal/logging"
	"ExclusiveScanner/internal/usecase"
)

// Options are the command-line switches; file and env configuration is
// handled by the config package.
type Options struct {
	Config    string `long:"config" short:"c" env:"EXCLUSIVE_SCANNER_CONFIG" description:"Path to YAML configuration file"`
	Mode      string `long:"mode" short:"m" default:"serve" choice:"run" choice:"serve" choice:"find-selectors" description:"run once, serve (scheduler + HTTP trigger) or find-selectors"`
	NoSave    bool   `long:"no-save" description:"Do not record delivered items"`
	SkipDedup bool   `long:"skip-dedup" description:"Do not filter already delivered items"`
	Save      bool   `long:"save" description:"Persist selectors found in find-selectors mode"`
	LogLevel  string `long:"log-level" description:"Override logging.level (debug, info, warn, error)"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg := config.LoadFile(opts.Config)
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	switch opts.Mode {
	case "run":
		_, err = application.RunOnce(ctx, usecase.RunOptions{NoSave: opts.NoSave, SkipDedup: opts.SkipDedup})
	case "find-selectors":
		err = findSelectors(ctx, application, opts.Save)
	default:
		err = application.Serve(ctx)
	}

	if err != nil {
		logger.Error("application stopped", "mode", opts.Mode, "error", err)
		application.Close()
		os.Exit(1)
	}
}

func findSelectors(ctx context.Context, application *app.Application, save bool) error {
	report, err := application.FindSelectors(ctx, save)
	if err != nil {
		return err
	}

	fmt.Println("Discovered selectors:")
	for _, role := range report.Discovered.Roles() {
		fmt.Printf("  %-14s %s\n", role[0], role[1])
	}

	if len(report.Changes) == 0 {
		fmt.Println("No changes against the stored selectors.")
	} else {
		fmt.Println("Changes:")
		for _, change := range report.Changes {
			fmt.Println("  " + change)
		}
	}

	if report.Saved {
		fmt.Println("Selectors saved.")
	} else {
		fmt.Println("Dry run; pass --save to persist.")
	}
	return nil
}
