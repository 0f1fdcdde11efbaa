// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/starford/layoutsync/internal/apperr"
	"github.com/starford/layoutsync/internal/layout"
	"github.com/starford/layoutsync/internal/mcpserver"
	"github.com/starford/layoutsync/internal/storage"
	"github.com/starford/layoutsync/internal/watch"
)

// Run executes the selected mode with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Stdout carries notices, diffs and the MCP transport, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("root", cfg.Layout.Root),
		slog.String("template", cfg.Layout.Template),
		slog.Any("targets", cfg.Layout.Targets),
		slog.Bool("strict", cfg.Layout.Strict),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Layout.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	plan := cfg.Layout.Plan()
	syncOpts := []layout.Option{layout.WithLogger(logger)}
	if app.mode != ModeMCP {
		syncOpts = append(syncOpts, layout.WithNotices(app.stdout))
	}
	syncer, err := layout.New(store, plan, syncOpts...)
	if err != nil {
		return fmt.Errorf("init synchronizer: %w", err)
	}

	switch app.mode {
	case ModeSync:
		_, err := syncer.Sync()
		return err
	case ModeCheck:
		return runCheck(app, syncer)
	case ModeWatch:
		return runWatch(ctx, cfg, syncer, store, logger)
	case ModeMCP:
		logger.Info("MCP server starting on stdio")
		return mcpserver.New(syncer, store).ServeStdio()
	case ModeRegions:
		return printRegions(app, plan)
	default:
		return fmt.Errorf("unknown mode %d", app.mode)
	}
}

func runCheck(app *application, syncer *layout.Synchronizer) error {
	report, err := syncer.Check()
	if err != nil {
		return err
	}
	drifted := report.Changed()
	for _, t := range report.Targets {
		if t.Changed {
			fmt.Fprint(app.stdout, t.Diff)
		}
	}
	if len(drifted) > 0 {
		return fmt.Errorf("%w: %d of %d targets out of date", apperr.ErrDrift, len(drifted), len(report.Targets))
	}
	return nil
}

func runWatch(ctx context.Context, cfg *Config, syncer *layout.Synchronizer, store storage.Provider, logger *slog.Logger) error {
	if _, err := syncer.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	plan := syncer.Plan()
	files := append([]string{plan.Template}, plan.Targets...)

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stop := context.WithCancel(gCtx)
	defer stop()

	g.Go(func() error {
		return watch.Watch(watchCtx, syncer, store, files, cfg.Watch.Debounce, logger, nil)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-watchCtx.Done():
			logger.Info("Context cancelled, stopping watcher")
		}
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watcher error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func printRegions(app *application, plan layout.Plan) error {
	tw := tabwriter.NewWriter(app.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTART\tEND")
	for _, r := range plan.Regions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Start, r.End)
	}
	return tw.Flush()
}
