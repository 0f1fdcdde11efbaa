package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/layoutsync/internal"
	pkgconfig "github.com/starford/layoutsync/pkg/config"
)

const defaultConfigFile = "layoutsync.yaml"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")

	// An explicitly named config file must exist; the default one is optional.
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, err
		}
	} else if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, err
	}

	if cmd.IsSet("root") {
		cfg.Layout.Root = cmd.String("root")
	}
	if cmd.Bool("strict") {
		cfg.Layout.Strict = true
	}
	if targets := cmd.Args().Slice(); len(targets) > 0 {
		cfg.Layout.Targets = targets
	}
	return cfg, nil
}

func action(mode internal.Mode) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithMode(mode)); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "layoutsync",
		Usage:     "Copy shared NAV and SIDEBAR blocks from a template page into target pages",
		ArgsUsage: "[target ...] (relative to --root)",
		Action:    action(internal.ModeSync),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("LAYOUTSYNC_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory the template and target paths are relative to; absolute or escaping paths are rejected",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail when a region's start marker appears more than once in a page",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "sync",
				Usage:     "Update targets whose shared regions differ from the template",
				ArgsUsage: "[target ...] (relative to --root)",
				Action:    action(internal.ModeSync),
			},
			{
				Name:      "check",
				Usage:     "Print a diff for out-of-date targets and exit non-zero without writing",
				ArgsUsage: "[target ...] (relative to --root)",
				Action:    action(internal.ModeCheck),
			},
			{
				Name:      "watch",
				Usage:     "Sync now and again whenever the template or a target changes",
				ArgsUsage: "[target ...] (relative to --root)",
				Action:    action(internal.ModeWatch),
			},
			{
				Name:   "mcp",
				Usage:  "Serve sync and check as MCP tools over stdio",
				Action: action(internal.ModeMCP),
			},
			{
				Name:   "regions",
				Usage:  "List the shared regions and their markers",
				Action: action(internal.ModeRegions),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
