package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/loctree/internal/analyzer"
	"github.com/standardbeagle/loctree/internal/config"
	"github.com/standardbeagle/loctree/internal/types"
	"github.com/standardbeagle/loctree/internal/version"
	"github.com/standardbeagle/loctree/internal/watch"
)

func main() {
	app := &cli.App{
		Name:                   "loctree",
		Usage:                  "Repository LOC and complexity metrics",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze a source tree and print metrics",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "exclude",
						Aliases: []string{"e"},
						Usage:   "Additional exclusion glob (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Disable the on-disk metrics cache",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text or json",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Config file path (default: <root>/.loctree.toml)",
					},
				},
				Action: runAnalyze,
			},
			{
				Name:      "watch",
				Usage:     "Watch a source tree and re-analyze on change",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "exclude",
						Aliases: []string{"e"},
						Usage:   "Additional exclusion glob (repeatable)",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Config file path (default: <root>/.loctree.toml)",
					},
				},
				Action: runWatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig builds the effective AnalysisConfig for a run: engine
// defaults, then the project config file, then CLI flags on top.
func resolveConfig(c *cli.Context, root string) (types.AnalysisConfig, error) {
	configPath := c.String("config")
	if configPath == "" {
		configPath = filepath.Join(root, config.DefaultFileName)
	}
	fc, err := config.Load(configPath)
	if err != nil {
		return types.AnalysisConfig{}, err
	}

	cfg := fc.Merge(types.DefaultConfig())
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.ExcludePatterns = append(cfg.ExcludePatterns, excludes...)
	}
	if c.Bool("no-cache") {
		cfg.UseCache = false
	}
	return cfg, nil
}

func resolveRoot(c *cli.Context) (string, error) {
	root := c.Args().First()
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}
	return abs, nil
}

func runAnalyze(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(c, root)
	if err != nil {
		return err
	}

	result, err := analyzer.New().Analyze(c.Context, root, cfg)
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		printText(result)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", c.String("format"))
	}
}

func runWatch(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(c, root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(analyzer.New(), root, cfg, watch.DefaultDebounce)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case result := <-w.Results:
				printText(result)
			case err := <-w.Errors:
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}()

	fmt.Fprintf(os.Stderr, "Watching %s (ctrl-c to stop)\n", root)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printText(result *types.AnalysisResult) {
	fmt.Printf("Files:     %d\n", result.Summary.TotalFiles)
	fmt.Printf("LOC:       %d\n", result.Summary.TotalLOC)
	fmt.Printf("Functions: %d\n", result.Summary.TotalFunctions)
	if len(result.Summary.LargestFiles) > 0 {
		fmt.Println("Largest files:")
		for _, path := range result.Summary.LargestFiles {
			fmt.Printf("  %s\n", path)
		}
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", w.Path, w.Reason)
	}
}
