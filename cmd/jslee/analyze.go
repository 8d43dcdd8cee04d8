package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benbjohnson/jslee"
	"github.com/benbjohnson/jslee/checks"
	"github.com/benbjohnson/jslee/config"
	"github.com/benbjohnson/jslee/javascript"
)

var (
	fileStyle    = color.New(color.FgCyan, color.Bold)
	checkStyle   = color.New(color.FgYellow, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
)

// AnalyzeCommand represents a command for analyzing JavaScript files.
type AnalyzeCommand struct {
	configPath string
	verbose    bool

	Stdout io.Writer
	Stderr io.Writer
}

// NewAnalyzeCommand returns a new instance of AnalyzeCommand.
func NewAnalyzeCommand() *AnalyzeCommand {
	return &AnalyzeCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Command returns the cobra command running the analysis.
func (cmd *AnalyzeCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "analyze [flags] path...",
		Short: "report the issues found in JavaScript files",
		Long: `Analyze symbolically executes every function of the given files and prints
the issues reported by the enabled checks. Directories are searched
recursively for .js, .mjs & .cjs files.

Available checks: ` + strings.Join(checks.Names(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), c, args)
		},
	}

	flags := c.Flags()
	flags.StringVarP(&cmd.configPath, "config", "c", "", "config file (default "+config.DefaultFilename+")")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false, "log at debug level")
	flags.Int("max-states", jslee.DefaultMaxStates, "maximum states explored per function")
	flags.Int("max-block-visits", jslee.DefaultMaxBlockVisits, "maximum executions of a block per function")
	flags.String("searcher", config.DefaultSearcher, "exploration strategy: dfs, bfs, random or a comma-separated list")
	flags.Int64("seed", 0, "seed of the random searcher")
	flags.Int("concurrency", config.DefaultConcurrency, "number of files analyzed in parallel")
	flags.StringSlice("disable", nil, "checks to disable")
	flags.String("log-level", config.DefaultLogLevel, "log level")
	return c
}

// Run analyzes the files & directories in paths.
func (cmd *AnalyzeCommand) Run(ctx context.Context, c *cobra.Command, paths []string) error {
	cfg, err := config.Load(cmd.configPath, c.Flags())
	if err != nil {
		return err
	}
	if cmd.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	filenames, err := expandPaths(paths)
	if err != nil {
		return err
	}
	logger.Debug("[analyze] start",
		zap.Int("files", len(filenames)),
		zap.String("config", cfg.Filename),
		zap.String("searcher", cfg.Searcher),
	)

	analyzer, err := cfg.Analyzer(logger)
	if err != nil {
		return err
	}
	results := make([][]jslee.Issue, len(filenames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			issues, err := analyzeFile(ctx, analyzer, filename)
			if err != nil {
				return err
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var n int
	for _, issues := range results {
		for _, issue := range issues {
			cmd.printIssue(issue)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	fmt.Fprintf(cmd.Stderr, "%d issue(s) found\n", n)
	return ErrIssuesFound
}

func (cmd *AnalyzeCommand) printIssue(issue jslee.Issue) {
	fmt.Fprintf(cmd.Stdout, "%s: %s %s\n",
		fileStyle.Sprint(issue.Pos),
		messageStyle.Sprint(issue.Message),
		checkStyle.Sprintf("(%s)", issue.Check),
	)
}

// analyzeFile parses & analyzes a single file.
func analyzeFile(ctx context.Context, analyzer *jslee.Analyzer, filename string) ([]jslee.Issue, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	file, err := javascript.Parse(ctx, src, filename)
	if err != nil {
		return nil, err
	}
	return analyzer.AnalyzeFile(ctx, file)
}

// expandPaths returns the files in paths, searching directories for
// JavaScript files. Files are returned in the order given.
func expandPaths(paths []string) ([]string, error) {
	var filenames []string
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		} else if !fi.IsDir() {
			filenames = append(filenames, path)
			continue
		}

		if err := filepath.WalkDir(path, func(filename string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			} else if d.IsDir() {
				if name := d.Name(); filename != path && (name == "node_modules" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			switch filepath.Ext(filename) {
			case ".js", ".mjs", ".cjs":
				filenames = append(filenames, filename)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return filenames, nil
}
