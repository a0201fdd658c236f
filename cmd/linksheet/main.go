// linksheet - single-page link report generator
//
// linksheet reads one text file per item key from the input directory,
// lays the items out on a template PDF and adds a clickable link over each
// item's link label.
//
// Usage:
//
//	linksheet [flags] key1 key2 ...
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/tsawler/linksheet"
	"github.com/tsawler/linksheet/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linksheet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Config file path (YAML)")
	inputDir := fs.String("input", "", "Directory holding <key>.txt item files")
	template := fs.String("template", "", "Template PDF (overrides config)")
	output := fs.String("output", "", "Output PDF path")
	overflow := fs.String("overflow", "", "Bullet overflow policy: error or clip")
	check := fs.Bool("check", false, "Verify that every link covers its label")
	initConfig := fs.Bool("init", false, "Write the default config to -config and exit")
	verbose := fs.Bool("v", false, "Debug logging")
	showVersion := fs.Bool("version", false, "Show version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: linksheet [flags] key1 key2 ...\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Fprintf(stdout, "linksheet %s\n", linksheet.Version)
		return 0
	}

	if *initConfig {
		if *configPath == "" {
			fmt.Fprintln(stderr, "-init requires -config")
			return 1
		}
		if err := config.Default().Save(*configPath); err != nil {
			fmt.Fprintf(stderr, "Failed to initialize config: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Config initialized at: %s\n", *configPath)
		return 0
	}

	keys := fs.Args()
	if len(keys) == 0 {
		fs.Usage()
		return 1
	}

	linksheet.SetLogger(newLogger(stderr, *verbose))

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *inputDir != "" {
		cfg.Paths.InputDir = *inputDir
	}
	if *template != "" {
		cfg.Paths.Template = *template
	}
	if *output != "" {
		cfg.Paths.Output = *output
	}
	if *overflow != "" {
		cfg.Overflow = *overflow
	}

	b, err := linksheet.NewBuilder(cfg, linksheet.WithCheck(*check))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	res, warnings, err := b.Build(keys)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	fmt.Fprintf(stdout, "Wrote %s (%d items)\n", res.Output, res.Items)
	for _, c := range res.Links {
		fmt.Fprintf(stdout, "  link %d: %s covers %q (%.0f%%)\n", c.Index, c.URI, c.Text, c.Coverage*100)
	}
	return 0
}

// newLogger writes text records to a terminal and JSON records otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
