package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/DeusData/cstrmap/internal/config"
	"github.com/DeusData/cstrmap/internal/discover"
	"github.com/DeusData/cstrmap/internal/pipeline"
	"github.com/DeusData/cstrmap/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("cstrmap", version)
		os.Exit(0)
	}
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("v", false, "enable debug logging")
	configPath := flag.String("config", "", "config file (default "+config.DefaultFile+")")
	scanDir := flag.String("scan", "", "recursively collect *.c files under this directory")
	runsFlag := flag.Bool("runs", false, "list archived runs and exit")
	runFlag := flag.String("run", "", "print an archived run's entries and exit")
	flag.Usage = usage
	flag.Parse()

	_ = godotenv.Load()

	setupLogging(*verbose)

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CSTRMAP_CONFIG")
	}
	if cfgPath == "" {
		cfgPath = config.DefaultFile
	}
	cfg := config.Load(cfgPath)

	var archive *store.Store
	if cfg.Archive != "" {
		s, err := store.OpenPath(cfg.Archive)
		if err != nil {
			slog.Error("archive.open.err", "path", cfg.Archive, "err", err)
			return 1
		}
		defer s.Close()
		archive = s
	}

	if *runsFlag || *runFlag != "" {
		if archive == nil {
			slog.Error("archive.not_configured", "config", cfgPath)
			return 1
		}
		if *runsFlag {
			return listRuns(archive)
		}
		return showRun(archive, *runFlag)
	}

	paths := flag.Args()
	if *scanDir != "" {
		files, err := discover.Discover(context.Background(), *scanDir, &discover.Options{ExtraIgnore: cfg.ScanIgnore})
		if err != nil {
			slog.Error("scan.err", "dir", *scanDir, "err", err)
			return 1
		}
		slog.Info("scan.done", "dir", *scanDir, "files", len(files))
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	p := pipeline.New(context.Background(), cfg, archive)
	if err := p.Run(paths); err != nil {
		slog.Error("run.err", "err", err)
		return 1
	}
	return 0
}

// listRuns prints archived runs to stdout, most recent first.
func listRuns(s *store.Store) int {
	runs, err := s.ListRuns()
	if err != nil {
		slog.Error("archive.list.err", "err", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return 0
	}
	for _, r := range runs {
		entries, err := s.CountEntries(r.ID)
		if err != nil {
			slog.Error("archive.count.err", "run", r.ID, "err", err)
			return 1
		}
		fmt.Printf("%s  %s  files=%d associations=%d survivors=%d entries=%d\n",
			r.ID, r.StartedAt, r.Files, r.Associations, r.Survivors, entries)
	}
	return 0
}

// showRun prints one archived run's value-to-function entries to stdout.
func showRun(s *store.Store, id string) int {
	r, err := s.GetRun(id)
	if err != nil {
		slog.Error("archive.get.err", "run", id, "err", err)
		return 1
	}
	if r == nil {
		slog.Error("archive.run.missing", "run", id)
		return 1
	}
	entries, err := s.EntriesForRun(id)
	if err != nil {
		slog.Error("archive.entries.err", "run", id, "err", err)
		return 1
	}
	for _, e := range entries {
		fmt.Printf("%s: %s\n", e.Value, e.Function)
	}
	return 0
}

// setupLogging installs the default slog handler: text on a terminal,
// JSON otherwise.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: cstrmap [flags] file.c [file.c ...]\n\n")
	fmt.Fprintf(out, "Extracts string literals from C sources and writes <out_dir>/bundle.json,\n")
	fmt.Fprintf(out, "mapping each globally unique string to the function containing it.\n\nFlags:\n")
	flag.PrintDefaults()
}
