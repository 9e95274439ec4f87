// Package main provides the reclaim command line interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/reclaim/internal/config"
	"github.com/thebtf/reclaim/internal/dedupe"
	"github.com/thebtf/reclaim/internal/history"
	"github.com/thebtf/reclaim/internal/mcp"
	"github.com/thebtf/reclaim/internal/outliers"
	"github.com/thebtf/reclaim/internal/render"
	"github.com/thebtf/reclaim/internal/scanner"
	"github.com/thebtf/reclaim/internal/watcher"
	"github.com/thebtf/reclaim/internal/web"
	"github.com/thebtf/reclaim/pkg/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

const usage = `reclaim - disk space analysis and duplicate detection

Usage:
  reclaim <command> [flags] [path]

Commands:
  search    List files matching a pattern
  count     Count files matching a pattern
  dedupe    Find duplicate files
  outliers  Detect storage outliers and similar-file clusters
  serve     Run the web dashboard over stored analysis runs
  watch     Watch a tree, rescan on change, and serve live results
  mcp       Run as an MCP stdio server

Run 'reclaim <command> -h' for command flags.
`

func main() {
	debug := os.Getenv("RECLAIM_DEBUG") != ""
	setupLogging(debug)

	args := os.Args[1:]
	if len(args) == 0 {
		// Claude and friends launch MCP servers with stdio pipes and no
		// arguments.
		if !isatty.IsTerminal(os.Stdin.Fd()) || os.Getenv("MCP_VERSION") != "" {
			runMCP()
			return
		}
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch args[0] {
	case "search":
		runSearch(args[1:])
	case "count":
		runCount(args[1:])
	case "dedupe":
		runDedupe(args[1:])
	case "outliers":
		runOutliers(args[1:])
	case "serve":
		runServe(args[1:])
	case "watch":
		runWatch(args[1:])
	case "mcp":
		runMCP()
	case "version":
		fmt.Println(Version)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		os.Exit(2)
	}
}

// setupLogging routes logs to stderr; stdout is reserved for command output
// and MCP frames.
func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// walkFlags binds the shared traversal flags onto a flag set.
type walkFlags struct {
	pattern     *string
	patternType *string
	hidden      *bool
	noIgnore    *bool
	maxDepth    *int
}

func addWalkFlags(fs *flag.FlagSet) walkFlags {
	return walkFlags{
		pattern:     fs.String("pattern", "", "Pattern to match files"),
		patternType: fs.String("type", "literal", "Pattern type: literal, glob, or regex"),
		hidden:      fs.Bool("hidden", false, "Include hidden files"),
		noIgnore:    fs.Bool("no-ignore", false, "Do not honor .gitignore rules"),
		maxDepth:    fs.Int("max-depth", 0, "Maximum traversal depth (0 = unlimited)"),
	}
}

func (f walkFlags) options() scanner.WalkOptions {
	return scanner.WalkOptions{
		IncludeHidden: *f.hidden,
		RespectIgnore: !*f.noIgnore,
		MaxDepth:      *f.maxDepth,
	}
}

func rootArg(fs *flag.FlagSet) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return "."
}

// matchedFiles walks and filters per the shared flags, exiting on bad input.
func matchedFiles(fs *flag.FlagSet, wf walkFlags) []string {
	pattern, err := scanner.NewPattern(*wf.patternType, *wf.pattern)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid pattern")
	}
	files, err := scanner.Walk(rootArg(fs), wf.options())
	if err != nil {
		log.Fatal().Err(err).Msg("Walk failed")
	}
	return scanner.Filter(files, pattern)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	wf := addWalkFlags(fs)
	asJSON := fs.Bool("json", false, "Emit JSON")
	_ = fs.Parse(args)

	files := matchedFiles(fs, wf)
	if *asJSON {
		if err := render.WriteJSON(os.Stdout, map[string]any{"files": files, "count": len(files)}); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode results")
		}
		return
	}
	render.WriteFileList(os.Stdout, files)
}

func runCount(args []string) {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	wf := addWalkFlags(fs)
	_ = fs.Parse(args)

	fmt.Println(len(matchedFiles(fs, wf)))
}

func runDedupe(args []string) {
	fs := flag.NewFlagSet("dedupe", flag.ExitOnError)
	wf := addWalkFlags(fs)
	similarity := fs.Int("similarity", 0, "Also group near-duplicates at this threshold (1-100)")
	asJSON := fs.Bool("json", false, "Emit JSON")
	_ = fs.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()

	files := matchedFiles(fs, wf)
	collectOpts := scanner.DefaultCollectOptions()
	collectOpts.EnableFuzzyHash = *similarity > 0
	records := scanner.Collect(ctx, files, collectOpts)

	report := dedupe.FindDuplicates(ctx, records)

	if *asJSON {
		out := map[string]any{"duplicates": report}
		if *similarity > 0 {
			out["similar_groups"] = dedupe.FindSimilar(records, *similarity, nil)
		}
		if err := render.WriteJSON(os.Stdout, out); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode results")
		}
		return
	}

	render.WriteDuplicateTables(os.Stdout, report)
	if *similarity > 0 {
		groups := dedupe.FindSimilar(records, *similarity, nil)
		fmt.Printf("\nNear-duplicate groups at similarity >= %d: %d\n", *similarity, len(groups))
		for _, g := range groups {
			fmt.Printf("  %s (%s) + %d similar\n",
				g.Representative.Path, humanize.IBytes(g.Representative.SizeBytes), len(g.Members))
		}
	}
}

func runOutliers(args []string) {
	fs := flag.NewFlagSet("outliers", flag.ExitOnError)
	wf := addWalkFlags(fs)
	minSize := fs.String("min-size", "", "Minimum file size to consider (e.g. 100MB, 1GB)")
	topN := fs.Int("top", 20, "Number of top outliers to report")
	stdDev := fs.Float64("std-dev", 2.0, "Standard deviation threshold")
	noHidden := fs.Bool("no-hidden-consumers", false, "Skip hidden consumer detection")
	noPatterns := fs.Bool("no-patterns", false, "Skip file pattern detection")
	cluster := fs.Bool("cluster", false, "Cluster similar large files with DBSCAN")
	similarity := fs.Int("similarity", config.DefaultClusterSimilarity, "Cluster similarity threshold (50-100)")
	asJSON := fs.Bool("json", false, "Emit JSON")
	asCSV := fs.Bool("csv", false, "Emit large-file outliers as CSV")
	save := fs.Bool("save", false, "Persist this run to the history database")
	_ = fs.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()

	cfg, _ := config.Load()
	opts := models.DefaultOutlierOptions()
	opts.TopN = *topN
	opts.StdDevThreshold = *stdDev
	opts.CheckHiddenConsumers = !*noHidden
	opts.CheckPatterns = !*noPatterns
	opts.EnableClustering = *cluster
	opts.ClusterSimilarity = *similarity
	opts.MinClusterSize = cfg.MinClusterSize
	opts.BatchSize = cfg.BatchSize
	if *minSize != "" {
		size, err := humanize.ParseBytes(*minSize)
		if err != nil {
			log.Fatal().Err(err).Str("min_size", *minSize).Msg("Invalid size")
		}
		opts.MinSize = size
	}

	root := rootArg(fs)
	report := analyzeTree(ctx, root, fs, wf, cfg, opts, nil)

	if *save {
		saveRun(cfg, root, report)
	}

	switch {
	case *asJSON:
		if err := render.WriteJSON(os.Stdout, report); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode report")
		}
	case *asCSV:
		if err := render.WriteOutliersCSV(os.Stdout, report); err != nil {
			log.Fatal().Err(err).Msg("Failed to write CSV")
		}
	default:
		render.WriteReportTables(os.Stdout, report)
	}
}

// analyzeTree walks, collects, and runs the detectors for one root. The
// optional progress callback receives per-file collection counts.
func analyzeTree(ctx context.Context, root string, fs *flag.FlagSet, wf walkFlags, cfg *config.Config, opts models.OutlierOptions, progress func(done, total int)) *models.OutlierReport {
	var files []string
	var err error
	if fs != nil {
		files = matchedFiles(fs, wf)
	} else {
		files, err = scanner.Walk(root, scanner.DefaultWalkOptions())
		if err != nil {
			log.Fatal().Err(err).Msg("Walk failed")
		}
	}

	collectOpts := scanner.CollectOptions{
		EnableFuzzyHash: opts.EnableClustering,
		HashMinSize:     cfg.HashMinSize,
		HashMaxSize:     cfg.HashMaxSize,
		Progress:        progress,
	}
	records := scanner.Collect(ctx, files, collectOpts)

	report := outliers.BuildReport(records, opts, nil)
	return &report
}

func saveRun(cfg *config.Config, root string, report *models.OutlierReport) {
	if err := config.EnsureDataDir(); err != nil {
		log.Warn().Err(err).Msg("Cannot create data dir, skipping history save")
		return
	}
	store, err := history.NewStore(history.Config{Path: cfg.HistoryDBPath, LogLevel: logger.Silent})
	if err != nil {
		log.Warn().Err(err).Msg("History database unavailable, skipping save")
		return
	}
	defer store.Close()

	runID, err := store.SaveRun(root, report, 0)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to save run")
		return
	}
	log.Info().Str("run_id", runID).Msg("Saved analysis run")
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from settings)")
	_ = fs.Parse(args)

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	listenAddr := config.GetListenAddr()
	if *addr != "" {
		listenAddr = *addr
	}

	store, err := history.NewStore(history.Config{Path: cfg.HistoryDBPath, LogLevel: logger.Silent})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer store.Close()

	srv := web.NewServer(listenAddr, store)
	if runs, err := store.RecentRuns("", 1); err == nil && len(runs) == 1 {
		if report, err := runs[0].Report(); err == nil {
			srv.SetReport(report)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("Dashboard server error")
	}
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from settings)")
	cluster := fs.Bool("cluster", false, "Cluster similar large files on each rescan")
	_ = fs.Parse(args)

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	listenAddr := config.GetListenAddr()
	if *addr != "" {
		listenAddr = *addr
	}
	root := rootArg(fs)

	store, err := history.NewStore(history.Config{Path: cfg.HistoryDBPath, LogLevel: logger.Silent})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer store.Close()

	opts := models.DefaultOutlierOptions()
	opts.TopN = cfg.TopN
	opts.StdDevThreshold = cfg.StdDevThreshold
	opts.EnableClustering = *cluster
	opts.ClusterSimilarity = cfg.ClusterSimilarity
	opts.MinClusterSize = cfg.MinClusterSize
	opts.BatchSize = cfg.BatchSize

	ctx, cancel := signalContext()
	defer cancel()

	srv := web.NewServer(listenAddr, store)

	// Stream collection progress to dashboard subscribers. Every file would
	// flood slow clients, so emit every 64th count plus the final one.
	events := srv.Broadcaster()
	progress := func(done, total int) {
		if done%64 != 0 && done != total {
			return
		}
		events.Broadcast(map[string]any{
			"type":  "progress",
			"done":  done,
			"total": total,
		})
	}

	rescan := func() {
		report := analyzeTree(ctx, root, nil, walkFlags{}, cfg, opts, progress)
		srv.SetReport(report)
		if _, err := store.SaveRun(root, report, 0); err != nil {
			log.Warn().Err(err).Msg("Failed to save run")
		}
		log.Info().Int("files", report.TotalFilesAnalyzed).
			Str("size", humanize.IBytes(report.TotalSizeAnalyzed)).
			Msg("Rescan complete")
	}
	rescan()

	w, err := watcher.New(root, time.Duration(cfg.WatchDebounceMS)*time.Millisecond, rescan)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create watcher")
	}
	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start watcher")
	}
	defer w.Stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("Dashboard server error")
	}
}

func runMCP() {
	if err := config.EnsureAll(); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure data directories")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	ctx, cancel := signalContext()
	defer cancel()

	server := mcp.NewServer(cfg, Version)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server error")
	}
}
