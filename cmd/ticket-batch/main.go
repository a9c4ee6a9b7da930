package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/app"
	"github.com/joseph-ayodele/ticket-record/internal/async"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "config file (default: ./config.yaml)")
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory of ticket images to process (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		user       = flag.String("user", "local-batch", "user id records are stored under")
		modeFlag   = flag.String("mode", string(constants.ModeCompact), "COMPACT or DIRECT")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "tickets.xlsx")
	}
	mode := constants.ExtractMode(strings.ToUpper(*modeFlag))
	if mode != constants.ModeCompact && mode != constants.ModeDirect {
		printError("Error: --mode must be COMPACT or DIRECT\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *inmem {
		cfg.Database.Driver, cfg.Database.DSN = "sqlite", ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	results, stats, err := ingest.ScanDirectory(*dir, true, logger)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	var paths []string
	for _, r := range results {
		if r.Err == "" && !r.Deduplicated {
			paths = append(paths, r.Path)
		}
	}
	logger.Info("scan complete",
		"dir", *dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed)

	var (
		mu        sync.Mutex
		processed int
		failures  int
	)
	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(r async.Result) {
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				failures++
				return
			}
			processed++
		}),
	)
	for _, p := range paths {
		if err := queue.Enqueue(ctx, async.Job{Path: p, UserID: *user, Mode: mode, TraceID: uuid.NewString()}); err != nil {
			logger.Warn("enqueue stopped", "path", p, "error", err)
			break
		}
	}
	queue.Shutdown(ctx)

	logger.Info("exporting to XLSX", "output", *out)
	xlsx, err := a.Exporter.ExportRecordsXLSX(ctx, *user)
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_found", stats.Matched,
		"duplicates_skipped", stats.Deduplicated,
		"files_processed", processed,
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d (%d duplicates skipped)\n", stats.Matched, stats.Deduplicated)
	fmt.Printf("- Files processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
