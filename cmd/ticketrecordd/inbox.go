package main

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/ticket-record/internal/async"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/ingest"
)

// startInbox processes ticket files dropped into cfg.Watch.Dir for cfg.Watch.UserID.
func startInbox(ctx context.Context, cfg *common.Config, proc async.FileProcessor, logger *slog.Logger) *async.ProcessorQueue {
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(r async.Result) {
			if r.Err != nil {
				logger.Warn("inbox.process.failed", "path", r.Job.Path, "error", r.Err)
				return
			}
			logger.Info("inbox.process.ok", "path", r.Job.Path, "record_id", r.Record.ID)
		}),
	)
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Watch.Dir},
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
	}, logger)
	if err != nil {
		logger.Error("inbox.watch.disabled", "dir", cfg.Watch.Dir, "error", err)
		return queue
	}
	go func() {
		for {
			select {
			case p, ok := <-events:
				if !ok {
					return
				}
				if err := queue.Enqueue(ctx, async.Job{Path: p, UserID: cfg.Watch.UserID}); err != nil {
					logger.Warn("inbox.enqueue.failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox.watch.error", "error", err)
			}
		}
	}()
	logger.Info("inbox.watch.started", "dir", cfg.Watch.Dir, "user_id", cfg.Watch.UserID)
	return queue
}
