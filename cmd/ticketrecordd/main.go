package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joseph-ayodele/ticket-record/internal/app"
	"github.com/joseph-ayodele/ticket-record/internal/async"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/server"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./config.yaml)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := app.NewLogger(os.Stdout, *verbose)
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("config.load.failed", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("app.init.failed", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("grpc.listen.failed", "addr", addr, "error", err)
		os.Exit(1)
	}

	svc := server.NewTicketServer(a.Processor, a.Records, a.Exporter, logger)
	grpcServer, healthServer := server.NewGRPCServer(svc, server.Options{MaxRecvBytes: cfg.Server.MaxRecvBytes}, logger)

	var queue *async.ProcessorQueue
	if cfg.Watch.Dir != "" {
		queue = startInbox(ctx, cfg, a.Processor, logger)
	}

	logger.Info("grpc.listening", "addr", addr, "llm", cfg.LLMEnabled(), "fields", a.Processor.Allowed())
	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("server.shutdown")
	case err := <-errCh:
		logger.Error("grpc.serve.failed", "error", err)
	}
	healthServer.Shutdown()
	if queue != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout)
		queue.Shutdown(shutdownCtx)
		cancel()
	}
	grpcServer.GracefulStop()
}
