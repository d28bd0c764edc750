package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/barbagrigia/FinanceSharp-sub001/config"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/arrayd"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init("arrayd", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := arrayd.New(ctx, cfg)
	if err != nil {
		log.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := svc.Run(ctx); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}
