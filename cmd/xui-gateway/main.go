package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hmcts/xui-gateway/internal/bootstrap"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		bootstrap.InitLogger("info").ErrorContext(ctx, "invalid configuration", "error", err)
		return err
	}
	logger := bootstrap.InitLogger(cfg.LogLevel)

	if err := bootstrap.Run(ctx, bootstrap.RunConfig{Config: &cfg, Logger: logger}); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		return err
	}
	return nil
}
