package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/url-shortener-client/internal/app"
	"github.com/vadimbarashkov/url-shortener-client/internal/config"
	"github.com/vadimbarashkov/url-shortener-client/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	return app.RunDevServer(ctx, cfg.DevServer, logger.New(cfg.Log, os.Stderr))
}
