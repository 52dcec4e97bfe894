package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/guardian/internal/app"
	"github.com/ivankudzin/tgapp/guardian/internal/config"
	"github.com/ivankudzin/tgapp/guardian/internal/infra/logger"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guardian, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create guardian app", zap.Error(err))
	}
	defer guardian.Close()

	if err := guardian.Run(ctx); err != nil {
		log.Error("guardian app failed", zap.Error(err))
	}
}
