package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/stockfish-gateway/internal/builder"
	"github.com/park285/stockfish-gateway/internal/config"
	"github.com/park285/stockfish-gateway/internal/obslog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer logger.Sync()

	deps, err := builder.New(cfg, logger)
	if err != nil {
		logger.Fatal("init error", zap.Error(err))
	}

	// The engine must be up before any request is accepted.
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := deps.Engine.Start(startCtx); err != nil {
		cancel()
		logger.Fatal("engine start error", zap.Error(err))
	}
	cancel()

	srv := &fasthttp.Server{
		Handler:      deps.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Name:         "stockfish-gateway",
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.ShutdownWithContext(shutdownCtx)

	deps.Engine.Close()
	if deps.Cache != nil {
		_ = deps.Cache.Close()
	}
	if deps.Repo != nil {
		_ = deps.Repo.Close()
	}
}
