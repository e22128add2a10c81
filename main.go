package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chaos-io/outfitflow/config"
	"github.com/chaos-io/outfitflow/garment"
	"github.com/chaos-io/outfitflow/rembg"
	"github.com/chaos-io/outfitflow/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	var remover rembg.Remover
	var health *rembg.Health
	if cfg.RembgURL == "" {
		logger.Warn("REMBG_URL not set, background removal runs in passthrough mode")
		remover = rembg.NewNoop()
	} else {
		remover = rembg.NewClient(cfg.RembgURL, cfg.RembgModel, cfg.RembgTimeout)
		health = rembg.NewHealth(cfg.RembgURL, logger)
		if err := health.Start(); err != nil {
			logger.Error("start model probe", "error", err.Error())
			os.Exit(1)
		}
		defer health.Stop()
	}

	processor := garment.NewProcessor(remover, logger)
	batch := garment.NewBatch(processor, logger)
	handler := server.NewHandler(processor, batch, health, logger)
	router := server.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "model", cfg.RembgModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err.Error())
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
