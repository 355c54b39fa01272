package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huddle.websocket.go/internal/config"
	"huddle.websocket.go/internal/handler"
	"huddle.websocket.go/internal/persistence"
	"huddle.websocket.go/internal/presence"
	"huddle.websocket.go/internal/rabbitmq"
	"huddle.websocket.go/internal/ratelimit"
	"huddle.websocket.go/internal/store"
	"huddle.websocket.go/internal/websocket"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger.Info("configuration loaded", "port", cfg.Port, "history_limit", cfg.HistoryLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to open message backend", "error", err)
		os.Exit(1)
	}

	messages := store.New(cfg.HistoryLimit)
	messages.Load(persistence.LoadHistory(ctx, backend, logger))

	writer := persistence.NewWriter(backend, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close message backend", "error", err)
		}
	}()

	opts := websocket.HubOptions{OnStoreChanged: writer.Submit}
	if cfg.RabbitMQURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to create rabbitmq publisher, event mirroring disabled", "error", err)
		} else {
			defer publisher.Close()
			opts.Mirror = publisher
		}
	}

	session := &websocket.Session{
		Store: messages,
		Limiter: ratelimit.New(ratelimit.Policy{
			Limit:        cfg.RateLimit.Limit,
			Window:       cfg.RateLimit.Window,
			MuteDuration: cfg.RateLimit.MuteDuration,
		}),
		Presence: presence.NewRegistry(),
	}
	hub := websocket.NewHub(logger, session, opts)
	go hub.Run(ctx)

	websocketHandler := handler.NewWebsocketHandler(hub, logger, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.NewRouter(cfg, websocketHandler),
	}

	go func() {
		logger.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	} else {
		logger.Info("server shutdown gracefully")
	}
	<-hub.Done()
}

func openBackend(cfg *config.Config, logger *slog.Logger) (persistence.Backend, error) {
	if cfg.RedisURL != "" {
		logger.Info("persisting messages to redis")
		return persistence.NewRedisBackend(cfg.RedisURL)
	}
	logger.Info("persisting messages to file", "path", cfg.DataFile)
	return persistence.NewFileBackend(cfg.DataFile), nil
}
