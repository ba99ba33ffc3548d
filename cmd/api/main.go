package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framescan/framescan/config"
	"github.com/framescan/framescan/internal/adapter/broker/rabbit"
	HTTPAdapter "github.com/framescan/framescan/internal/adapter/http"
	"github.com/framescan/framescan/internal/adapter/storage/memory"
	redisstore "github.com/framescan/framescan/internal/adapter/storage/redis"
	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/port"
	"github.com/framescan/framescan/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting framescan api on port %d", cfg.Port)

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Error.Printf("failed to create upload directory: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store port.JobStore
	if cfg.RedisURL == "memory" {
		// Single-node dev setup without a Redis instance.
		store = memory.NewStore()
	} else {
		redisStore, err := redisstore.NewStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error.Printf("failed to connect to store: %v", err)
			os.Exit(1)
		}
		defer func() { _ = redisStore.Close() }()
		store = redisStore
	}

	publisher, err := rabbit.NewPublisher(cfg.AMQPURL(), cfg.RabbitQueue)
	if err != nil {
		logger.Error.Printf("failed to connect to broker: %v", err)
		os.Exit(1)
	}
	defer func() { _ = publisher.Close() }()

	eventBus := service.NewEventBus()
	server := HTTPAdapter.NewServer(store, publisher, eventBus, cfg.UploadDir, cfg.MaxUploadSizeMB)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     server,
		ReadTimeout: 5 * time.Minute,
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
}
